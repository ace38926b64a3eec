// Package authpb describes the authkit.v1.AuthService gRPC contract shared by
// the server and its clients. Messages are google.protobuf.Struct values.
package authpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "authkit.v1.AuthService"

const (
	MethodPing       = "Ping"
	MethodSignUp     = "SignUp"
	MethodSignIn     = "SignIn"
	MethodRefresh    = "Refresh"
	MethodSignOut    = "SignOut"
	MethodGetUser    = "GetUser"
	MethodListUsers  = "ListUsers"
	MethodUpdateUser = "UpdateUser"
	MethodDeleteUser = "DeleteUser"
)

// FullMethod returns the "/service/method" path of a method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AuthServiceServer is the server API of authkit.v1.AuthService.
// Every message is a google.protobuf.Struct.
type AuthServiceServer interface {
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignUp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignOut(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListUsers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServiceDesc describes authkit.v1.AuthService for grpc.Server.RegisterService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodPing, Handler: unaryHandler(MethodPing, AuthServiceServer.Ping)},
		{MethodName: MethodSignUp, Handler: unaryHandler(MethodSignUp, AuthServiceServer.SignUp)},
		{MethodName: MethodSignIn, Handler: unaryHandler(MethodSignIn, AuthServiceServer.SignIn)},
		{MethodName: MethodRefresh, Handler: unaryHandler(MethodRefresh, AuthServiceServer.Refresh)},
		{MethodName: MethodSignOut, Handler: unaryHandler(MethodSignOut, AuthServiceServer.SignOut)},
		{MethodName: MethodGetUser, Handler: unaryHandler(MethodGetUser, AuthServiceServer.GetUser)},
		{MethodName: MethodListUsers, Handler: unaryHandler(MethodListUsers, AuthServiceServer.ListUsers)},
		{MethodName: MethodUpdateUser, Handler: unaryHandler(MethodUpdateUser, AuthServiceServer.UpdateUser)},
		{MethodName: MethodDeleteUser, Handler: unaryHandler(MethodDeleteUser, AuthServiceServer.DeleteUser)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authkit/v1/auth.proto",
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceClient calls authkit.v1.AuthService methods over cc.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

// Call invokes method with in as the request payload and returns the
// decoded response payload.
func (c *AuthServiceClient) Call(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
