package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/authkit/internal/authpb"
	"github.com/dmitrijs2005/authkit/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// caller is the subset of authpb.AuthServiceClient used here.
type caller interface {
	Call(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (map[string]any, error)
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      caller

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AuthorizationHeaderName)
	if token != "" {
		md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = access, refresh
}

// isExpiredAccess reports whether err is the server's invalid access token denial.
func isExpiredAccess(err error) bool {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated {
		return false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetReason() == "INVALID_ACCESS_TOKEN" {
			return true
		}
	}
	return false
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if method == authpb.FullMethod(authpb.MethodRefresh) {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := s.tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)

	if err == nil || !isExpiredAccess(err) || refresh == "" {
		return err
	}

	out, rerr := s.client.Call(ctx, authpb.MethodRefresh, map[string]any{"refresh_token": refresh})
	if rerr != nil {
		return err
	}
	newAccess, _ := out["access_token"].(string)
	s.setTokens(newAccess, refresh)

	// tokens refreshed, retry with the new access token
	return invoker(withAccessToken(ctx, newAccess), method, req, reply, cc, opts...)
}

func NewAuthKitClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	conn, err := grpc.NewClient(s.endpointURL, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = authpb.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// IsLoggedIn reports whether the client holds a session.
func (s *GRPCClient) IsLoggedIn() bool {
	_, refresh := s.tokens()
	return refresh != ""
}

func (s *GRPCClient) Register(ctx context.Context, email, password, profileName string) (*User, error) {
	out, err := s.client.Call(ctx, authpb.MethodSignUp, map[string]any{
		"email":        email,
		"password":     password,
		"profile_name": profileName,
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	u := userFromPayload(out["user"])
	return &u, nil
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (*User, error) {
	out, err := s.client.Call(ctx, authpb.MethodSignIn, map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	access, _ := out["access_token"].(string)
	refresh, _ := out["refresh_token"].(string)
	s.setTokens(access, refresh)

	u := userFromPayload(out["user"])
	return &u, nil
}

// Logout ends the server session and forgets the local tokens.
func (s *GRPCClient) Logout(ctx context.Context) error {
	if !s.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	_, err := s.client.Call(ctx, authpb.MethodSignOut, nil)
	s.setTokens("", "")
	return s.mapError(err)
}

// GetUser loads user id; zero means the current user.
func (s *GRPCClient) GetUser(ctx context.Context, id int64) (*User, error) {
	in := map[string]any{}
	if id != 0 {
		in["id"] = id
	}
	out, err := s.client.Call(ctx, authpb.MethodGetUser, in)
	if err != nil {
		return nil, s.mapError(err)
	}
	u := userFromPayload(out["user"])
	return &u, nil
}

func (s *GRPCClient) ListUsers(ctx context.Context, skip, limit int) ([]User, error) {
	out, err := s.client.Call(ctx, authpb.MethodListUsers, map[string]any{"skip": skip, "limit": limit})
	if err != nil {
		return nil, s.mapError(err)
	}
	raw, _ := out["users"].([]any)
	users := make([]User, 0, len(raw))
	for _, r := range raw {
		users = append(users, userFromPayload(r))
	}
	return users, nil
}

// UpdateUser changes the profile name and/or role of user id; nil fields
// are left untouched.
func (s *GRPCClient) UpdateUser(ctx context.Context, id int64, profileName, role *string) (*User, error) {
	in := map[string]any{}
	if id != 0 {
		in["id"] = id
	}
	if profileName != nil {
		in["profile_name"] = *profileName
	}
	if role != nil {
		in["role"] = *role
	}
	out, err := s.client.Call(ctx, authpb.MethodUpdateUser, in)
	if err != nil {
		return nil, s.mapError(err)
	}
	u := userFromPayload(out["user"])
	return &u, nil
}

func (s *GRPCClient) DeleteUser(ctx context.Context, id int64) error {
	in := map[string]any{}
	if id != 0 {
		in["id"] = id
	}
	_, err := s.client.Call(ctx, authpb.MethodDeleteUser, in)
	return s.mapError(err)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	out, err := s.client.Call(ctx, authpb.MethodPing, nil)
	if err != nil {
		return s.mapError(err)
	}
	if out["status"] != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %s", st.Message())
	}
}
