package grpc

import (
	"context"

	"github.com/dmitrijs2005/authkit/internal/server/models"
	"github.com/dmitrijs2005/authkit/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const tokenTypeBearer = "bearer"

func (s *GRPCServer) reply(ctx context.Context, out map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(out)
	if err != nil {
		s.logger.Error(ctx, "encode response", "error", err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}
	return resp, nil
}

func (s *GRPCServer) caller(ctx context.Context) (*models.User, error) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return nil, accessDenial.status()
	}
	return u, nil
}

// targetID reads "id" from the request and defaults to the caller.
func targetID(req *structpb.Struct, caller *models.User) (int64, error) {
	id, ok, err := intField(req, "id")
	if err != nil {
		return 0, err
	}
	if !ok {
		return caller.ID, nil
	}
	return id, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.reply(ctx, okPayload())
}

func (s *GRPCServer) SignUp(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	var in services.RegisterInput
	var err error
	if in.Email, _, err = stringField(req, "email"); err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}
	if in.Password, _, err = stringField(req, "password"); err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}
	if in.ProfileName, _, err = stringField(req, "profile_name"); err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}

	user, err := s.users.Register(ctx, in)
	if err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return s.reply(ctx, map[string]any{"user": userPayload(*user)})
}

func (s *GRPCServer) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	email, _, err := stringField(req, "email")
	if err != nil {
		return nil, s.toStatus(ctx, err, signInDenial)
	}
	password, _, err := stringField(req, "password")
	if err != nil {
		return nil, s.toStatus(ctx, err, signInDenial)
	}

	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, s.toStatus(ctx, err, signInDenial)
	}

	return s.reply(ctx, map[string]any{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"token_type":    tokenTypeBearer,
		"user":          userPayload(res.User),
	})
}

func (s *GRPCServer) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	refreshToken, _, err := stringField(req, "refresh_token")
	if err != nil {
		return nil, s.toStatus(ctx, err, refreshDenial)
	}
	if refreshToken == "" {
		return nil, refreshDenial.status()
	}

	accessToken, err := s.auth.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err, refreshDenial)
	}

	return s.reply(ctx, map[string]any{
		"access_token": accessToken,
		"token_type":   tokenTypeBearer,
	})
}

func (s *GRPCServer) SignOut(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Logout(ctx, caller.ID); err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}
	return s.reply(ctx, okPayload())
}

func (s *GRPCServer) GetUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := targetID(req, caller)
	if err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}

	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}
	return s.reply(ctx, map[string]any{"user": userPayload(*user)})
}

func (s *GRPCServer) ListUsers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	skip, _, err := intField(req, "skip")
	if err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}
	limit, _, err := intField(req, "limit")
	if err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}

	list, err := s.users.List(ctx, int(skip), int(limit))
	if err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}

	users := make([]any, 0, len(list))
	for _, u := range list {
		users = append(users, userPayload(u))
	}
	return s.reply(ctx, map[string]any{"users": users})
}

func (s *GRPCServer) UpdateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := targetID(req, caller)
	if err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}

	var in services.UpdateInput
	name, ok, err := stringField(req, "profile_name")
	if err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}
	if ok {
		in.ProfileName = &name
	}
	role, ok, err := stringField(req, "role")
	if err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}
	if ok {
		r := models.Role(role)
		in.Role = &r
	}

	user, err := s.users.Update(ctx, caller, id, in)
	if err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}
	return s.reply(ctx, map[string]any{"user": userPayload(*user)})
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := targetID(req, caller)
	if err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}

	if err := s.users.Delete(ctx, caller, id); err != nil {
		return nil, s.toStatus(ctx, err, accessDenial)
	}
	return s.reply(ctx, okPayload())
}
