package grpc

import (
	"context"
	"errors"
	"strconv"

	"github.com/dmitrijs2005/authkit/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain is the ErrorInfo domain of every status returned by the server.
const ErrorDomain = "authkit"

// denial is the single client-visible answer for a class of credential
// failures. The underlying sub-check is never exposed.
type denial struct {
	message string
	reason  string
	code    int
	// coversUserNotFound folds a missing user into the denial.
	coversUserNotFound bool
}

var (
	signInDenial = denial{
		message: "incorrect email or password",
		reason:  "AUTHENTICATION_FAILED",
		code:    common.CodeAuthenticationFailed,
	}
	refreshDenial = denial{
		message:            "could not validate credentials",
		reason:             "INVALID_REFRESH_TOKEN",
		code:               common.CodeInvalidRefreshToken,
		coversUserNotFound: true,
	}
	accessDenial = denial{
		message: "could not validate credentials",
		reason:  "INVALID_ACCESS_TOKEN",
		code:    common.CodeInvalidAccessToken,
	}
)

func (d denial) status() error {
	return statusWithInfo(codes.Unauthenticated, d.message, d.reason, d.code)
}

func statusWithInfo(c codes.Code, msg, reason string, appCode int) error {
	st := status.New(c, msg)
	withInfo, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   ErrorDomain,
		Metadata: map[string]string{"code": strconv.Itoa(appCode)},
	})
	if err != nil {
		return st.Err()
	}
	return withInfo.Err()
}

func isCredentialFailure(err error) bool {
	return errors.Is(err, common.ErrAuthenticationFailed) ||
		errors.Is(err, common.ErrInvalidRefreshToken) ||
		errors.Is(err, common.ErrInvalidAccessToken) ||
		errors.Is(err, common.ErrSessionRecordMissing) ||
		errors.Is(err, common.ErrInvalidToken)
}

// toStatus maps a service error to a gRPC status. Credential failures
// collapse into d; unknown errors are logged and reported as Internal.
func (s *GRPCServer) toStatus(ctx context.Context, err error, d denial) error {
	switch {
	case isCredentialFailure(err):
		return d.status()
	case errors.Is(err, common.ErrUserNotFound):
		if d.coversUserNotFound {
			return d.status()
		}
		return statusWithInfo(codes.NotFound, "user not found", "USER_NOT_FOUND", common.CodeUserNotFound)
	case errors.Is(err, common.ErrEmailAlreadyExists):
		return statusWithInfo(codes.AlreadyExists, "email already registered", "EMAIL_ALREADY_EXISTS", common.CodeEmailAlreadyExists)
	case errors.Is(err, common.ErrorValidation):
		return statusWithInfo(codes.InvalidArgument, err.Error(), "VALIDATION_ERROR", common.CodeValidation)
	case errors.Is(err, common.ErrorForbidden):
		return statusWithInfo(codes.PermissionDenied, "operation not permitted", "FORBIDDEN", common.CodeForbidden)
	}

	s.logger.Error(ctx, "request failed", "error", err.Error())
	return statusWithInfo(codes.Internal, "internal error", "INTERNAL", common.CodeInternal)
}
