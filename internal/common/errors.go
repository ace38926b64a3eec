// Package common defines shared constants and sentinel errors used across
// the authkit server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Token codec errors (bad signature, malformed, expired).
	ErrInvalidToken = errors.New("invalid token")

	// Authentication errors.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrInvalidAccessToken   = errors.New("invalid access token")
	ErrUserNotFound         = errors.New("user not found")
	ErrSessionRecordMissing = errors.New("session record missing")

	// User management errors.
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Application error codes reported to clients alongside transport status.
const (
	CodeInternal = 500000

	CodeUserNotFound       = 100001
	CodeEmailAlreadyExists = 100002
	CodeValidation         = 100003
	CodeForbidden          = 100004

	CodeSessionRecordMissing = 200001
	CodeInvalidAccessToken   = 200002
	CodeInvalidRefreshToken  = 200003
	CodeAuthenticationFailed = 200006
)

var codes = []struct {
	err  error
	code int
}{
	{ErrAuthenticationFailed, CodeAuthenticationFailed},
	{ErrInvalidRefreshToken, CodeInvalidRefreshToken},
	{ErrInvalidAccessToken, CodeInvalidAccessToken},
	{ErrSessionRecordMissing, CodeSessionRecordMissing},
	{ErrUserNotFound, CodeUserNotFound},
	{ErrEmailAlreadyExists, CodeEmailAlreadyExists},
	{ErrorValidation, CodeValidation},
	{ErrorForbidden, CodeForbidden},
}

// Code returns the application error code for err, or CodeInternal when err
// does not match any known kind.
func Code(err error) int {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
