package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"auth failed", ErrAuthenticationFailed, CodeAuthenticationFailed},
		{"wrapped refresh", fmt.Errorf("refresh: %w", ErrInvalidRefreshToken), CodeInvalidRefreshToken},
		{"access", ErrInvalidAccessToken, CodeInvalidAccessToken},
		{"session missing", ErrSessionRecordMissing, CodeSessionRecordMissing},
		{"user not found", ErrUserNotFound, CodeUserNotFound},
		{"duplicate email", ErrEmailAlreadyExists, CodeEmailAlreadyExists},
		{"validation", fmt.Errorf("%w: email", ErrorValidation), CodeValidation},
		{"forbidden", ErrorForbidden, CodeForbidden},
		{"unknown", errors.New("boom"), CodeInternal},
		{"nil", nil, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Fatalf("Code(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
