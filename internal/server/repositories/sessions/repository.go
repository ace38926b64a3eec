package sessions

import (
	"context"

	"github.com/dmitrijs2005/authkit/internal/server/models"
)

// Repository is the session store: exactly one row per user. Every method
// returns common.ErrorNotFound when the user has no session row.
type Repository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Session, error)
	// Create inserts an empty (no token) session row for userID.
	Create(ctx context.Context, userID int64) (*models.Session, error)
	// SetToken stores the refresh token digest and its expiry (unix seconds).
	SetToken(ctx context.Context, userID int64, tokenHash string, expiresAt int64) error
	ClearToken(ctx context.Context, userID int64) error
}
