package models

import "time"

// Session holds the single refresh-token slot of a user. RefreshTokenHash
// and RefreshTokenExpiresAt (seconds since epoch) are both nil when no
// session is active.
type Session struct {
	ID                    int64
	UserID                int64
	RefreshTokenHash      *string
	RefreshTokenExpiresAt *int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Active reports whether a refresh token is stored.
func (s *Session) Active() bool {
	return s.RefreshTokenHash != nil
}
