// Package sessions provides a PostgreSQL-backed repository for the
// per-user refresh token slot used by the authentication flow.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkit/internal/common"
	"github.com/dmitrijs2005/authkit/internal/dbx"
	"github.com/dmitrijs2005/authkit/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID int64) (*models.Session, error) {
	query := `
		SELECT id, user_id, refresh_token_hash, refresh_token_expires_at, created_at, updated_at
		FROM sessions
		WHERE user_id = $1
	`
	s := &models.Session{}
	var hash sql.NullString
	var expires sql.NullInt64

	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&s.ID, &s.UserID, &hash, &expires, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if hash.Valid {
		s.RefreshTokenHash = &hash.String
	}
	if expires.Valid {
		s.RefreshTokenExpiresAt = &expires.Int64
	}

	return s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64) (*models.Session, error) {
	query := `
		INSERT INTO sessions (user_id)
		VALUES ($1)
		RETURNING id, created_at, updated_at
	`
	s := &models.Session{UserID: userID}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// SetToken overwrites the slot in a single statement; the last writer wins.
func (r *PostgresRepository) SetToken(ctx context.Context, userID int64, tokenHash string, expiresAt int64) error {
	query := `
		UPDATE sessions
		SET refresh_token_hash = $2, refresh_token_expires_at = $3, updated_at = now()
		WHERE user_id = $1
	`
	return r.exec(ctx, query, userID, tokenHash, expiresAt)
}

func (r *PostgresRepository) ClearToken(ctx context.Context, userID int64) error {
	query := `
		UPDATE sessions
		SET refresh_token_hash = NULL, refresh_token_expires_at = NULL, updated_at = now()
		WHERE user_id = $1
	`
	return r.exec(ctx, query, userID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
