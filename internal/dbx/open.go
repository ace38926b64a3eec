package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
)

// pingBackoff is the base delay between connection attempts.
var pingBackoff = 500 * time.Millisecond

// Open opens a pgx-backed *sql.DB and waits until the server answers a ping,
// retrying up to attempts times with exponential backoff.
func Open(ctx context.Context, driver, dsn string, attempts uint64) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := Ping(ctx, db, attempts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Ping checks db connectivity, retrying failed pings.
func Ping(ctx context.Context, db *sql.DB, attempts uint64) error {
	b := retry.WithMaxRetries(attempts, retry.NewExponential(pingBackoff))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}
	return nil
}
