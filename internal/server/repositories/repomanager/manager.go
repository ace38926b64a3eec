// Package repomanager vends storage-specific repositories bound to a
// database handle, together with the unit-of-work runner and schema hook
// the services need.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/authkit/internal/dbx"
	"github.com/dmitrijs2005/authkit/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/authkit/internal/server/repositories/users"
)

type RepositoryManager interface {
	dbx.TxRunner
	// DB is the non-transactional handle passed to the factories outside RunInTx.
	DB() dbx.DBTX
	RunMigrations(ctx context.Context) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}

// Options tune repository behaviour shared by all backends.
type Options struct {
	// ExcludeDeletedUsers hides soft-deleted users from lookups and listings.
	ExcludeDeletedUsers bool
}
