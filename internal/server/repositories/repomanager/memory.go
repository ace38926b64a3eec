package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/authkit/internal/dbx"
	"github.com/dmitrijs2005/authkit/internal/server/repositories/memory"
	"github.com/dmitrijs2005/authkit/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/authkit/internal/server/repositories/users"
)

// MemoryRepositoryManager serves every repository from one in-process store.
// The DBTX arguments are ignored. Units of work are serialized but not
// rolled back on failure.
type MemoryRepositoryManager struct {
	store *memory.Store
	opts  Options
	txMu  sync.Mutex
}

func NewMemoryRepositoryManager(opts Options) *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore(), opts: opts}
}

func (m *MemoryRepositoryManager) DB() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.store.Users(m.opts.ExcludeDeletedUsers)
}

func (m *MemoryRepositoryManager) Sessions(dbx.DBTX) sessions.Repository {
	return m.store.Sessions()
}
