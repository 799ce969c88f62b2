package repomanager

import (
	"context"

	"github.com/dmitrijs2005/conduit/internal/server/repositories/articles"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/memory"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/tags"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/users"
)

// MemoryRepositoryManager serves repositories from an in-process store.
// Data does not survive a restart.
type MemoryRepositoryManager struct {
	store *memory.Store
	tx    *memory.Tx
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository {
	if m.tx != nil {
		return m.tx.Users()
	}
	return m.store.Users()
}

func (m *MemoryRepositoryManager) Articles() articles.Repository {
	if m.tx != nil {
		return m.tx.Articles()
	}
	return m.store.Articles()
}

func (m *MemoryRepositoryManager) Tags() tags.Repository {
	if m.tx != nil {
		return m.tx.Tags()
	}
	return m.store.Tags()
}

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	if m.tx != nil {
		return fn(ctx, m)
	}

	return m.store.Atomically(ctx, func(ctx context.Context, tx *memory.Tx) error {
		return fn(ctx, &MemoryRepositoryManager{store: m.store, tx: tx})
	})
}

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryRepositoryManager) Close() error { return nil }
