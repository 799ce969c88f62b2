// Package repomanager vends the repositories of one storage backend and runs
// units of work against it.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/conduit/internal/server/repositories/articles"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/tags"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/users"
)

type RepositoryManager interface {
	// RunMigrations brings the schema up to date.
	RunMigrations(ctx context.Context) error

	Users() users.Repository
	Articles() articles.Repository
	Tags() tags.Repository

	// WithTx runs fn with a manager whose repositories share one
	// transaction. The transaction commits when fn returns nil and rolls
	// back otherwise. Nested calls join the outer transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}
