package repomanager

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/conduit/internal/dbx"
	"github.com/dmitrijs2005/conduit/internal/server/migrations"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/articles"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/tags"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories bound either
// to the pool or, inside WithTx, to a single transaction.
type PostgresRepositoryManager struct {
	db      *sql.DB
	conn    dbx.DBTX
	inTx    bool
	timeout time.Duration
}

// NewPostgresRepositoryManager binds the manager to db. timeout bounds every
// repository call.
func NewPostgresRepositoryManager(db *sql.DB, timeout time.Duration) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db, conn: db, timeout: timeout}
}

// Open opens a pgx-backed *sql.DB for dsn. It does not contact the server.
func Open(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return users.NewPostgresRepository(m.conn, m.timeout)
}

func (m *PostgresRepositoryManager) Articles() articles.Repository {
	return articles.NewPostgresRepository(m.conn, m.timeout)
}

func (m *PostgresRepositoryManager) Tags() tags.Repository {
	return tags.NewPostgresRepository(m.conn, m.timeout)
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	if m.inTx {
		return fn(ctx, m)
	}

	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &PostgresRepositoryManager{db: m.db, conn: tx, inTx: true, timeout: m.timeout})
	})
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	ctx, cancel := dbx.WithTimeout(ctx, m.timeout)
	defer cancel()

	return dbx.Classify(m.db.PingContext(ctx))
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}
