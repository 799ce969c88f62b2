package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ RepositoryManager = (*PostgresRepositoryManager)(nil)
	_ RepositoryManager = (*MemoryRepositoryManager)(nil)
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp), sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestFactories_ReturnRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManager(db, time.Second)

	if m.Users() == nil || m.Articles() == nil || m.Tags() == nil {
		t.Fatal("factory returned nil")
	}
}

func TestWithTx_Commit(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+article_tags`).WithArgs(int64(1), int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := NewPostgresRepositoryManager(db, time.Second)
	err := m.WithTx(context.Background(), func(ctx context.Context, tx RepositoryManager) error {
		return tx.WithTx(ctx, func(ctx context.Context, nested RepositoryManager) error {
			return nested.Articles().AddTag(ctx, 1, 2)
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_Rollback(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT\s+INTO\s+tags`).WithArgs("go").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "go"))
	mock.ExpectRollback()

	boom := errors.New("boom")
	m := NewPostgresRepositoryManager(db, time.Second)
	err := m.WithTx(context.Background(), func(ctx context.Context, tx RepositoryManager) error {
		if _, err := tx.Tags().FindOrCreate(ctx, "go"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginOutage(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(context.DeadlineExceeded)

	m := NewPostgresRepositoryManager(db, time.Second)
	err := m.WithTx(context.Background(), func(context.Context, RepositoryManager) error { return nil })
	require.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestPing(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(context.DeadlineExceeded)

	m := NewPostgresRepositoryManager(db, time.Second)
	require.NoError(t, m.Ping(context.Background()))
	require.ErrorIs(t, m.Ping(context.Background()), common.ErrUpstreamUnavailable)
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db, 0)
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db, 0)
	if err := m.RunMigrations(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestMemoryManager_WithTx(t *testing.T) {
	m := NewMemoryRepositoryManager()
	ctx := context.Background()

	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.Ping(ctx))

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(ctx context.Context, tx RepositoryManager) error {
		if _, err := tx.Users().Create(ctx, &models.User{Email: "a@x.io", UserName: "alice"}); err != nil {
			return err
		}
		return tx.WithTx(ctx, func(context.Context, RepositoryManager) error { return boom })
	})
	require.ErrorIs(t, err, boom)

	u, err := m.Users().GetByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, m.Close())
}

func TestMemoryManager_RollbackKeepsOtherRequests(t *testing.T) {
	m := NewMemoryRepositoryManager()
	ctx := context.Background()

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(ctx context.Context, tx RepositoryManager) error {
		if _, err := tx.Users().Create(ctx, &models.User{Email: "a@x.io", UserName: "alice"}); err != nil {
			return err
		}

		done := make(chan error, 1)
		go func() {
			_, err := m.Users().Create(ctx, &models.User{Email: "b@x.io", UserName: "bob"})
			done <- err
		}()
		require.NoError(t, <-done)

		return boom
	})
	require.ErrorIs(t, err, boom)

	alice, err := m.Users().GetByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Nil(t, alice)

	bob, err := m.Users().GetByEmail(ctx, "b@x.io")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, "bob", bob.UserName)
}
