// Package server wires configuration, storage, services and transports into
// the running Conduit server and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/conduit/internal/logging"
	"github.com/dmitrijs2005/conduit/internal/server/auth"
	"github.com/dmitrijs2005/conduit/internal/server/config"
	"github.com/dmitrijs2005/conduit/internal/server/observability"
	"github.com/dmitrijs2005/conduit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/conduit/internal/server/services"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	gs "github.com/dmitrijs2005/conduit/internal/server/grpc"
)

// storageBackoff bounds how long startup waits for the database.
var storageBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
}

type App struct {
	config        *config.Config
	logger        logging.Logger
	repomanager   repomanager.RepositoryManager
	grpcServer    *gs.GRPCServer
	observability *observability.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.Setup(c.LogFormat, c.LogLevel, os.Stdout)

	rm, err := openStorage(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	app, err := newApp(c, rm, logger)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}
	return app, nil
}

// newApp builds services and transports on top of an opened storage.
func newApp(c *config.Config, rm repomanager.RepositoryManager, logger logging.Logger) (*App, error) {
	tokens := auth.NewTokenService([]byte(c.SecretKey))

	authSvc, err := services.NewAuthService(rm, auth.NewBcryptHasher(c.BcryptCost), tokens, c.TokenTTL, logger)
	if err != nil {
		return nil, err
	}

	svc := gs.Services{
		Auth:      authSvc,
		Profiles:  services.NewProfileService(rm),
		Articles:  services.NewArticleService(rm, logger),
		Favorites: services.NewFavoriteService(rm, logger),
		Tags:      services.NewTagService(rm, logger),
		Avatars:   services.NewAvatarService(c, authSvc),
	}

	obs := observability.NewServer(c.MetricsAddr, rm.Ping, logger)
	guard := auth.NewGuard(tokens, rm.Users())

	return &App{
		config:        c,
		logger:        logger,
		repomanager:   rm,
		grpcServer:    gs.NewGRPCServer(c.GRPCAddr, svc, guard, obs.Metrics(), logger),
		observability: obs,
	}, nil
}

// openStorage connects to the configured backend. For PostgreSQL it waits
// for the database with bounded retries and applies migrations.
func openStorage(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if c.Storage == config.StorageMemory {
		logger.Warn(ctx, "using in-memory storage; data is lost on exit")
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := repomanager.Open(c.DatabaseDSN)
	if err != nil {
		return nil, oops.Code("DB_INIT_FAILED").Wrap(err)
	}
	rm := repomanager.NewPostgresRepositoryManager(db, c.DBTimeout)

	err = retry.Do(ctx, storageBackoff(), func(ctx context.Context) error {
		if err := rm.Ping(ctx); err != nil {
			logger.Warn(ctx, "database not reachable, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = rm.Close()
		return nil, oops.Code("DB_INIT_FAILED").Wrapf(err, "database unreachable")
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, oops.Code("DB_MIGRATION_FAILED").Wrap(err)
	}

	return rm, nil
}

func (app *App) startGRPCServer(ctx context.Context, fail func(error)) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		fail(err)
	}
}

func (app *App) startObservability(ctx context.Context, fail func(error)) {
	if app.config.MetricsAddr == "" {
		return
	}

	errCh, err := app.observability.Start(ctx)
	if err != nil {
		app.logger.Error(ctx, "observability server failed", "error", err)
		fail(err)
		return
	}

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			fail(err)
		}
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.observability.Stop(stopCtx); err != nil {
		app.logger.Error(ctx, "observability shutdown failed", "error", err)
	}
}

// Run serves until ctx is canceled or SIGINT, SIGTERM or SIGQUIT arrives,
// then shuts down and closes storage. It returns the errors that stopped a
// server, if any.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage)

	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
		cancelFunc()
	}

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, fail)
	}()
	go func() {
		defer wg.Done()
		app.startObservability(ctx, fail)
	}()

	wg.Wait()

	if err := app.repomanager.Close(); err != nil {
		errs = append(errs, err)
	}

	app.logger.Info(context.Background(), "Stopped")
	return errors.Join(errs...)
}
