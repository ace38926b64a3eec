// Package server initializes and runs the authkit server.
// It selects the storage backend, wires the services, starts the gRPC
// endpoint and the optional metrics endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authkit/internal/dbx"
	"github.com/dmitrijs2005/authkit/internal/logging"
	"github.com/dmitrijs2005/authkit/internal/server/auth"
	"github.com/dmitrijs2005/authkit/internal/server/config"
	"github.com/dmitrijs2005/authkit/internal/server/metrics"
	"github.com/dmitrijs2005/authkit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkit/internal/server/services"

	gs "github.com/dmitrijs2005/authkit/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	metrics     *metrics.Metrics
	authService *services.AuthService
	userService *services.UserService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, metrics: metrics.New()}

	rm, err := app.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewArgon2idHasher(auth.Argon2Params{
		Time:      c.Argon2Time,
		MemoryKiB: c.Argon2MemoryKiB,
		Threads:   c.Argon2Threads,
	})

	as, err := services.NewAuthService(rm, hasher, auth.NewTokenCodec(time.Now), services.TokenSettings{
		AccessSecret:  c.AccessTokenSecret,
		RefreshSecret: c.RefreshTokenSecret,
		AccessTTL:     c.AccessTokenValidityDuration,
		RefreshTTL:    c.RefreshTokenValidityDuration,
	}, logger, app.metrics)
	if err != nil {
		app.closeDB()
		return nil, err
	}

	app.authService = as
	app.userService = services.NewUserService(rm, hasher, logger)

	return app, nil
}

func (app *App) initStorage(ctx context.Context) (repomanager.RepositoryManager, error) {
	opts := repomanager.Options{ExcludeDeletedUsers: app.config.ExcludeDeletedUsers}

	switch app.config.Storage {
	case config.StorageMemory:
		app.logger.Warn(ctx, "using in-memory storage, data will not survive a restart")
		return repomanager.NewMemoryRepositoryManager(opts), nil

	default:
		db, err := dbx.Open(ctx, "pgx", app.config.DatabaseDSN, app.config.DBConnectAttempts)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db

		rm := repomanager.NewPostgresRepositoryManager(db, opts)
		if err := rm.RunMigrations(ctx); err != nil {
			app.closeDB()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		return rm, nil
	}
}

func (app *App) closeDB() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "closing database", "error", err.Error())
	}
	app.db = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.userService, app.metrics)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {

	lis, err := net.Listen("tcp", app.config.MetricsAddr)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := app.metrics.Serve(ctx, lis, app.logger); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.closeDB()
	app.logger.Info(ctx, "App stopped")
}
