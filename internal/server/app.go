// Package server wires the mediashelf server together: it opens the
// database and the search cache, applies migrations, builds the services
// and runs the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/mediashelf/internal/logging"
	"github.com/dmitrijs2005/mediashelf/internal/server/auth"
	"github.com/dmitrijs2005/mediashelf/internal/server/cache"
	"github.com/dmitrijs2005/mediashelf/internal/server/config"
	"github.com/dmitrijs2005/mediashelf/internal/server/httpapi"
	"github.com/dmitrijs2005/mediashelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mediashelf/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	rdb          redis.UniversalClient
	userService  *services.UserService
	mediaService *services.MediaService
}

// NewApp opens every backing store and builds the services. The caller owns
// the returned App and must Close it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	if c.UsesDefaultSecret() {
		logger.Warn(ctx, "JWT secret is the built-in default, set JWT_SECRET or -s")
	}

	db, err := openDB(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	searchCache, rdb, err := newSearchCache(ctx, c)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("cache init error: %w", err)
	}
	app.rdb = rdb
	if rdb == nil {
		logger.Info(ctx, "search cache disabled")
	}

	hasher, err := auth.NewPasswordHasher(c.BcryptCost, c.HashConcurrency)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.userService = services.NewUserService(db, m, hasher, c, logger)
	app.mediaService = services.NewMediaService(db, m, searchCache, logger)

	return app, nil
}

func openDB(ctx context.Context, c *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(c.DBMaxOpenConns)
	db.SetMaxIdleConns(c.DBMaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// newSearchCache returns a Nop cache and a nil client when no Redis address
// is configured.
func newSearchCache(ctx context.Context, c *config.Config) (cache.SearchCache, redis.UniversalClient, error) {
	if c.RedisAddr == "" {
		return cache.Nop{}, nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, nil, err
	}

	return cache.NewRedisCache(rdb, c.SearchCacheTTL), rdb, nil
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

func (app *App) httpServer() *httpapi.HTTPServer {
	return httpapi.NewHTTPServer(app.config.HTTPAddress, app.logger, app.userService, app.mediaService, app.config.SecretKey, httpapi.Options{
		AllowedOrigins:  app.config.CORSAllowedOrigins,
		RequestTimeout:  app.config.RequestTimeout,
		ShutdownTimeout: app.config.ShutdownTimeout,
	})
}

// Run serves the HTTP API until ctx is cancelled or a termination signal
// arrives, then releases the stores.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	err := app.httpServer().Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server error", "error", err)
	}

	return errors.Join(err, app.Close())
}

// Close releases the database pool and the Redis client.
func (app *App) Close() error {
	var errs []error
	if app.rdb != nil {
		errs = append(errs, app.rdb.Close())
		app.rdb = nil
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
		app.db = nil
	}
	return errors.Join(errs...)
}
