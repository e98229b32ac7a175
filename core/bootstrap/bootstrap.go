// Package bootstrap brings up the shared infrastructure in order: logger,
// database with migrations, then the session store.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/delofix/core/config"
	"github.com/m3rciful/delofix/core/database"
	"github.com/m3rciful/delofix/core/logger"
	"github.com/m3rciful/delofix/core/telegram/state"
)

// Options control the bootstrap pipeline. The hooks default to the real
// implementations and exist so tests can run without Postgres.
type Options struct {
	Config *config.Config

	// Migrations holds the schema applied after connecting; nil skips them.
	Migrations    fs.FS
	MigrationsDir string

	LoggerInit   func(*config.Config) error
	Connect      func(context.Context, config.DatabaseConfig) (*database.DB, error)
	Migrate      func(context.Context, config.DatabaseConfig, fs.FS, string) error
	ConnectRedis func(ctx context.Context, addr, password string, db int) (*redis.Client, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// DB is nil when the memory driver is configured.
	DB    *database.DB
	Store state.Store

	closers []func() error
}

// Close releases everything Run opened, newest first.
func (r *Result) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Run initializes the logger, connects to the database, applies migrations
// and opens the session store. On failure everything opened so far is closed.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.defaults()

	if err := opts.LoggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	if cfg.Database.Driver != config.DriverMemory {
		db, err := opts.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		res.DB = db
		res.closers = append(res.closers, db.Close)

		if opts.Migrations != nil {
			if err := opts.Migrate(ctx, cfg.Database, opts.Migrations, opts.MigrationsDir); err != nil {
				_ = res.Close()
				return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
			}
		}
	} else {
		logger.LogEvent(ctx, logger.DB, slog.LevelWarn, "db.connect",
			slog.String("status", "skip"),
			slog.String("driver", config.DriverMemory),
		)
	}

	store, err := opts.openStore(ctx, res)
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("bootstrap: session store failed: %w", err)
	}
	res.Store = store
	return res, nil
}

func (o *Options) defaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = database.Connect
	}
	if o.Migrate == nil {
		o.Migrate = database.RunMigrations
	}
	if o.ConnectRedis == nil {
		o.ConnectRedis = state.ConnectRedis
	}
}

func (o *Options) openStore(ctx context.Context, res *Result) (state.Store, error) {
	cfg := o.Config
	if cfg.Session.Backend != config.SessionBackendRedis {
		return state.NewMemoryStore(), nil
	}
	client, err := o.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	res.closers = append(res.closers, client.Close)
	logger.LogEvent(ctx, logger.Component(logger.CompSession), slog.LevelInfo, "session.store",
		slog.String("status", "ok"),
		slog.String("backend", config.SessionBackendRedis),
		slog.String("addr", cfg.Redis.Addr),
	)
	return state.NewRedisStore(client, state.RedisOptions{
		Prefix: cfg.Session.KeyPrefix,
		TTL:    cfg.Session.TTL(),
	}), nil
}
