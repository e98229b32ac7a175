// Package app assembles the bot from configuration: infrastructure, the
// repository, the routing table and the Telegram and ops servers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/delofix/bot/browse"
	"github.com/m3rciful/delofix/bot/handlers"
	"github.com/m3rciful/delofix/bot/repository"
	"github.com/m3rciful/delofix/bot/repository/memory"
	"github.com/m3rciful/delofix/bot/repository/postgres"
	"github.com/m3rciful/delofix/bot/ui"
	"github.com/m3rciful/delofix/core/bootstrap"
	"github.com/m3rciful/delofix/core/buildinfo"
	"github.com/m3rciful/delofix/core/config"
	"github.com/m3rciful/delofix/core/database"
	"github.com/m3rciful/delofix/core/logger"
	"github.com/m3rciful/delofix/core/opsserver"
	"github.com/m3rciful/delofix/core/telegram"
	"github.com/m3rciful/delofix/core/telegram/router"
	"github.com/m3rciful/delofix/core/telegram/state"
)

// App is a fully wired bot ready to serve.
type App struct {
	cfg    *config.Config
	repo   repository.Repository
	store  state.Store
	router *router.Router
	infra  *bootstrap.Result
}

// New bootstraps infrastructure and builds the routing table.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:        cfg,
		Migrations:    postgres.Migrations,
		MigrationsDir: postgres.MigrationsDir,
	})
	if err != nil {
		return nil, err
	}

	var repo repository.Repository
	if infra.DB != nil {
		repo = postgres.New(infra.DB, cfg.Database.QueryTimeout())
	} else {
		repo = memory.New()
	}

	r, err := NewRouter(cfg, repo, infra.Store)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "routes",
		slog.String("status", "ok"),
		slog.Int("routes", r.Len()),
		slog.String("version", buildinfo.String()),
	)
	return &App{cfg: cfg, repo: repo, store: infra.Store, router: r, infra: infra}, nil
}

// NewRouter builds the routing table over repo and store.
func NewRouter(cfg *config.Config, repo repository.Repository, store state.Store) (*router.Router, error) {
	b := browse.NewBrowser(repo, browse.NewInjector(repo), browse.Options{
		Limit:   cfg.Browse.ResultLimit,
		AdDelay: cfg.Browse.AdDelay(),
	})
	h := handlers.New(repo, b, handlers.Config{AdminID: cfg.Telegram.AdminID})

	r := router.New(store, router.Options{})
	if err := r.Handle(h.Routes()...); err != nil {
		return nil, fmt.Errorf("app: routing table: %w", err)
	}
	return r, nil
}

// Commands is the published bot command list.
func Commands() []tele.Command {
	return []tele.Command{
		{Text: "start", Description: "Начать работу"},
		{Text: "menu", Description: "Главное меню"},
		{Text: "help", Description: "Помощь"},
		{Text: "admin", Description: "Панель администратора"},
	}
}

// RunOptions returns the Telegram runtime options for the app.
func (a *App) RunOptions() telegram.RunOptions {
	return telegram.RunOptions{
		Config:     a.cfg,
		Dispatcher: a.router,
		Commands:   Commands(),
		ErrorText:  ui.MsgFailure,
		OnLimited: func(c tele.Context) error {
			return c.Send(ui.MsgRateLimited)
		},
	}
}

// Checks returns the health checks exposed on /healthz.
func (a *App) Checks() map[string]opsserver.Check {
	checks := map[string]opsserver.Check{"repository": a.repo.Ping}
	if p, ok := a.store.(interface{ Ping(context.Context) error }); ok {
		checks["session"] = p.Ping
	}
	return checks
}

// Serve runs the bot and, when configured, the ops server until ctx is done
// or either of them fails.
func (a *App) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return telegram.Run(gctx, a.RunOptions())
	})
	if a.cfg.Ops.Listen != "" {
		srv := opsserver.New(a.cfg.Ops.Listen, a.Checks())
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}
	return g.Wait()
}

// Close releases the database and session store connections.
func (a *App) Close() error {
	return a.infra.Close()
}

// Migrate applies pending migrations without starting the bot.
func Migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.Database.Driver == config.DriverMemory {
		return errors.New("app: nothing to migrate with the memory driver")
	}
	if err := logger.InitLogger(cfg); err != nil {
		return fmt.Errorf("app: logger init failed: %w", err)
	}
	return database.RunMigrations(ctx, cfg.Database, postgres.Migrations, postgres.MigrationsDir)
}
