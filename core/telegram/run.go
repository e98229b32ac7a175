// Package telegram runs the bot on telebot: it builds the poller and the
// middleware chain, converts updates for the router and renders its replies.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/delofix/core/config"
	"github.com/m3rciful/delofix/core/logger"
	"github.com/m3rciful/delofix/core/telegram/helpers"
	"github.com/m3rciful/delofix/core/telegram/router"
)

// Dispatcher consumes router updates; *router.Router implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, u router.Update, out router.Responder) (bool, error)
}

// RunOptions controls Run.
type RunOptions struct {
	Config     *config.Config
	Dispatcher Dispatcher
	// Commands is published as the bot command list.
	Commands []tele.Command
	// ErrorText is sent when handling an update fails; empty sends nothing.
	ErrorText string
	// OnLimited runs for updates dropped by the rate limiter.
	OnLimited tele.HandlerFunc
	// Middlewares overrides DefaultMiddlewares when non-nil.
	Middlewares []Middleware

	DisableWebhookCleanup bool
	// Offline builds the bot without calling the Bot API (tests).
	Offline bool
}

// Run starts the bot and blocks until ctx is done. Bot construction errors
// (bad token, unreachable API) are returned before any update is served.
func Run(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil || opts.Dispatcher == nil {
		return errors.New("telegram: config and dispatcher are required")
	}
	bot, err := NewBot(ctx, opts)
	if err != nil {
		return err
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "tg.stop", slog.String("status", "ok"))
		return nil
	case <-runDone:
		return errors.New("telegram: poller stopped unexpectedly")
	}
}

// NewBot builds a configured bot with middlewares and handlers attached.
func NewBot(ctx context.Context, opts RunOptions) (*tele.Bot, error) {
	cfg := opts.Config
	poller := BuildPoller(cfg)

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(),
		Offline: opts.Offline,
		OnError: func(err error, c tele.Context) {
			var lctx context.Context = ctx
			if c != nil {
				lctx = helpers.BuildContext(ctx, c)
			}
			logger.LogEvent(lctx, logger.TG, slog.LevelError, "tg.error",
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				slog.String("err_code", router.ErrorCode(err)),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logMode(ctx, cfg, poller, time.Since(start))

	if !opts.Offline && !opts.DisableWebhookCleanup && strings.EqualFold(cfg.Telegram.RunMode, config.RunModeLongpoll) {
		if err := bot.RemoveWebhook(false); err != nil {
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "delete_webhook",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}

	mws := opts.Middlewares
	if mws == nil {
		mws = DefaultMiddlewares(ctx, cfg, opts.OnLimited)
	}
	for _, mw := range mws {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}

	h := Bridge(ctx, bot, opts.Dispatcher, opts.ErrorText)
	for _, endpoint := range []string{tele.OnText, tele.OnPhoto, tele.OnCallback} {
		bot.Handle(endpoint, h)
	}
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "tg.wire",
		slog.String("status", "ok"),
		slog.Int("middlewares", len(mws)),
		slog.Int("commands", len(opts.Commands)),
	)

	if !opts.Offline && len(opts.Commands) > 0 {
		if err := bot.SetCommands(opts.Commands); err != nil {
			logger.LogEvent(ctx, logger.TWire, slog.LevelWarn, "set_commands",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	return bot, nil
}

// Bridge converts telebot updates for d. A failed dispatch has already been
// logged by the router; the user gets errorText and the poller moves on.
func Bridge(parent context.Context, api API, d Dispatcher, errorText string) tele.HandlerFunc {
	return func(c tele.Context) error {
		u, ok := ToUpdate(c)
		if !ok {
			return nil
		}
		ctx := helpers.BuildContext(parent, c)
		out := NewResponder(api, c)
		defer out.finish()

		if _, err := d.Dispatch(ctx, u, out); err != nil && errorText != "" {
			if serr := out.Send(context.WithoutCancel(ctx), router.Text(errorText)); serr != nil {
				logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.error_reply",
					slog.String("status", "fail"),
					slog.String("err", serr.Error()),
				)
			}
		}
		return nil
	}
}

func logMode(ctx context.Context, cfg *config.Config, poller tele.Poller, took time.Duration) {
	switch p := poller.(type) {
	case *tele.Webhook:
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
			slog.String("mode", config.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", took),
		)
	case *tele.LongPoller:
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
			slog.String("mode", config.RunModeLongpoll),
			slog.Duration("timeout", p.Timeout),
			slog.Duration("duration", took),
		)
	}
}
