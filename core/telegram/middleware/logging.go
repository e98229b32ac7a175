package middleware

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/delofix/core/logger"
	"github.com/m3rciful/delofix/core/telegram/helpers"
)

// LoggerMiddleware attaches rid and update metadata to the update context and
// logs a sampled receipt line.
func LoggerMiddleware(parent context.Context) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			ctx := helpers.BuildContext(parent, c)

			if logger.ShouldSampleDebug() {
				attrs := []slog.Attr{
					slog.String("status", "ok"),
					slog.String("kind", helpers.Kind(c)),
				}
				if user := c.Sender(); user != nil && user.Username != "" {
					attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
				}
				if cb := c.Callback(); cb != nil {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(cb.Data, 256)))
				} else if t := c.Text(); t != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
				}
				logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
			}
			return next(c)
		}
	}
}
