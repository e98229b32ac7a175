package middleware

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/delofix/core/metrics"
	"github.com/m3rciful/delofix/core/telegram/helpers"
)

// MetricsMiddleware counts inbound updates by kind.
func MetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		metrics.UpdatesTotal.WithLabelValues(helpers.Kind(c)).Inc()
		return next(c)
	}
}
