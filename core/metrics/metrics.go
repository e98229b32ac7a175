// Package metrics declares the bot's Prometheus collectors. They register with
// the default registry on import and are exposed by the ops server at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "delofix"

// ── Dispatch ─────────────────────────────────────────────────────────────────

// UpdatesTotal counts inbound updates accepted by the transport.
// Label kind: "text", "photo" or "callback".
var UpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Inbound updates received, by kind.",
	},
	[]string{"kind"},
)

// DispatchTotal counts routing decisions.
// Labels:
//   - route: matched route name, "none" when nothing matched
//   - outcome: "ok", "fail" or "dropped"
var DispatchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_total",
		Help:      "Routed updates by route and outcome.",
	},
	[]string{"route", "outcome"},
)

// DispatchDuration measures lock wait, session I/O and handler time per update.
var DispatchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Time spent dispatching one update.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// RateLimitedTotal counts updates dropped by the per-user limiter.
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Updates rejected by the per-user rate limiter.",
	},
	[]string{"kind"},
)

// PanicsTotal counts handler panics caught by the recover middleware.
var PanicsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "panics_total",
		Help:      "Handler panics recovered by the transport.",
	},
)

// MessagesSentTotal counts outbound renders.
// Labels:
//   - kind: "text" or "photo"
//   - status: "ok" or "fail"
var MessagesSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Outbound messages by kind and delivery status.",
	},
	[]string{"kind", "status"},
)

// ── Wizards ──────────────────────────────────────────────────────────────────

// WizardStepsTotal counts accepted wizard inputs by the state they were accepted in.
var WizardStepsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wizard_steps_total",
		Help:      "Accepted wizard inputs by wizard and state.",
	},
	[]string{"wizard", "state"},
)

// WizardFinalizeTotal counts terminal writes.
// Label status: "ok" or "fail".
var WizardFinalizeTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wizard_finalize_total",
		Help:      "Wizard finalizations by wizard and status.",
	},
	[]string{"wizard", "status"},
)

// ── Browse and ads ───────────────────────────────────────────────────────────

// SearchesTotal counts task searches.
// Label result: "found" or "empty".
var SearchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Task searches by result.",
	},
	[]string{"result"},
)

// AdImpressionsTotal counts ad injection attempts.
// Label result: "shown", "none" or "fail".
var AdImpressionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ad_impressions_total",
		Help:      "Ad injection attempts by result.",
	},
	[]string{"result"},
)
