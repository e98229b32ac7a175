package router

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/delofix/core/logger"
	"github.com/m3rciful/delofix/core/telegram/state"
)

type dispatchSummary struct {
	update  Update
	start   time.Time
	route   string
	from    state.State
	to      state.State
	outcome string
	err     error
}

func logDispatch(ctx context.Context, s dispatchSummary) {
	status := "ok"
	level := slog.LevelInfo
	switch {
	case s.err != nil:
		status, level = "fail", slog.LevelError
	case s.outcome == "dropped":
		status, level = "skip", slog.LevelDebug
	}
	route := s.route
	if route == "" {
		route = "none"
	}
	ctx = logger.WithHandler(ctx, route)

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("kind", string(s.update.Kind)),
		slog.String("route", route),
		slog.String("state", string(s.from)),
		slog.String("outcome", s.outcome),
		slog.Duration("duration", time.Since(s.start)),
	}
	if s.to != s.from {
		attrs = append(attrs, slog.String("next_state", string(s.to)))
	}
	if s.outcome == "dropped" && logger.ShouldSampleDebug() {
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payloadOf(s.update), 64)))
	}
	if s.err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(s.err.Error(), 256)),
			slog.String("err_code", ErrorCode(s.err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, level, "dispatch", attrs...)
}

func payloadOf(u Update) string {
	switch u.Kind {
	case KindCallback:
		return u.Data
	case KindPhoto:
		return "<photo>"
	}
	return u.Text
}

// ErrorCode derives a short upper-case code for logs from err's type, or from
// a Code() method when the error (or anything it wraps) provides one.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := u.Unwrap(); len(errs) > 0 {
			return ErrorCode(errs[0])
		}
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
