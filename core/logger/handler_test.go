package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, func() string) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	read := func() string {
		if err := aw.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		return strings.TrimSpace(buf.String())
	}
	return slog.New(handler), read
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", CompWizard), slog.LevelInfo, "wizard.step",
		slog.String("status", "ok"),
		slog.String("state", "task:photo"),
	)

	tokens := strings.Split(read(), " ")
	expected := []string{"ts=", "level=INFO", "component=wizard", "event=wizard.step", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "state=task:photo"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %v", tokens)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrderAndCompactRID(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	ctx := WithRID(context.Background(), "12:34:56")

	LogEvent(ctx, log.With("component", CompBrowse), slog.LevelError, "browse.render",
		slog.String("status", "fail"),
		slog.Any("err", errors.New("boom")),
		slog.Duration("duration", 1500*time.Microsecond),
	)

	line := read()
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"browse"`, `"event":"browse.render"`, `"status":"fail"`, `"rid":"` + CompactRID("12:34:56") + `"`, `"rid_full":"12:34:56"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
	if !strings.Contains(line, `"duration_ms":2`) {
		t.Fatalf("expected rounded duration_ms, got %s", line)
	}
	if !strings.Contains(line, `"err":"boom"`) {
		t.Fatalf("expected error text, got %s", line)
	}
}

func TestStructuredHandlerDropsUnknownOutcome(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	LogEvent(context.Background(), log, slog.LevelInfo, "dispatch",
		slog.String("outcome", "exploded"),
		slog.String("payload", ""),
	)
	line := read()
	if strings.Contains(line, "outcome=") || strings.Contains(line, "payload=") {
		t.Fatalf("expected unknown outcome and empty payload to be pruned: %s", line)
	}
	if !strings.Contains(line, "component=app") {
		t.Fatalf("expected default component: %s", line)
	}
}

func TestSanitizeLimitAndSampler(t *testing.T) {
	if got := SanitizeLimit("a\x00b​cdef", 3); got != "abc" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
	if n, d := parseRatioSpec("10"); n != 1 || d != 10 {
		t.Fatalf("parseRatioSpec(10) = %d/%d", n, d)
	}
}
