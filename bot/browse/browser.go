// Package browse implements task search: a keyword prompt, a forward-only
// walk over the results and one ad injected shortly after the first result.
package browse

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m3rciful/delofix/bot/model"
	"github.com/m3rciful/delofix/bot/repository"
	"github.com/m3rciful/delofix/bot/ui"
	"github.com/m3rciful/delofix/core/logger"
	"github.com/m3rciful/delofix/core/metrics"
	"github.com/m3rciful/delofix/core/telegram/router"
	"github.com/m3rciful/delofix/core/telegram/state"
)

const (
	StateKeywords state.State = "search:keywords"
	StateBrowsing state.State = "search:browsing"
)

const defaultAdDelay = time.Second

// Options tunes a Browser.
type Options struct {
	// Limit caps search results; 0 selects repository.DefaultSearchLimit.
	Limit int
	// AdDelay separates the first result from the ad.
	AdDelay time.Duration
	// After schedules f once after d; nil uses time.AfterFunc.
	After func(d time.Duration, f func())
}

// Browser owns the search conversation.
type Browser struct {
	repo  repository.Repository
	ads   *Injector
	limit int
	delay time.Duration
	after func(time.Duration, func())
}

func NewBrowser(repo repository.Repository, ads *Injector, opts Options) *Browser {
	b := &Browser{repo: repo, ads: ads, limit: opts.Limit, delay: opts.AdDelay, after: opts.After}
	if b.limit <= 0 {
		b.limit = repository.DefaultSearchLimit
	}
	if b.delay <= 0 {
		b.delay = defaultAdDelay
	}
	if b.after == nil {
		b.after = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return b
}

// Routes returns the state-scoped routes of the search conversation.
func (b *Browser) Routes() []router.Route {
	return []router.Route{
		{Name: "browse.search", Scope: router.ScopeState, State: StateKeywords, Match: router.PlainText, Handler: b.Search},
		{Name: "browse.next", Scope: router.ScopeState, State: StateBrowsing, Match: router.CallbackEquals(ui.CbNextTask), Handler: b.Next},
		{Name: "browse.restart", Scope: router.ScopeState, State: StateBrowsing, Match: router.TextEquals(ui.BtnSearch), Handler: b.Begin},
	}
}

// Begin asks for search keywords, dropping any previous cursor.
func (b *Browser) Begin(ctx context.Context, req *router.Request) error {
	req.Session.Reset()
	req.Session.Enter(StateKeywords)
	return req.Reply(ctx, ui.WithoutKeyboard(ui.MsgSearchPrompt))
}

// Search runs the query, opens a fresh cursor on the first result and
// schedules the ad. An empty result ends the conversation.
func (b *Browser) Search(ctx context.Context, req *router.Request) error {
	ids, err := b.repo.SearchOpenTasks(ctx, req.Update.Text, b.limit)
	if err != nil {
		return err
	}
	req.Session.Reset()
	if len(ids) == 0 {
		metrics.SearchesTotal.WithLabelValues("empty").Inc()
		return req.Reply(ctx, ui.WithKeyboard(ui.MsgNothingFound, ui.MasterKeyboard))
	}
	metrics.SearchesTotal.WithLabelValues("found").Inc()

	cur := NewCursor(ids)
	cur.Store(req.Session.Fields)
	req.Session.Enter(StateBrowsing)
	logger.LogEvent(ctx, logger.Component(logger.CompBrowse), slog.LevelDebug, "browse.search",
		slog.String("search_id", cur.SearchID),
		slog.Int("count", len(ids)),
	)

	if err := req.Reply(ctx, ui.WithKeyboard(ui.FoundTasks(len(ids)), ui.MasterKeyboard)); err != nil {
		return err
	}
	if err := b.render(ctx, req, cur); err != nil {
		return err
	}
	b.scheduleAd(ctx, req.Out, cur.SearchID)
	return nil
}

// Next advances the cursor, replacing the previous card, or ends the search
// after the last result.
func (b *Browser) Next(ctx context.Context, req *router.Request) error {
	cur, ok := LoadCursor(req.Session.Fields)
	if ok && cur.Next() {
		cur.Store(req.Session.Fields)
		if err := req.Out.DeleteSource(ctx); err != nil {
			logger.LogEvent(ctx, logger.Component(logger.CompBrowse), slog.LevelDebug, "browse.delete_card",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
		return b.render(ctx, req, cur)
	}

	req.Session.Reset()
	if err := req.Out.Answer(ctx, ui.MsgLastTask, true); err != nil {
		return err
	}
	return req.Reply(ctx, ui.WithKeyboard(ui.MsgSearchDone, ui.MasterKeyboard))
}

func (b *Browser) render(ctx context.Context, req *router.Request, cur Cursor) error {
	id, ok := cur.Current()
	if !ok {
		return req.Reply(ctx, router.Text(ui.MsgTaskNotFound))
	}
	task, err := b.repo.GetTask(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return req.Reply(ctx, router.Text(ui.MsgTaskNotFound))
	}
	if err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.Component(logger.CompBrowse), slog.LevelDebug, "browse.render",
		slog.String("search_id", cur.SearchID),
		slog.Int64("task_id", id),
		slog.Int("index", cur.Index),
	)
	return req.Reply(ctx, ui.TaskCard(task))
}

// scheduleAd fires one ad render after the delay. It runs outside the
// update's lifetime, so cancellation of the update does not cancel it.
func (b *Browser) scheduleAd(ctx context.Context, out router.Responder, searchID string) {
	if b.ads == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	b.after(b.delay, func() {
		if _, err := b.ads.Show(detached, out); err != nil {
			logger.LogEvent(detached, logger.Component(logger.CompAds), slog.LevelWarn, "ad.inject",
				slog.String("status", "fail"),
				slog.String("search_id", searchID),
				slog.String("err", err.Error()),
			)
		}
	})
}
