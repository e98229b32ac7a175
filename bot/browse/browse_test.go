package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/delofix/bot/model"
	"github.com/m3rciful/delofix/bot/repository"
	"github.com/m3rciful/delofix/bot/repository/memory"
	"github.com/m3rciful/delofix/bot/ui"
	"github.com/m3rciful/delofix/core/telegram/router"
	"github.com/m3rciful/delofix/core/telegram/router/routertest"
	"github.com/m3rciful/delofix/core/telegram/state"
)

const master = int64(55)

// fixedSearch returns canned ids and synthesizes tasks for them.
type fixedSearch struct {
	*memory.Repository
	ids []model.ID
}

func (f *fixedSearch) SearchOpenTasks(_ context.Context, q string, _ int) ([]model.ID, error) {
	if q == "nothing" {
		return nil, nil
	}
	return append([]model.ID(nil), f.ids...), nil
}

func (f *fixedSearch) GetTask(_ context.Context, id model.ID) (model.ClientTask, error) {
	return model.ClientTask{ID: id, Description: fmt.Sprintf("task %d", id), Location: "Midtown"}, nil
}

type scheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	funcs  []func()
}

func (s *scheduler) after(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.funcs = append(s.funcs, f)
}

func (s *scheduler) runAll() {
	s.mu.Lock()
	funcs := s.funcs
	s.funcs = nil
	s.mu.Unlock()
	for _, f := range funcs {
		f()
	}
}

type harness struct {
	t     *testing.T
	repo  *fixedSearch
	store *state.MemoryStore
	r     *router.Router
	out   *routertest.Recorder
	sched *scheduler
}

func newHarness(t *testing.T, ids ...model.ID) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		repo:  &fixedSearch{Repository: memory.New(), ids: ids},
		store: state.NewMemoryStore(),
		out:   routertest.New(),
		sched: &scheduler{},
	}
	b := NewBrowser(h.repo, NewInjector(h.repo), Options{AdDelay: 250 * time.Millisecond, After: h.sched.after})
	h.r = router.New(h.store, router.Options{})
	require.NoError(t, h.r.Handle(router.Route{
		Name: "browse.begin", Scope: router.ScopeIdle, Match: router.TextEquals(ui.BtnSearch), Handler: b.Begin,
	}))
	require.NoError(t, h.r.Handle(b.Routes()...))
	return h
}

func (h *harness) send(u router.Update) bool {
	h.t.Helper()
	ok, err := h.r.Dispatch(context.Background(), u, h.out)
	require.NoError(h.t, err)
	return ok
}

func (h *harness) session() *state.Session {
	h.t.Helper()
	s, err := h.store.Load(context.Background(), master)
	require.NoError(h.t, err)
	return s
}

func (h *harness) cursor() Cursor {
	h.t.Helper()
	c, ok := LoadCursor(h.session().Fields)
	require.True(h.t, ok)
	return c
}

func (h *harness) lastText() string {
	r, _ := h.out.Last()
	return r.Text
}

func TestSearchThenBrowse(t *testing.T) {
	h := newHarness(t, 7, 3, 9)

	require.True(t, h.send(routertest.Text(master, ui.BtnSearch)))
	assert.Equal(t, StateKeywords, h.session().State)

	require.True(t, h.send(routertest.Text(master, "кран")))
	assert.Equal(t, StateBrowsing, h.session().State)
	cur := h.cursor()
	assert.Equal(t, []int64{7, 3, 9}, cur.IDs)
	assert.Equal(t, 0, cur.Index)
	assert.NotEmpty(t, cur.SearchID)
	texts := h.out.Texts()
	require.Len(t, texts, 3)
	assert.Equal(t, ui.FoundTasks(3), texts[1])
	assert.Contains(t, texts[2], "Задача #7")

	require.True(t, h.send(routertest.Callback(master, ui.CbNextTask)))
	assert.Equal(t, 1, h.cursor().Index)
	assert.Contains(t, h.lastText(), "Задача #3")

	require.True(t, h.send(routertest.Callback(master, ui.CbNextTask)))
	assert.Equal(t, 2, h.cursor().Index)
	assert.Contains(t, h.lastText(), "Задача #9")
	assert.Equal(t, 2, h.out.Deletes())

	require.True(t, h.send(routertest.Callback(master, ui.CbNextTask)))
	assert.True(t, h.session().Idle())
	assert.Equal(t, ui.MsgSearchDone, h.lastText())
	assert.Equal(t, []routertest.Answer{{Text: ui.MsgLastTask, Alert: true}}, h.out.Answers())

	assert.False(t, h.send(routertest.Callback(master, ui.CbNextTask)), "exhausted search drops further presses")
	assert.True(t, h.session().Idle())
}

func TestEmptySearchEndsConversation(t *testing.T) {
	h := newHarness(t, 1)
	h.send(routertest.Text(master, ui.BtnSearch))
	require.True(t, h.send(routertest.Text(master, "nothing")))

	assert.True(t, h.session().Idle())
	assert.Equal(t, ui.MsgNothingFound, h.lastText())
	assert.Empty(t, h.sched.delays)
}

func TestRepeatedSearchStartsFreshCursor(t *testing.T) {
	h := newHarness(t, 7, 3, 9)
	h.send(routertest.Text(master, ui.BtnSearch))
	h.send(routertest.Text(master, "кран"))
	first := h.cursor()
	h.send(routertest.Callback(master, ui.CbNextTask))
	require.Equal(t, 1, h.cursor().Index)

	require.True(t, h.send(routertest.Text(master, ui.BtnSearch)))
	assert.Equal(t, StateKeywords, h.session().State)
	assert.False(t, h.session().Fields.Has(FieldFoundTasks))

	h.send(routertest.Text(master, "кран"))
	second := h.cursor()
	assert.Equal(t, 0, second.Index)
	assert.NotEqual(t, first.SearchID, second.SearchID)
}

func TestAdInjectedOnceAfterFirstResult(t *testing.T) {
	h := newHarness(t, 7, 3)
	ctx := context.Background()
	adID, err := h.repo.ActivateAd(ctx, repository.NewAd{Text: "promo", TargetViews: 1})
	require.NoError(t, err)

	h.send(routertest.Text(master, ui.BtnSearch))
	h.send(routertest.Text(master, "кран"))
	require.Equal(t, []time.Duration{250 * time.Millisecond}, h.sched.delays)

	h.send(routertest.Callback(master, ui.CbNextTask))
	assert.Len(t, h.sched.delays, 1, "next does not schedule another ad")

	h.sched.runAll()
	assert.Equal(t, "promo", h.lastText())
	ads, err := h.repo.ListAds(ctx)
	require.NoError(t, err)
	assert.Equal(t, adID, ads[0].ID)
	assert.Equal(t, 1, ads[0].CurrentViews)

	// the campaign is exhausted: a second search shows no ad
	h.out.Reset()
	h.send(routertest.Text(master, ui.BtnSearch))
	h.send(routertest.Text(master, "кран"))
	h.sched.runAll()
	assert.NotEqual(t, "promo", h.lastText())
}

type failingSend struct{ routertest.Recorder }

func (f *failingSend) Send(context.Context, router.Reply) error { return errors.New("blocked") }

func TestInjectorDoesNotCountFailedRender(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	_, err := repo.ActivateAd(ctx, repository.NewAd{Text: "promo", TargetViews: 3})
	require.NoError(t, err)

	shown, err := NewInjector(repo).Show(ctx, &failingSend{})
	assert.False(t, shown)
	require.Error(t, err)

	ad, ok, err := repo.SelectEligibleAd(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, ad.CurrentViews)
}

func TestCursorNeverLeavesRange(t *testing.T) {
	c := NewCursor([]int64{7})
	id, ok := c.Current()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
	assert.False(t, c.Next())
	assert.Equal(t, 0, c.Index)

	empty := NewCursor(nil)
	_, ok = empty.Current()
	assert.False(t, ok)
}

func TestFormatAdStatus(t *testing.T) {
	assert.Equal(t, ui.MsgNoAds, FormatAdStatus(nil))

	out := FormatAdStatus([]model.Advertisement{
		{ID: 2, Text: "Весенняя распродажа для всех мастеров города", TargetViews: 100, CurrentViews: 10, Active: true},
		{ID: 1, Text: "<old>", TargetViews: 5, CurrentViews: 5, Active: true},
	})
	assert.Contains(t, out, "<b>ID: 2</b> | 🟢 Активна\nТекст: Весенняя распродажа для всех м...\nПросмотры: 10 / 100")
	assert.Contains(t, out, "<b>ID: 1</b> | 🔴 Завершена\nТекст: &lt;old&gt;...\nПросмотры: 5 / 5")
}
