package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/delofix/bot/repository/memory"
	"github.com/m3rciful/delofix/bot/ui"
	"github.com/m3rciful/delofix/core/config"
	"github.com/m3rciful/delofix/core/telegram"
	"github.com/m3rciful/delofix/core/telegram/router/routertest"
	"github.com/m3rciful/delofix/core/telegram/state"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Telegram.Token = "test"
	cfg.Telegram.AdminID = 1
	cfg.Database.Driver = config.DriverMemory
	require.NoError(t, config.Normalize(cfg))
	return cfg
}

func TestNewRouterServesStart(t *testing.T) {
	cfg := testConfig(t)
	repo := memory.New()
	r, err := NewRouter(cfg, repo, state.NewMemoryStore())
	require.NoError(t, err)

	out := routertest.New()
	ok, err := r.Dispatch(context.Background(), routertest.Text(5, "/start"), out)
	require.NoError(t, err)
	assert.True(t, ok)
	last, _ := out.Last()
	assert.Equal(t, ui.RoleKeyboard, last.Keyboard)

	_, err = repo.GetUser(context.Background(), 5)
	assert.NoError(t, err)
}

func TestCommandsAreRoutable(t *testing.T) {
	r, err := NewRouter(testConfig(t), memory.New(), state.NewMemoryStore())
	require.NoError(t, err)
	for _, c := range Commands() {
		_, ok := r.Match(routertest.Text(1, "/"+c.Text), state.StateNone)
		assert.True(t, ok, c.Text)
	}
}

func TestChecksIncludeRedisSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := &App{cfg: testConfig(t), repo: memory.New(), store: state.NewRedisStore(client, state.RedisOptions{})}
	checks := a.Checks()
	require.Contains(t, checks, "session")
	assert.NoError(t, checks["session"](context.Background()))
	assert.NoError(t, checks["repository"](context.Background()))

	a.store = state.NewMemoryStore()
	assert.NotContains(t, a.Checks(), "session")
}

func TestRunOptionsBuildOfflineBot(t *testing.T) {
	cfg := testConfig(t)
	r, err := NewRouter(cfg, memory.New(), state.NewMemoryStore())
	require.NoError(t, err)

	a := &App{cfg: cfg, router: r}
	opts := a.RunOptions()
	opts.Offline = true
	assert.Equal(t, ui.MsgFailure, opts.ErrorText)

	bot, err := telegram.NewBot(context.Background(), opts)
	require.NoError(t, err)
	assert.NotNil(t, bot)
}

func TestMigrateRejectsMemoryDriver(t *testing.T) {
	require.Error(t, Migrate(context.Background(), testConfig(t)))
}
