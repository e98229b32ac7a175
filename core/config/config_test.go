package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc", AdminID: 42},
		Database: DatabaseConfig{Host: "db", Name: "delofix"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 3*time.Second, cfg.Database.QueryTimeout())
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, "delofix:session", cfg.Session.KeyPrefix)
	assert.Equal(t, time.Second, cfg.Browse.AdDelay())
	assert.Equal(t, 50, cfg.Browse.ResultLimit)
	assert.Equal(t, 1, cfg.RateLimit.Burst)
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"missing token":    func(c *Config) { c.Telegram.Token = "" },
		"bad run mode":     func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" },
		"webhook no url":   func(c *Config) { c.Telegram.RunMode = RunModeWebhook },
		"bad driver":       func(c *Config) { c.Database.Driver = "mysql" },
		"missing db host":  func(c *Config) { c.Database.Host = "" },
		"redis no addr":    func(c *Config) { c.Session.Backend = SessionBackendRedis },
		"bad backend":      func(c *Config) { c.Session.Backend = "etcd" },
		"bad rate exclude": func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"inline_query"} },
		"negative delay":   func(c *Config) { c.Browse.AdDelayMS = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.Error(t, Normalize(cfg))
		})
	}
}

func TestNormalizeMemoryDriverSkipsConnectionFields(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: "MEMORY"}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := `
telegram:
  token: "from-file"
  admin_id: 7
database:
  host: localhost
  name: delofix
session:
  backend: memory
browse:
  ad_delay_ms: 250
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("RATE_LIMIT_EXCLUDE_UPDATES", "Callback")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, int64(7), cfg.Telegram.AdminID)
	assert.Equal(t, 250*time.Millisecond, cfg.Browse.AdDelay())
	assert.Equal(t, []string{UpdateCallback}, cfg.RateLimit.ExcludeUpdates)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
}
