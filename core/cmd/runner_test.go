package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/delofix/core/buildinfo"
	"github.com/m3rciful/delofix/core/config"
)

type calls struct {
	path    string
	served  bool
	migrate bool
}

func testOptions(t *testing.T, c *calls) Options {
	t.Helper()
	return Options{
		Use:     "delofix",
		EnvFile: filepath.Join(t.TempDir(), "missing.env"),
		LoadConfig: func(path string) (*config.Config, error) {
			c.path = path
			return &config.Config{}, nil
		},
		Serve: func(ctx context.Context, cfg *config.Config) error {
			require.NotNil(t, cfg)
			c.served = true
			return nil
		},
		Migrate: func(context.Context, *config.Config) error {
			c.migrate = true
			return nil
		},
		ShutdownLogger: func() error { return nil },
	}
}

func run(t *testing.T, opts Options, args ...string) string {
	t.Helper()
	root := NewRoot(opts)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.ExecuteContext(context.Background()))
	return out.String()
}

func TestRootServesByDefault(t *testing.T) {
	var c calls
	run(t, testOptions(t, &c))
	assert.True(t, c.served)
	assert.False(t, c.migrate)
}

func TestConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/from/env.yaml")

	var c calls
	run(t, testOptions(t, &c), "serve")
	assert.Equal(t, "/from/env.yaml", c.path)

	run(t, testOptions(t, &c), "migrate", "--config", "/from/flag.yaml")
	assert.Equal(t, "/from/flag.yaml", c.path)
	assert.True(t, c.migrate)
}

func TestEnvFileIsLoaded(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CONFIG_PATH=/from/dotenv.yaml\n"), 0o600))
	t.Setenv("CONFIG_PATH", "")
	require.NoError(t, os.Unsetenv("CONFIG_PATH"))

	var c calls
	opts := testOptions(t, &c)
	opts.EnvFile = envFile
	run(t, opts, "serve")
	assert.Equal(t, "/from/dotenv.yaml", c.path)
}

func TestVersionSkipsConfig(t *testing.T) {
	var c calls
	out := run(t, testOptions(t, &c), "version")
	assert.Contains(t, out, buildinfo.String())
	assert.Empty(t, c.path)
	assert.False(t, c.served)
}
