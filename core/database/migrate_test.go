package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/delofix/core/config"
)

func TestListMigrationFilesAndSelectApplied(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/000002_ads.up.sql":    {Data: []byte("--")},
		"migrations/000001_init.up.sql":   {Data: []byte("--")},
		"migrations/000001_init.down.sql": {Data: []byte("--")},
		"migrations/000003_search.up.sql": {Data: []byte("--")},
		"migrations/README.md":            {Data: []byte("-")},
	}
	files := listMigrationFiles(fsys, "migrations")
	require.Equal(t, []string{"000001_init.up.sql", "000002_ads.up.sql", "000003_search.up.sql"}, files)

	assert.Equal(t, []string{"000002_ads.up.sql", "000003_search.up.sql"}, selectApplied(files, 1, 3))
	assert.Empty(t, selectApplied(files, 3, 3))
	assert.Equal(t, uint64(0), parseVersion("garbage"))
}

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host: "db", Port: "5432", User: "bot", Password: "p@ss/word", Name: "delofix", SSLMode: "disable",
	})
	assert.Equal(t, "postgres://bot:p%40ss%2Fword@db:5432/delofix?sslmode=disable", dsn)
	assert.Equal(t, "pgx", driverName(config.DatabaseConfig{Driver: config.DriverPgx}))
	assert.Equal(t, "postgres", driverName(config.DatabaseConfig{Driver: config.DriverPostgres}))
}
