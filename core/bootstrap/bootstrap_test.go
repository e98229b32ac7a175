package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/delofix/core/config"
	"github.com/m3rciful/delofix/core/database"
	"github.com/m3rciful/delofix/core/telegram/state"
)

func noLogger(*config.Config) error { return nil }

func TestRunMemoryDriverSkipsDatabase(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = config.DriverMemory
	cfg.Session.Backend = config.SessionBackendMemory

	res, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Connect: func(context.Context, config.DatabaseConfig) (*database.DB, error) {
			t.Fatal("connect must not be called")
			return nil, nil
		},
	})
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.IsType(t, &state.MemoryStore{}, res.Store)
	assert.NoError(t, res.Close())
}

func TestRunConnectsMigratesAndOpensRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	cfg := &config.Config{}
	cfg.Database.Driver = config.DriverPostgres
	cfg.Session.Backend = config.SessionBackendRedis
	cfg.Session.KeyPrefix = "test"
	cfg.Redis.Addr = mr.Addr()

	migrations := fstest.MapFS{"m/000001_init.up.sql": {Data: []byte("SELECT 1;")}}
	var migratedDir string
	res, err := Run(context.Background(), Options{
		Config:        cfg,
		Migrations:    migrations,
		MigrationsDir: "m",
		LoggerInit:    noLogger,
		Connect: func(context.Context, config.DatabaseConfig) (*database.DB, error) {
			return database.Wrap(sqlx.NewDb(sqlDB, "postgres")), nil
		},
		Migrate: func(_ context.Context, _ config.DatabaseConfig, _ fs.FS, dir string) error {
			migratedDir = dir
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "m", migratedDir)
	require.NotNil(t, res.DB)

	sess := state.NewSession()
	sess.Enter("task:description")
	require.NoError(t, res.Store.Save(context.Background(), 7, sess))
	assert.True(t, mr.Exists("test:7"))

	require.NoError(t, res.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunClosesDatabaseWhenMigrationFails(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	cfg := &config.Config{}
	cfg.Database.Driver = config.DriverPgx

	_, err = Run(context.Background(), Options{
		Config:     cfg,
		Migrations: fstest.MapFS{},
		LoggerInit: noLogger,
		Connect: func(context.Context, config.DatabaseConfig) (*database.DB, error) {
			return database.Wrap(sqlx.NewDb(sqlDB, "pgx")), nil
		},
		Migrate: func(context.Context, config.DatabaseConfig, fs.FS, string) error {
			return errors.New("dirty database")
		},
	})
	require.ErrorContains(t, err, "migrations failed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRejectsNilConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	require.Error(t, err)
}
