package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDriver, cfg.Driver)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
driver: postgres
host: db.internal
port: 5433
database: app
user: svc
migrations:
  dir: db/migrations
  auto: true
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "db/migrations", cfg.Migrations.Dir)
	assert.True(t, cfg.Migrations.Auto)

	dc := cfg.DriverConfig()
	assert.Equal(t, "app", dc.Database)
	assert.Equal(t, "svc", dc.User)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "driver: postgres\ndatabase: app\n")
	t.Setenv("LEAPSTORE_DRIVER", "sqlite")
	t.Setenv("LEAPSTORE_MIGRATIONS__DIR", "migrations")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "app", cfg.Database)
	assert.Equal(t, "migrations", cfg.Migrations.Dir)
}

func TestLoad_FlagsWin(t *testing.T) {
	path := writeConfig(t, "driver: postgres\n")
	t.Setenv("LEAPSTORE_DRIVER", "sqlite")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("driver", "", "")
	flags.String("dsn", "", "")
	require.NoError(t, flags.Parse([]string{"--driver", "duckdb", "--dsn", "app.duckdb"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Driver)
	assert.Equal(t, "app.duckdb", cfg.DSN)
}

func TestValidate(t *testing.T) {
	cfg := &Environment{Driver: ""}
	assert.Error(t, cfg.Validate())

	cfg = &Environment{Driver: "sqlite", Migrations: MigrationsConfig{Auto: true}}
	assert.Error(t, cfg.Validate())

	cfg = &Environment{Driver: "sqlite", Migrations: MigrationsConfig{Auto: true, Dir: "m"}}
	assert.NoError(t, cfg.Validate())
}
