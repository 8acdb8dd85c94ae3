package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "assessor.db", cfg.Store.SQLitePath)
	assert.Equal(t, int32(10), cfg.Store.Pool.MaxConns)
	assert.Equal(t, 5, cfg.Discovery.DefaultCount)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 25.0, cfg.Server.RequestsPerSec)
	assert.Equal(t, 50, cfg.Server.Burst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ASSESSOR_STORE_DRIVER", "postgres")
	t.Setenv("ASSESSOR_STORE_DATABASE_URL", "postgres://localhost/assessor")
	t.Setenv("ASSESSOR_SERVER_PORT", "9090")
	t.Setenv("ASSESSOR_SERVER_ALLOWED_ORIGINS", "https://records.example.gov,https://gis.example.gov")
	t.Setenv("ASSESSOR_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/assessor", cfg.Store.DatabaseURL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://records.example.gov", "https://gis.example.gov"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, "config.yaml", `
store:
  driver: memory
discovery:
  default_count: 8
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 8, cfg.Discovery.DefaultCount)
	// Untouched keys keep defaults.
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	require.Error(t, InitLogger(LogConfig{Level: "shouting", Format: "json"}))
}
