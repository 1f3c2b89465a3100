package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "127.0.0.1"

database:
  url: "postgres://localhost/pastracker?sslmode=disable"

redis:
  enabled: true
  addr: "localhost:6379"

outreach:
  country_prefix: "54"
  page_size: 25
  stale_days: 45
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.GetHost())
	assert.Equal(t, "postgres://localhost/pastracker?sslmode=disable", cfg.Database.URL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 25, cfg.Outreach.PageSize)
	assert.Equal(t, 45, cfg.Outreach.StaleDays)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: {}\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.GetHost())
	assert.Equal(t, "54", cfg.Outreach.CountryPrefix)
	assert.Equal(t, 40, cfg.Outreach.PageSize)
	assert.Equal(t, 30, cfg.Outreach.StaleDays)
}

func TestLoadFromEnvMissingFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db.internal/pas")
	t.Setenv("PORT", "9999")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://db.internal/pas", cfg.Database.URL)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [not a map"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}
