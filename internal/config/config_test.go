package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveToRoundTripsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.General.DefaultDays = 90
	cfg.General.Currency = "NZD"
	cfg.Remote.BaseURL = "https://donations.example.org/api"
	cfg.Appearance.Theme = "terminal"
	require.NoError(t, SaveTo(path, cfg))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 90, loaded.General.DefaultDays)
	assert.Equal(t, "NZD", loaded.General.Currency)
	assert.Equal(t, "https://donations.example.org/api", loaded.Remote.BaseURL)
	assert.Equal(t, "terminal", loaded.Appearance.Theme)
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[general]\ndefault_days = 7\n"), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.General.DefaultDays)
	assert.Equal(t, "AUD", cfg.General.Currency)
	assert.Equal(t, "127.0.0.1:8797", cfg.Daemon.Addr)
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[general\n"), 0o600))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Remote.APIKey = "from-file"
	cfg.General.DataDir = "/srv/kanyini"

	t.Run("config values used when env unset", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		t.Setenv(EnvDataDir, "")
		assert.Equal(t, "from-file", GetAPIKey(cfg))
		assert.Equal(t, "/srv/kanyini", GetDataDir(cfg, "/fallback"))
	})

	t.Run("env wins", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "from-env")
		t.Setenv(EnvDataDir, "/env/data")
		assert.Equal(t, "from-env", GetAPIKey(cfg))
		assert.Equal(t, "/env/data", GetDataDir(cfg, "/fallback"))
	})

	t.Run("fallback when nothing configured", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		assert.Equal(t, "/fallback", GetDataDir(DefaultConfig(), "/fallback"))
	})
}
