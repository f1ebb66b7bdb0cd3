// Package config loads and saves the kanyini TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override config file values.
const (
	EnvAPIKey  = "KANYINI_API_KEY"
	EnvDataDir = "KANYINI_DATA_DIR"
	EnvAppEnv  = "KANYINI_ENV"
)

// Config holds all kanyini configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Remote     RemoteConfig     `toml:"remote"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir     string `toml:"data_dir,omitempty"`
	DefaultDays int    `toml:"default_days"`
	Currency    string `toml:"currency"`
	Locale      string `toml:"locale"`
}

// RemoteConfig holds donation-platform API settings used by `kanyini sync`.
type RemoteConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`
}

// DaemonConfig holds defaults for `kanyini daemon`.
type DaemonConfig struct {
	Addr        string `toml:"addr"`
	IntervalSec int    `toml:"interval_sec"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard refresh settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultDays: 30,
			Currency:    "AUD",
			Locale:      "en-AU",
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8797",
			IntervalSec: 30,
		},
		Appearance: AppearanceConfig{
			Theme: "kanyini-earth",
		},
		TUI: TUIConfig{
			RefreshIntervalSec: 30,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kanyini")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "kanyini")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config location
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path, creating parent directories.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// GetAPIKey returns the remote API key from env var or config, in that order.
func GetAPIKey(cfg Config) string {
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key
	}
	return cfg.Remote.APIKey
}

// GetDataDir resolves the fixture directory: env var, then config, then fallback.
func GetDataDir(cfg Config, fallback string) string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	if cfg.General.DataDir != "" {
		return cfg.General.DataDir
	}
	return fallback
}

// AppEnv returns the runtime environment name used to pick the log format.
func AppEnv() string {
	if env := os.Getenv(EnvAppEnv); env != "" {
		return env
	}
	return "production"
}
