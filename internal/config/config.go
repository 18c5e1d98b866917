// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WEEKGRID_"

// Themes lists the accepted values of ui.theme.
var Themes = []string{"mocha", "latte"}

// Config holds the application configuration.
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Routines RoutinesConfig `toml:"routines"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// RoutinesConfig holds routine occurrence settings.
type RoutinesConfig struct {
	RetentionDays int `toml:"retention_days"` // occurrences older than this are pruned at load
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha" or "latte"
	Mouse bool   `toml:"mouse"` // enable mouse drag and drop
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `toml:"level"`       // zerolog level name, e.g. "info"
	File       string `toml:"file"`        // empty disables file logging
	MaxSizeMB  int    `toml:"max_size_mb"` // rotate after this size
	MaxBackups int    `toml:"max_backups"` // rotated files to keep
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Routines: RoutinesConfig{
			RetentionDays: 14,
		},
		UI: UIConfig{
			Theme: "mocha",
			Mouse: true,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "weekgrid.db"
	}
	return filepath.Join(home, ".local", "share", "weekgrid", "weekgrid.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "weekgrid", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvPrefix + "DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv(EnvPrefix + "RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRETENTION_DAYS: %w", EnvPrefix, err)
		}
		cfg.Routines.RetentionDays = n
	}
	if v := os.Getenv(EnvPrefix + "UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	if v := os.Getenv(EnvPrefix + "UI_MOUSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sUI_MOUSE: %w", EnvPrefix, err)
		}
		cfg.UI.Mouse = b
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.Routines.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be at least 1, got %d", c.Routines.RetentionDays)
	}
	if !slices.Contains(Themes, strings.ToLower(c.UI.Theme)) {
		return fmt.Errorf("unknown theme %q, expected one of %s", c.UI.Theme, strings.Join(Themes, ", "))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return errors.New("max_size_mb and max_backups cannot be negative")
	}
	return nil
}

// Retention returns the routine retention window as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Routines.RetentionDays) * 24 * time.Hour
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
