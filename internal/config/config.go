package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides the config file location.
const EnvPath = "MOVIECATALOG_CONFIG"

// DefaultPath is the config file looked up when EnvPath is unset.
const DefaultPath = "config.yaml"

// Storage drivers
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config represents the application configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Save    SaveConfig    `yaml:"save"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects where the catalog lives
type StorageConfig struct {
	Driver       string `yaml:"driver"`
	Path         string `yaml:"path"`
	AllowMissing bool   `yaml:"allow_missing"`
	Watch        bool   `yaml:"watch"`
}

// SaveConfig holds retry settings for background saves
type SaveConfig struct {
	Attempts  int `yaml:"attempts"`
	BackoffMS int `yaml:"backoff_ms"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: DriverJSON,
			Path:   "movieCatalog.json",
		},
		Save: SaveConfig{
			Attempts:  3,
			BackoffMS: 50,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Backoff returns the initial retry backoff for saves.
func (c SaveConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffMS) * time.Millisecond
}

// SlogLevel converts the configured level name.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Path returns the config file location, honoring EnvPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads and parses the configuration file. A missing file yields the
// defaults; .env and .env.local are loaded first so they can feed ${VAR}
// references in the YAML.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()

	// Read the config file
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverJSON
	}
	if c.Storage.Driver != DriverJSON && c.Storage.Driver != DriverSQLite {
		return fmt.Errorf("unknown storage driver %q (want %q or %q)", c.Storage.Driver, DriverJSON, DriverSQLite)
	}

	if c.Storage.Path == "" {
		if c.Storage.Driver == DriverSQLite {
			c.Storage.Path = "movieCatalog.db"
		} else {
			c.Storage.Path = "movieCatalog.json"
		}
	}

	var err error
	if c.Storage.Path, err = expandHome(c.Storage.Path); err != nil {
		return err
	}
	if c.Log.File, err = expandHome(c.Log.File); err != nil {
		return err
	}

	if c.Storage.Watch && c.Storage.Driver != DriverJSON {
		return fmt.Errorf("storage.watch is only supported with the %q driver", DriverJSON)
	}

	if c.Save.Attempts <= 0 {
		c.Save.Attempts = 1
	}
	if c.Save.BackoffMS < 0 {
		return fmt.Errorf("save.backoff_ms must not be negative")
	}

	return nil
}

// expandHome expands a leading ~ to the home directory
func expandHome(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// loadEnvFiles loads .env then .env.local; missing files are ignored and
// variables already set in the environment win.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
