// Package config loads invitopia settings from a YAML file and
// INVITOPIA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongodb"
)

type StorageConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	SSLMode  string `yaml:"ssl_mode"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type AutosaveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@every 30s"
}

type HistoryConfig struct {
	Limit int `yaml:"limit"` // persisted versions per template
}

type AssetsConfig struct {
	ImageDir     string   `yaml:"image_dir"`
	ImageBaseURL string   `yaml:"image_base_url"`
	Fonts        []string `yaml:"fonts"`
}

// Config is the full application configuration.
type Config struct {
	DataDir  string         `yaml:"data_dir"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Autosave AutosaveConfig `yaml:"autosave"`
	History  HistoryConfig  `yaml:"history"`
	Assets   AssetsConfig   `yaml:"assets"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".local", "share", "invitopia"),
		Storage: StorageConfig{Driver: DriverSQLite},
		Log:     LogConfig{Level: "info", Format: "text"},
		Autosave: AutosaveConfig{
			Enabled:  true,
			Schedule: "@every 30s",
		},
		History: HistoryConfig{Limit: 40},
	}
}

// Path returns the config file location: $INVITOPIA_CONFIG or
// ~/.config/invitopia/config.yaml.
func Path() string {
	if p := os.Getenv("INVITOPIA_CONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "invitopia", "config.yaml")
}

// Load reads the file at path (a missing file is not an error), then
// applies environment overrides and validates the result. The image
// directory defaults to <data_dir>/images.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Assets.ImageDir == "" {
		cfg.Assets.ImageDir = filepath.Join(cfg.DataDir, "images")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("INVITOPIA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("INVITOPIA_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("INVITOPIA_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("INVITOPIA_STORAGE_HOST"); v != "" {
		cfg.Storage.Host = v
	}
	if v := os.Getenv("INVITOPIA_STORAGE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Storage.Port = n
		}
	}
	if v := os.Getenv("INVITOPIA_STORAGE_DATABASE"); v != "" {
		cfg.Storage.Database = v
	}
	if v := os.Getenv("INVITOPIA_STORAGE_USERNAME"); v != "" {
		cfg.Storage.Username = v
	}
	if v := os.Getenv("INVITOPIA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("INVITOPIA_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("INVITOPIA_AUTOSAVE"); v == "false" || v == "0" {
		cfg.Autosave.Enabled = false
	}
	if v := os.Getenv("INVITOPIA_AUTOSAVE_SCHEDULE"); v != "" {
		cfg.Autosave.Schedule = v
	}
	if v := os.Getenv("INVITOPIA_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.History.Limit = n
		}
	}
	if v := os.Getenv("INVITOPIA_IMAGE_DIR"); v != "" {
		cfg.Assets.ImageDir = v
	}
	if v := os.Getenv("INVITOPIA_IMAGE_BASE_URL"); v != "" {
		cfg.Assets.ImageBaseURL = v
	}
}

// Validate checks driver names and required fields.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres, DriverMySQL, DriverMongo:
		if c.Storage.DSN == "" && c.Storage.Host == "" {
			return fmt.Errorf("storage driver %s needs dsn or host", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("history.limit must be positive, got %d", c.History.Limit)
	}
	return nil
}

// SQLitePath is the database file used by the sqlite driver.
func (c Config) SQLitePath() string {
	if c.Storage.DSN != "" {
		return c.Storage.DSN
	}
	return filepath.Join(c.DataDir, "invitopia.db")
}

// BuildDSN assembles a connection string for external drivers from the
// discrete fields when no DSN is given.
func (s StorageConfig) BuildDSN(password string) string {
	if s.DSN != "" {
		return s.DSN
	}
	switch s.Driver {
	case DriverPostgres:
		port := s.Port
		if port == 0 {
			port = 5432
		}
		sslMode := s.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.Host, port, s.Username, password, s.Database, sslMode)
	case DriverMySQL:
		port := s.Port
		if port == 0 {
			port = 3306
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4", s.Username, password, s.Host, port, s.Database)
	case DriverMongo:
		port := s.Port
		if port == 0 {
			port = 27017
		}
		if s.Username != "" {
			return fmt.Sprintf("mongodb://%s:%s@%s:%d/%s", s.Username, password, s.Host, port, s.Database)
		}
		return fmt.Sprintf("mongodb://%s:%d/%s", s.Host, port, s.Database)
	}
	return ""
}
