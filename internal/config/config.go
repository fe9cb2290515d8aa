// Package config loads TaskHive settings from a YAML file, falling back to
// environment variables when the file is absent.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Backends accepted by Config.Backend.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	LogLevel string `yaml:"log_level" env:"TASKHIVE_LOG_LEVEL" env-default:"info"`

	Backend     string `yaml:"backend" env:"TASKHIVE_BACKEND" env-default:"sqlite"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	SQLitePath  string `yaml:"sqlite_path" env:"TASKHIVE_SQLITE_PATH"`

	HTTP HTTP `yaml:"http"`

	ActivityLimit   int           `yaml:"activity_limit" env:"TASKHIVE_ACTIVITY_LIMIT" env-default:"10"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"TASKHIVE_REFRESH_INTERVAL" env-default:"60s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"TASKHIVE_WRITE_TIMEOUT" env-default:"10s"`
	SessionTTL      time.Duration `yaml:"session_ttl" env:"TASKHIVE_SESSION_TTL" env-default:"168h"`
	AnalyticsCap    int           `yaml:"analytics_cap" env:"TASKHIVE_ANALYTICS_CAP" env-default:"1000"`
}

type HTTP struct {
	Address         string        `yaml:"address" env:"TASKHIVE_HTTP_ADDRESS" env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"TASKHIVE_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Load reads path, or only the environment when path is empty or missing.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read env: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read env: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	if cfg.Backend == BackendSQLite && cfg.SQLitePath == "" {
		p, err := defaultSQLitePath()
		if err != nil {
			return cfg, err
		}
		cfg.SQLitePath = p
	}
	return cfg, nil
}

// MustLoad is Load that exits the process on error.
func MustLoad(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func (c Config) validate() error {
	switch c.Backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required for the postgres backend")
		}
	case BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.ActivityLimit <= 0 {
		return fmt.Errorf("activity_limit must be positive, got %d", c.ActivityLimit)
	}
	return nil
}

// defaultSQLitePath is $XDG_DATA_HOME/taskhive/taskhive.db, or the same under
// ~/.local/share.
func defaultSQLitePath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "taskhive", "taskhive.db"), nil
}
