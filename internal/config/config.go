package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"todo-keeper/internal/service"
)

const (
	DefaultConfigFile = "todokeeper.toml"
	DefaultDatabase   = "todokeeper.db"
	DefaultNamespace  = "local"
)

// Config keeps runtime settings for the bot and the CLI.
type Config struct {
	TelegramToken  string        `toml:"telegram_token"`
	DatabaseDriver string        `toml:"database_driver"`
	DatabaseURL    string        `toml:"database_url"`
	DigestTime     string        `toml:"digest_time"`
	DigestInterval time.Duration `toml:"-"`
	DigestHours    int           `toml:"digest_interval_hours"`
	LogLevel       string        `toml:"log_level"`
	LogFormat      string        `toml:"log_format"`
	Namespace      string        `toml:"namespace"`
}

// Load reads the optional TOML file named by TODO_CONFIG (or todokeeper.toml)
// and lets environment variables override it.
func Load() (Config, error) {
	path := strings.TrimSpace(os.Getenv("TODO_CONFIG"))
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	return LoadFile(path, explicit)
}

// LoadFile is Load with an explicit path. A missing file is an error only when required is set.
func LoadFile(path string, required bool) (Config, error) {
	cfg := Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) || required {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	setString(&cfg.DatabaseDriver, "DATABASE_DRIVER")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.DigestTime, "DIGEST_TIME")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.Namespace, "TODO_NAMESPACE")
	if raw := strings.TrimSpace(os.Getenv("DIGEST_INTERVAL_HOURS")); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil {
			cfg.DigestHours = hours
		}
	}
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func applyDefaults(cfg *Config) {
	cfg.DatabaseDriver = strings.ToLower(cfg.DatabaseDriver)
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = "sqlite"
	}
	if cfg.DatabaseURL == "" && cfg.DatabaseDriver == "sqlite" {
		cfg.DatabaseURL = DefaultDatabase
	}
	if cfg.DigestHours > 0 {
		cfg.DigestInterval = time.Duration(cfg.DigestHours) * time.Hour
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
}

// Validate checks settings shared by every entry point.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite or mysql, got %q", c.DatabaseDriver)
	}
	if c.DatabaseDriver == "mysql" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for mysql")
	}
	if c.DigestTime != "" {
		if _, err := service.BuildDailySpec(c.DigestTime); err != nil {
			return fmt.Errorf("DIGEST_TIME: %w", err)
		}
	}
	if c.DigestHours < 0 {
		return fmt.Errorf("DIGEST_INTERVAL_HOURS must not be negative")
	}
	if c.Namespace != "" {
		if err := ValidateNamespace(c.Namespace); err != nil {
			return fmt.Errorf("TODO_NAMESPACE: %w", err)
		}
	}
	return nil
}

// ValidateNamespace rejects names that would nest inside another namespace.
func ValidateNamespace(namespace string) error {
	if strings.TrimSpace(namespace) == "" {
		return fmt.Errorf("namespace is empty")
	}
	if strings.Contains(namespace, "/") {
		return fmt.Errorf("namespace %q must not contain '/'", namespace)
	}
	return nil
}

// RequireBot checks the settings only the bot needs.
func (c Config) RequireBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}
