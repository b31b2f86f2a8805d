// Package config reads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the process configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Log      LogConfig
	Query    QueryConfig
}

// DatabaseConfig locates the report store.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Listen string
}

// LogConfig selects log level and output style.
type LogConfig struct {
	Level string
	Color bool
}

// QueryConfig points at the query service and bounds what is fetched.
type QueryConfig struct {
	URL         string
	Concurrency int
	RowLimit    int
}

var ErrDatabaseRequired = errors.New("CANVAS_DB_DSN is required")

// Load reads the given .env files (".env" when none) if present, then the
// CANVAS_* environment variables. Variables already set win over files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver: getEnvOrDefault("CANVAS_DB_DRIVER", "postgres"),
			DSN:    os.Getenv("CANVAS_DB_DSN"),
		},
		Server: ServerConfig{
			Listen: getEnvOrDefault("CANVAS_LISTEN", ":8080"),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("CANVAS_LOG_LEVEL", "info"),
		},
		Query: QueryConfig{
			URL: os.Getenv("CANVAS_QUERY_URL"),
		},
	}

	var err error
	if cfg.Log.Color, err = getEnvBool("CANVAS_LOG_COLOR", false); err != nil {
		return nil, err
	}
	if cfg.Query.Concurrency, err = getEnvInt("CANVAS_QUERY_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.Query.RowLimit, err = getEnvInt("CANVAS_ROW_LIMIT", 1000); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges. The database DSN is checked separately by
// RequireDatabase since not every command needs it.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "err", "error", "warn", "warning", "info", "debug":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Query.Concurrency <= 0 {
		return fmt.Errorf("query concurrency must be positive, got %d", c.Query.Concurrency)
	}
	if c.Query.RowLimit < 0 {
		return fmt.Errorf("row limit must not be negative, got %d", c.Query.RowLimit)
	}
	return nil
}

// RequireDatabase fails when no DSN is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.DSN == "" {
		return ErrDatabaseRequired
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
