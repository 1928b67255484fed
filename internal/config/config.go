package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"psycdata/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Database DatabaseConfig
	Export   ExportConfig
	LogLevel string
}

// ServerConfig holds the window host settings
type ServerConfig struct {
	Port    string
	GinMode string
	BaseURL string
}

// BackendConfig selects between the in-process backend and a remote one
type BackendConfig struct {
	URL            string // empty: in-process backend
	Port           string // port for cmd/backend
	MaxConcurrent  int64
	RequestTimeout time.Duration
}

// DatabaseConfig holds the optional export history store
type DatabaseConfig struct {
	URL    string // empty disables export history
	Driver string // derived: postgres or sqlite
	DSN    string // driver specific connection string
}

// ExportConfig holds export defaults
type ExportConfig struct {
	BOM     bool
	Newline string // "\r\n" or "\n"
	Dir     string
}

// Enabled reports whether export history should be persisted
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// Remote reports whether backend calls go over HTTP
func (b BackendConfig) Remote() bool { return b.URL != "" }

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Backend:  *loadBackendConfig(),
		Export:   *loadExportConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	port := getEnvOrDefault("PORT", "8080")
	return &ServerConfig{
		Port:    port,
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
		BaseURL: getEnvOrDefault("BASE_URL", "http://localhost:"+port),
	}
}

func loadBackendConfig() *BackendConfig {
	return &BackendConfig{
		URL:            strings.TrimRight(getEnvOrDefault("BACKEND_URL", ""), "/"),
		Port:           getEnvOrDefault("BACKEND_PORT", "8090"),
		MaxConcurrent:  int64(getEnvIntOrDefault("MAX_CONCURRENT_ANALYSES", 4)),
		RequestTimeout: getEnvDurationOrDefault("BACKEND_TIMEOUT", 0),
	}
}

func loadExportConfig() *ExportConfig {
	newline := "\r\n"
	if strings.EqualFold(getEnvOrDefault("EXPORT_NEWLINE", "crlf"), "lf") {
		newline = "\n"
	}
	return &ExportConfig{
		BOM:     getEnvBoolOrDefault("EXPORT_BOM", true),
		Newline: newline,
		Dir:     getEnvOrDefault("EXPORT_DIR", ""),
	}
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	raw := getEnvOrDefault("DATABASE_URL", "")
	if raw == "" {
		return &DatabaseConfig{}, nil
	}
	driver, dsn, err := ParseDatabaseURL(raw)
	if err != nil {
		return nil, err
	}
	return &DatabaseConfig{URL: raw, Driver: driver, DSN: dsn}, nil
}

// ParseDatabaseURL maps DATABASE_URL onto a sql driver name and DSN.
// postgres:// and postgresql:// go to lib/pq unchanged; sqlite://path and
// file: URLs go to modernc sqlite.
func ParseDatabaseURL(raw string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		if _, perr := url.Parse(raw); perr != nil {
			return "", "", errors.ConfigInvalid("DATABASE_URL is not a valid URL: " + perr.Error())
		}
		return "postgres", raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if path == "" {
			return "", "", errors.ConfigInvalid("DATABASE_URL sqlite path is empty")
		}
		return "sqlite", path, nil
	case strings.HasPrefix(raw, "file:"):
		return "sqlite", raw, nil
	default:
		return "", "", errors.ConfigInvalid("DATABASE_URL must start with postgres://, sqlite:// or file:")
	}
}

func validateConfig(config *Config) error {
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric")
	}
	if _, err := strconv.Atoi(config.Backend.Port); err != nil {
		return errors.ConfigInvalid("BACKEND_PORT must be numeric")
	}
	if config.Backend.MaxConcurrent < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT_ANALYSES must be at least 1")
	}
	if config.Backend.URL != "" {
		u, err := url.Parse(config.Backend.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.ConfigInvalid("BACKEND_URL must be an absolute URL")
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
