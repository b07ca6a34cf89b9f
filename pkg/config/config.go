// Package config loads service configuration from the environment and optional files.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Ingestion modes.
const (
	IngestModeSavepoint   = "savepoint"
	IngestModeIndependent = "independent"
)

// Config groups application configuration.
type Config struct {
	App    AppConfig
	DB     DBConfig
	HTTP   HTTPConfig
	Ingest IngestConfig
}

// AppConfig holds general settings.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	Storage  string // postgres, memory
}

// IsDevelopment reports whether the service runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// DBConfig holds PostgreSQL settings.
// DatabaseURL, when set, takes precedence over the individual fields.
type DBConfig struct {
	DatabaseURL      string
	Host             string
	Port             int
	User             string
	Password         string
	DBName           string
	SSLMode          string
	MaxConns         int
	MinConns         int
	AutoMigrate      bool
	StatementTimeout time.Duration
}

// ConnectionString returns DatabaseURL if present, otherwise the DSN built from fields.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN builds a postgres URL with the password escaped.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// Addr returns host:port.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IngestConfig holds batch ingestion settings.
type IngestConfig struct {
	MaxErrors   int
	Mode        string
	MaxUploadMB int
}

// Load reads configuration from environment variables, which take priority,
// and optionally from .env or config.yaml in the working directory.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.MergeInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "palletledger"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
			Storage:  strings.ToLower(getString(v, "STORAGE_DRIVER", DriverPostgres)),
		},
		DB: DBConfig{
			DatabaseURL:      getString(v, "DATABASE_URL", ""),
			Host:             getString(v, "DB_HOST", "localhost"),
			Port:             getInt(v, "DB_PORT", 5432),
			User:             getString(v, "DB_USER", "postgres"),
			Password:         getString(v, "DB_PASSWORD", ""),
			DBName:           getString(v, "DB_NAME", "palletledger"),
			SSLMode:          getString(v, "DB_SSLMODE", "disable"),
			MaxConns:         getInt(v, "DB_MAX_CONNS", 25),
			MinConns:         getInt(v, "DB_MIN_CONNS", 2),
			AutoMigrate:      getBool(v, "DB_AUTO_MIGRATE", true),
			StatementTimeout: getDuration(v, "DB_STATEMENT_TIMEOUT", 30*time.Second),
		},
		HTTP: HTTPConfig{
			Host:            getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:            getInt(v, "HTTP_PORT", 8080),
			ShutdownTimeout: getDuration(v, "HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Ingest: IngestConfig{
			MaxErrors:   getInt(v, "INGEST_MAX_ERRORS", 50),
			Mode:        strings.ToLower(getString(v, "INGEST_MODE", IngestModeSavepoint)),
			MaxUploadMB: getInt(v, "INGEST_MAX_UPLOAD_MB", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and non-positive limits.
func (c *Config) Validate() error {
	switch c.App.Storage {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.App.Storage)
	}
	switch c.Ingest.Mode {
	case IngestModeSavepoint, IngestModeIndependent:
	default:
		return fmt.Errorf("unknown INGEST_MODE %q", c.Ingest.Mode)
	}
	if c.Ingest.MaxErrors <= 0 {
		return fmt.Errorf("INGEST_MAX_ERRORS must be positive, got %d", c.Ingest.MaxErrors)
	}
	if c.Ingest.MaxUploadMB <= 0 {
		return fmt.Errorf("INGEST_MAX_UPLOAD_MB must be positive, got %d", c.Ingest.MaxUploadMB)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		return v.GetInt(key)
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		return v.GetDuration(key)
	}
	return def
}
