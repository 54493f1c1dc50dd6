// Package config loads all runtime settings from environment variables,
// applying defaults where unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for every binary in the platform.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
	Cache    CacheConfig
	Logging  LoggingConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds Postgres connection settings, used by the ingester and
// migration binaries.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DataConfig points at the on-disk data files. CSVPath, when set, is tried
// first; the candidate list covers the layouts the report file has shipped
// in.
type DataConfig struct {
	CSVPath     string
	GeoJSONPath string
	UploadDir   string
}

// CSVCandidates returns the ordered paths to probe for the report CSV.
func (d DataConfig) CSVCandidates() []string {
	return []string{
		d.CSVPath,
		"data/ingris_report.csv",
		"backend/data/ingris_report.csv",
		"ingris_report.csv",
	}
}

// CacheConfig sets the aggregate cache TTLs.
type CacheConfig struct {
	StateTTL    time.Duration
	OverviewTTL time.Duration
}

// LoggingConfig sets log verbosity.
type LoggingConfig struct {
	Level string
}

// CORSConfig lists the origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         envOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         envInt("SERVER_PORT", 8080),
			ReadTimeout:  envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  envDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            envOrDefault("DB_HOST", "localhost"),
			Port:            envInt("DB_PORT", 5432),
			User:            envOrDefault("DB_USER", "postgres"),
			Password:        envOrDefault("DB_PASSWORD", "postgres"),
			Database:        envOrDefault("DB_NAME", "groundwater"),
			SSLMode:         envOrDefault("DB_SSLMODE", "disable"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: envDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Data: DataConfig{
			CSVPath:     os.Getenv("INGRIS_CSV"),
			GeoJSONPath: envOrDefault("INGRIS_GEOJSON", "data/india_districts.geojson"),
			UploadDir:   envOrDefault("UPLOAD_DIR", "uploads"),
		},
		Cache: CacheConfig{
			StateTTL:    envDuration("CACHE_STATE_TTL", time.Hour),
			OverviewTTL: envDuration("CACHE_OVERVIEW_TTL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level: envOrDefault("LOG_LEVEL", "info"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(envOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		},
	}

	return cfg, nil
}

// Validate rejects configurations that cannot possibly work.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.Database.MaxOpenConns)
	}
	if c.Cache.StateTTL <= 0 || c.Cache.OverviewTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
