package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server         ServerConfig
	App            AppConfig
	ProjectService ProjectServiceConfig
	Session        SessionConfig
	Audit          AuditConfig
}

type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

type AppConfig struct {
	Environment      string
	LogLevel         string
	LogFormat        string
	Version          string
	DefaultArtisanID int64
}

type ProjectServiceConfig struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// SessionConfig selects the console state store. An empty RedisURL keeps
// sessions in process memory.
type SessionConfig struct {
	RedisURL string
	TTL      time.Duration
}

// AuditConfig enables the Postgres action log when DSN is set.
type AuditConfig struct {
	DSN           string
	RetentionDays int
}

func (c AuditConfig) Enabled() bool { return c.DSN != "" }

func (c AuditConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		App: AppConfig{
			Environment:      getEnv("APP_ENV", "development"),
			LogLevel:         getEnv("LOG_LEVEL", "info"),
			LogFormat:        getEnv("LOG_FORMAT", "text"),
			Version:          getEnv("APP_VERSION", "1.0.0"),
			DefaultArtisanID: int64(getEnvAsInt("DEFAULT_ARTISAN_ID", 1)),
		},
		ProjectService: ProjectServiceConfig{
			BaseURL: getEnv("PROJECT_SERVICE_URL", "http://localhost:8081/api"),
			Timeout: getEnvAsDuration("PROJECT_SERVICE_TIMEOUT", 10*time.Second),
			RPS:     getEnvAsFloat("PROJECT_SERVICE_RPS", 0),
			Burst:   getEnvAsInt("PROJECT_SERVICE_BURST", 10),
		},
		Session: SessionConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTL:      getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		Audit: AuditConfig{
			DSN:           getEnv("DB_DSN", ""),
			RetentionDays: getEnvAsInt("AUDIT_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	u, err := url.Parse(c.ProjectService.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("PROJECT_SERVICE_URL must be an absolute URL, got %q", c.ProjectService.BaseURL)
	}

	if c.ProjectService.Timeout <= 0 {
		return fmt.Errorf("PROJECT_SERVICE_TIMEOUT must be positive")
	}

	if c.ProjectService.RPS < 0 {
		return fmt.Errorf("PROJECT_SERVICE_RPS must not be negative")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.App.DefaultArtisanID <= 0 {
		return fmt.Errorf("DEFAULT_ARTISAN_ID must be positive")
	}

	if c.Audit.Enabled() && c.Audit.RetentionDays <= 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must be positive when DB_DSN is set")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		slog.Warn("invalid number, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
