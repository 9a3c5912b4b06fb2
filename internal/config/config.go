package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings backends.
const (
	BackendHTTP     = "http"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Settings storage
	SettingsBackend  string
	SettingsBaseURL  string
	SettingsAPIToken string
	SettingsTimeout  time.Duration
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool

	ClinicTimezone string
	// EnforceActiveDays rejects booking dates outside each clinic's active days.
	EnforceActiveDays bool

	// HTTP surface
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	ServeSettingsAPI   bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SettingsBackend:  strings.ToLower(strings.TrimSpace(getEnv("SETTINGS_BACKEND", BackendHTTP))),
		SettingsBaseURL:  strings.TrimRight(getEnv("SETTINGS_BASE_URL", ""), "/"),
		SettingsAPIToken: getEnv("SETTINGS_API_TOKEN", ""),
		SettingsTimeout:  getEnvAsDuration("SETTINGS_TIMEOUT", 10*time.Second),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisAddr:        getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),

		ClinicTimezone:    getEnv("CLINIC_TIMEZONE", "America/Sao_Paulo"),
		EnforceActiveDays: getEnvAsBool("ENFORCE_ACTIVE_DAYS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 40),
		ServeSettingsAPI:   getEnvAsBool("SERVE_SETTINGS_API", false),
	}
}

// LoadDotEnv loads variables from the given files (".env" when none) without
// overriding variables already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// Validate reports missing settings required by the selected backend.
func (c *Config) Validate() error {
	switch c.SettingsBackend {
	case BackendHTTP:
		if c.SettingsBaseURL == "" {
			return errors.New("config: SETTINGS_BASE_URL is required for the http backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR is required for the redis backend")
		}
	default:
		return errors.New("config: SETTINGS_BACKEND must be http, postgres or redis")
	}
	if _, err := time.LoadLocation(c.ClinicTimezone); err != nil {
		return errors.New("config: invalid CLINIC_TIMEZONE " + c.ClinicTimezone)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
