package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "SETTINGS_BACKEND", "SETTINGS_TIMEOUT", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RPS", "CLINIC_TIMEZONE", "ENFORCE_ACTIVE_DAYS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.SettingsBackend != BackendHTTP {
		t.Fatalf("expected http backend by default, got %s", cfg.SettingsBackend)
	}
	if cfg.SettingsTimeout != 10*time.Second {
		t.Fatalf("expected default settings timeout, got %s", cfg.SettingsTimeout)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 20 {
		t.Fatalf("expected default rate limit, got %v", cfg.RateLimitRPS)
	}
	if cfg.ClinicTimezone != "America/Sao_Paulo" {
		t.Fatalf("expected default timezone, got %s", cfg.ClinicTimezone)
	}
	if cfg.EnforceActiveDays {
		t.Fatalf("expected active-day gating off by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SETTINGS_BACKEND", " Postgres ")
	t.Setenv("SETTINGS_BASE_URL", "https://api.example.com/")
	t.Setenv("SETTINGS_TIMEOUT", "3s")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("SERVE_SETTINGS_API", "true")
	t.Setenv("ENFORCE_ACTIVE_DAYS", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.SettingsBackend != BackendPostgres {
		t.Fatalf("expected postgres backend, got %q", cfg.SettingsBackend)
	}
	if cfg.SettingsBaseURL != "https://api.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.SettingsBaseURL)
	}
	if cfg.SettingsTimeout != 3*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.SettingsTimeout)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != 5 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if !cfg.ServeSettingsAPI {
		t.Fatalf("expected settings api enabled")
	}
	if !cfg.EnforceActiveDays {
		t.Fatalf("expected active-day gating enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"http ok", Config{SettingsBackend: BackendHTTP, SettingsBaseURL: "http://x", ClinicTimezone: "UTC"}, false},
		{"http missing url", Config{SettingsBackend: BackendHTTP, ClinicTimezone: "UTC"}, true},
		{"postgres missing dsn", Config{SettingsBackend: BackendPostgres, ClinicTimezone: "UTC"}, true},
		{"redis ok", Config{SettingsBackend: BackendRedis, RedisAddr: "localhost:6379", ClinicTimezone: "UTC"}, false},
		{"unknown backend", Config{SettingsBackend: "mongo", ClinicTimezone: "UTC"}, true},
		{"bad timezone", Config{SettingsBackend: BackendRedis, RedisAddr: "r:6379", ClinicTimezone: "Mars/Base"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("AGENDA_DOTENV_PROBE=from-file\nPORT=1111\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "2222")
	t.Setenv("AGENDA_DOTENV_PROBE", "")
	os.Unsetenv("AGENDA_DOTENV_PROBE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("AGENDA_DOTENV_PROBE"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("PORT"); got != "2222" {
		t.Fatalf("existing variables must win, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}
