package bootstrap

import (
	"context"
	"fmt"

	appconfig "github.com/wolfman30/clinic-agenda/internal/config"
	"github.com/wolfman30/clinic-agenda/internal/settings"
	"github.com/wolfman30/clinic-agenda/pkg/logging"
)

// SettingsBackend is the settings source selected by SETTINGS_BACKEND plus
// its readiness check and cleanup.
type SettingsBackend struct {
	Name   string
	Source settings.Source
	// Ping is nil when the backend has no cheap health check.
	Ping  func(ctx context.Context) error
	Close func()
}

// BuildSettingsBackend wires the configured settings source.
func BuildSettingsBackend(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*SettingsBackend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.SettingsBackend {
	case appconfig.BackendHTTP:
		client, err := settings.NewClient(settings.ClientConfig{
			BaseURL:  cfg.SettingsBaseURL,
			APIToken: cfg.SettingsAPIToken,
			Timeout:  cfg.SettingsTimeout,
			Logger:   logger.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: settings client: %w", err)
		}
		logger.Info("using remote settings api", "base_url", cfg.SettingsBaseURL)
		return &SettingsBackend{Name: cfg.SettingsBackend, Source: client, Close: func() {}}, nil

	case appconfig.BackendPostgres:
		pool, err := BuildPostgresPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if pool == nil {
			return nil, fmt.Errorf("bootstrap: DATABASE_URL is required for the postgres backend")
		}
		repo := settings.NewPostgresRepository(pool)
		return &SettingsBackend{Name: cfg.SettingsBackend, Source: repo, Ping: repo.Ping, Close: pool.Close}, nil

	case appconfig.BackendRedis:
		client, err := BuildRedisClient(ctx, cfg, logger, true)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, fmt.Errorf("bootstrap: REDIS_ADDR is required for the redis backend")
		}
		repo := settings.NewRedisRepository(client)
		return &SettingsBackend{
			Name:   cfg.SettingsBackend,
			Source: repo,
			Ping:   repo.Ping,
			Close:  func() { _ = client.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("bootstrap: unknown settings backend %q", cfg.SettingsBackend)
	}
}
