package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-agenda/internal/agenda"
	"github.com/wolfman30/clinic-agenda/internal/observability/metrics"
	"github.com/wolfman30/clinic-agenda/internal/schedule"
	"github.com/wolfman30/clinic-agenda/internal/settings"
	"github.com/wolfman30/clinic-agenda/pkg/logging"
)

type testEnv struct {
	router http.Handler
	redis  *miniredis.Miniredis
}

func newTestRouter(t *testing.T, mutate func(*Config)) testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	repo := settings.NewRedisRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	logger := logging.New("error")
	reg := prometheus.NewRegistry()

	cache := agenda.NewCache(repo,
		agenda.WithLogger(logger),
		agenda.WithMetrics(metrics.NewAgendaMetrics(reg)),
	)
	svc := agenda.NewService(cache, time.UTC)

	cfg := &Config{
		Logger:          logger,
		AgendaHandler:   agenda.NewHandler(svc, cache, logger),
		SettingsHandler: settings.NewHandler(repo, logger),
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Readiness:       repo.Ping,
	}
	if mutate != nil {
		mutate(cfg)
	}
	return testEnv{router: New(cfg), redis: mr}
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthEndpoint(t *testing.T) {
	env := newTestRouter(t, nil)

	rr := do(env.router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterReadiness(t *testing.T) {
	env := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, do(env.router, http.MethodGet, "/ready", "").Code)

	env.redis.Close()
	assert.Equal(t, http.StatusServiceUnavailable, do(env.router, http.MethodGet, "/ready", "").Code)
}

func TestRouterAgendaRoundTripThroughSettings(t *testing.T) {
	env := newTestRouter(t, nil)

	rr := do(env.router, http.MethodPut, "/clinics/c1/agenda", `{"appointment_interval_minutes":30,"active_days":[1,2,3]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(env.router, http.MethodGet, "/clinic-settings/clinic/c1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var stored []settings.Setting
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stored))
	values := map[string]string{}
	for _, s := range stored {
		values[s.Key] = s.Value
	}
	assert.Equal(t, map[string]string{"appointmentIntervalMinutes": "30", "activeDays": "[1,2,3]"}, values)

	rr = do(env.router, http.MethodGet, "/clinics/c1/agenda", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var cfg schedule.Config
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&cfg))
	assert.Equal(t, 30, cfg.AppointmentIntervalMinutes)
	assert.Equal(t, []int{1, 2, 3}, cfg.ActiveDays)
}

func TestRouterExposesMetrics(t *testing.T) {
	env := newTestRouter(t, nil)
	do(env.router, http.MethodGet, "/clinics/c1/agenda", "")

	rr := do(env.router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "clinic_agenda_config_lookups_total")
}

func TestRouterSettingsAPIOptional(t *testing.T) {
	env := newTestRouter(t, func(cfg *Config) { cfg.SettingsHandler = nil })
	assert.Equal(t, http.StatusNotFound, do(env.router, http.MethodGet, "/clinic-settings/clinic/c1", "").Code)
}

func TestRouterRateLimit(t *testing.T) {
	env := newTestRouter(t, func(cfg *Config) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 1
	})

	assert.Equal(t, http.StatusOK, do(env.router, http.MethodGet, "/clinics/c1/agenda", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(env.router, http.MethodGet, "/clinics/c1/agenda", "").Code)
	assert.Equal(t, http.StatusOK, do(env.router, http.MethodGet, "/health", "").Code, "health is not rate limited")
}

func TestRouterCORS(t *testing.T) {
	env := newTestRouter(t, func(cfg *Config) { cfg.CORSAllowedOrigins = []string{"https://agenda.example.com"} })

	req := httptest.NewRequest(http.MethodOptions, "/clinics/c1/agenda", nil)
	req.Header.Set("Origin", "https://agenda.example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://agenda.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}
