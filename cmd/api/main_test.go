package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-agenda/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-agenda/internal/config"
	"github.com/wolfman30/clinic-agenda/internal/settings"
	"github.com/wolfman30/clinic-agenda/pkg/logging"
)

func redisBackend(t *testing.T) *bootstrap.SettingsBackend {
	t.Helper()
	mr := miniredis.RunT(t)
	repo := settings.NewRedisRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return &bootstrap.SettingsBackend{Name: appconfig.BackendRedis, Source: repo, Ping: repo.Ping, Close: func() {}}
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestSetupMetricsExposesAgendaMetrics(t *testing.T) {
	handler, agendaMetrics := setupMetrics(prometheus.NewRegistry())
	require.NotNil(t, handler)
	require.NotNil(t, agendaMetrics)

	agendaMetrics.ObserveLookup(true)

	rr := get(handler, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, "clinic_agenda_config_lookups_total"), "agenda counter exported")
	assert.True(t, strings.Contains(body, "go_goroutines"), "go collector exported")
}

func TestBuildHandlerServesAgenda(t *testing.T) {
	cfg := &appconfig.Config{
		SettingsBackend:  appconfig.BackendRedis,
		ClinicTimezone:   "America/Sao_Paulo",
		ServeSettingsAPI: true,
	}
	h, err := buildHandler(cfg, redisBackend(t), logging.New("error"), prometheus.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(h, "/health").Code)
	assert.Equal(t, http.StatusOK, get(h, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(h, "/clinics/c1/agenda").Code)
	assert.Equal(t, http.StatusOK, get(h, "/clinic-settings/clinic/c1").Code)
}

func TestBuildHandlerEnforceActiveDays(t *testing.T) {
	// 2100-10-22 is a Friday, outside the default active days.
	const friday = "/clinics/c1/agenda/slots?date=2100-10-22"
	open, err := buildHandler(&appconfig.Config{ClinicTimezone: "UTC"}, redisBackend(t), logging.New("error"), prometheus.NewRegistry())
	require.NoError(t, err)
	rr := get(open, friday)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"valid":true`)

	gated, err := buildHandler(&appconfig.Config{ClinicTimezone: "UTC", EnforceActiveDays: true}, redisBackend(t), logging.New("error"), prometheus.NewRegistry())
	require.NoError(t, err)
	rr = get(gated, friday)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"inactive_day"`)
}

func TestBuildHandlerSettingsAPIDisabledForHTTPBackend(t *testing.T) {
	cfg := &appconfig.Config{
		SettingsBackend:  appconfig.BackendHTTP,
		ClinicTimezone:   "UTC",
		ServeSettingsAPI: true,
	}
	h, err := buildHandler(cfg, redisBackend(t), logging.New("error"), prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, get(h, "/clinic-settings/clinic/c1").Code)
}

func TestBuildHandlerErrors(t *testing.T) {
	_, err := buildHandler(&appconfig.Config{ClinicTimezone: "UTC"}, nil, logging.New("error"), prometheus.NewRegistry())
	assert.Error(t, err)

	_, err = buildHandler(&appconfig.Config{ClinicTimezone: "Nowhere/Land"}, redisBackend(t), logging.New("error"), prometheus.NewRegistry())
	assert.Error(t, err)
}
