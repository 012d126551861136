package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getHealth(t *testing.T, h http.Handler, path string) (int, HealthResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w.Code, resp
}

func checkWith(status HealthStatus) HealthChecker {
	return func(context.Context) HealthCheck { return HealthCheck{Status: status} }
}

func TestHealthServer_ReadyAndLive(t *testing.T) {
	s := NewHealthServer(nil)
	h := s.Handler()

	code, resp := getHealth(t, h, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, HealthStatusUnhealthy, resp.Status)

	s.SetReady(true)
	code, _ = getHealth(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, code)

	code, _ = getHealth(t, h, "/live")
	assert.Equal(t, http.StatusOK, code)
	s.SetLive(false)
	code, _ = getHealth(t, h, "/livez")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHealthServer_AggregatesChecks(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthStatus
		code   int
		want   HealthStatus
	}{
		{"no checks", nil, http.StatusOK, HealthStatusHealthy},
		{"all healthy", map[string]HealthStatus{"a": HealthStatusHealthy, "b": HealthStatusHealthy}, http.StatusOK, HealthStatusHealthy},
		{"degraded", map[string]HealthStatus{"a": HealthStatusHealthy, "b": HealthStatusDegraded}, http.StatusOK, HealthStatusDegraded},
		{"unhealthy wins", map[string]HealthStatus{"a": HealthStatusUnhealthy, "b": HealthStatusDegraded}, http.StatusServiceUnavailable, HealthStatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewHealthServer(&HealthConfig{Version: "1.2.3"})
			for name, status := range tt.checks {
				s.RegisterCheck(name, checkWith(status))
			}
			code, resp := getHealth(t, s.Handler(), "/healthz")
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.want, resp.Status)
			assert.Equal(t, "1.2.3", resp.Version)
			assert.Len(t, resp.Checks, len(tt.checks))
		})
	}
}

func TestHealthServer_ChecksSortedByName(t *testing.T) {
	s := NewHealthServer(nil)
	s.RegisterCheck("temporal", checkWith(HealthStatusHealthy))
	s.RegisterCheck("formatter", checkWith(HealthStatusHealthy))
	s.RegisterCheck("graph", checkWith(HealthStatusHealthy))

	_, resp := getHealth(t, s.Handler(), "/health")
	var names []string
	for _, c := range resp.Checks {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"formatter", "graph", "temporal"}, names)
}

func TestHealthServer_ShutdownTwice(t *testing.T) {
	s := NewHealthServer(nil)
	s.Shutdown()
	assert.NotPanics(t, s.Shutdown)
}

func TestFormatterHealthChecker(t *testing.T) {
	ok := FormatterHealthChecker(func() error { return nil })(context.Background())
	assert.Equal(t, HealthStatusHealthy, ok.Status)

	missing := FormatterHealthChecker(func() error { return errors.New("clang-format not found") })(context.Background())
	assert.Equal(t, HealthStatusDegraded, missing.Status)
	assert.Contains(t, missing.Message, "clang-format not found")
}

func TestGraphStoreHealthChecker(t *testing.T) {
	ok := GraphStoreHealthChecker("neo4j://db", func(context.Context) error { return nil })(context.Background())
	assert.Equal(t, HealthStatusHealthy, ok.Status)
	assert.Equal(t, "neo4j://db", ok.Details["uri"])

	down := GraphStoreHealthChecker("neo4j://db", func(context.Context) error { return errors.New("refused") })(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, down.Status)
	assert.Contains(t, down.Message, "refused")
}

func TestTemporalHealthChecker(t *testing.T) {
	ok := TemporalHealthChecker(func(context.Context) error { return nil })(context.Background())
	assert.Equal(t, HealthStatusHealthy, ok.Status)

	down := TemporalHealthChecker(func(context.Context) error { return errors.New("timeout") })(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, down.Status)
}
