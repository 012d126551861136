package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/refinery/internal/format"
	"github.com/efebarandurmaz/refinery/internal/observability"
	"github.com/efebarandurmaz/refinery/internal/pipeline"
	"github.com/efebarandurmaz/refinery/internal/plugins"
	cplugin "github.com/efebarandurmaz/refinery/internal/plugins/source/c"
	"github.com/efebarandurmaz/refinery/internal/syntax/syntaxtest"
)

const foldSource = "int g() { return 2 + 3; }"

const foldProgram = `(translation_unit (function_definition primitive_type:int function_declarator:"g()"
	(compound_statement "{" (return_statement "return" (binary_expression number_literal:2 "+" number_literal:3) ";") "}")))`

type failingFormatter struct{}

func (failingFormatter) Format(context.Context, string, string) (string, error) {
	return "", errors.New("formatter crashed")
}

func newTestAPI(t *testing.T, f format.Formatter, cfg APIConfig) (*API, *observability.OptimizerMetrics) {
	t.Helper()
	registry := plugins.NewRegistry()
	registry.Register(cplugin.New())
	m := observability.NewOptimizerMetrics()
	p := pipeline.New(syntaxtest.NewProvider(t, map[string]string{foldSource: foldProgram}), f, registry, pipeline.WithMetrics(m))
	health := NewHealthServer(nil)
	health.SetReady(true)
	return NewAPI(p, m, health, cfg), m
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAPI_Optimize(t *testing.T) {
	api, _ := newTestAPI(t, nil, APIConfig{})
	w := do(api.Handler(), http.MethodPost, "/optimize", `{"code":"int g() { return 2 + 3; }","language":"c"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		OriginalCode  string `json:"originalCode"`
		OptimizedCode string `json:"optimizedCode"`
		Stats         struct {
			Folded int `json:"folded"`
		} `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "int g(){return 2+3;}", res.OriginalCode)
	assert.Equal(t, "int g(){return 5;}", res.OptimizedCode)
	assert.Equal(t, 1, res.Stats.Folded)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAPI_OptimizeLanguageRoute(t *testing.T) {
	api, _ := newTestAPI(t, nil, APIConfig{})
	h := api.Handler()

	w := do(h, http.MethodPost, "/optimize/c", `{"code":"int g() { return 2 + 3; }","language":"java"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(h, http.MethodPost, "/optimize/cobol", `{"code":"int g() { return 2 + 3; }"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_OptimizeErrors(t *testing.T) {
	tests := []struct {
		name      string
		formatter format.Formatter
		body      string
		code      int
		contains  string
	}{
		{"bad json", nil, `{"code":`, http.StatusBadRequest, "invalid JSON"},
		{"empty code", nil, `{"code":"","language":"c"}`, http.StatusBadRequest, "code is empty"},
		{"unknown language in body", nil, `{"code":"x","language":"cobol"}`, http.StatusBadRequest, "unsupported language"},
		{"parse error", nil, `{"code":"int main( {","language":"c"}`, http.StatusUnprocessableEntity, "c:1:1: syntax error"},
		{"format error", failingFormatter{}, `{"code":"int g() { return 2 + 3; }","language":"c"}`, http.StatusBadGateway, "formatter crashed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, _ := newTestAPI(t, tt.formatter, APIConfig{})
			w := do(api.Handler(), http.MethodPost, "/optimize", tt.body)
			assert.Equal(t, tt.code, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Contains(t, resp.Error, tt.contains)
		})
	}
}

func TestAPI_BodyLimit(t *testing.T) {
	api, _ := newTestAPI(t, nil, APIConfig{MaxBodyBytes: 16})
	w := do(api.Handler(), http.MethodPost, "/optimize", `{"code":"int g() { return 2 + 3; }","language":"c"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAPI_RateLimit(t *testing.T) {
	api, _ := newTestAPI(t, nil, APIConfig{RateLimit: 2})
	h := api.Handler()

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/languages", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/languages", "").Code)
	w := do(h, http.MethodGet, "/languages", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestAPI_Languages(t *testing.T) {
	api, _ := newTestAPI(t, nil, APIConfig{})
	w := do(api.Handler(), http.MethodGet, "/languages", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp LanguagesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"c"}, resp.Languages)
}

func TestAPI_Metrics(t *testing.T) {
	api, _ := newTestAPI(t, nil, APIConfig{})
	h := api.Handler()
	do(h, http.MethodPost, "/optimize", `{"code":"int g() { return 2 + 3; }","language":"c"}`)

	w := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "refinery_requests_total 1")
	assert.Contains(t, w.Body.String(), "refinery_folded_total 1")
}

func TestAPI_HealthRoutes(t *testing.T) {
	api, _ := newTestAPI(t, nil, APIConfig{})
	h := api.Handler()
	for _, path := range HealthPaths {
		assert.Equal(t, http.StatusOK, do(h, http.MethodGet, path, "").Code, path)
	}
}

func TestAPI_CORS(t *testing.T) {
	api, _ := newTestAPI(t, nil, APIConfig{CORSOrigins: []string{"https://app.example"}})
	h := api.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/optimize", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/languages", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_KeepsCallerRequestID(t *testing.T) {
	api, _ := newTestAPI(t, nil, APIConfig{})
	req := httptest.NewRequest(http.MethodGet, "/languages", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
