package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/efebarandurmaz/refinery/internal/observability"
	"github.com/efebarandurmaz/refinery/internal/pipeline"
)

// APIConfig configures the optimization API.
type APIConfig struct {
	MaxBodyBytes int64
	// RateLimit is requests per minute per client; 0 disables limiting.
	RateLimit   int
	CORSOrigins []string
	// TrustedProxies may set the client address via X-Forwarded-For.
	TrustedProxies []netip.Prefix
}

// API serves the optimization endpoints.
type API struct {
	pipeline *pipeline.Pipeline
	metrics  *observability.OptimizerMetrics
	health   *HealthServer
	config   APIConfig
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LanguagesResponse lists the supported languages.
type LanguagesResponse struct {
	Languages []string `json:"languages"`
}

// NewAPI creates the API. metrics and health may be nil.
func NewAPI(p *pipeline.Pipeline, metrics *observability.OptimizerMetrics, health *HealthServer, config APIConfig) *API {
	return &API{pipeline: p, metrics: metrics, health: health, config: config}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /optimize", a.handleOptimize)
	mux.HandleFunc("POST /optimize/{language}", a.handleOptimize)
	mux.HandleFunc("GET /languages", a.handleLanguages)
	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics.Handler())
	}
	if a.health != nil {
		h := a.health.Handler()
		for _, path := range HealthPaths {
			mux.Handle("GET "+path, h)
		}
	}

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(a.config.MaxBodyBytes, handler)
	if a.config.RateLimit > 0 {
		handler = newRateLimiter(a.config.RateLimit, a.config.TrustedProxies).middleware(handler)
	}
	handler = corsMiddleware(a.config.CORSOrigins, handler)
	handler = loggingMiddleware(handler)
	return requestIDMiddleware(handler)
}

// handleOptimize handles POST /optimize and POST /optimize/{language}.
// The path segment wins over the body's language field.
func (a *API) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	fromPath := r.PathValue("language")
	if fromPath != "" {
		req.Language = fromPath
	}

	res, err := a.pipeline.Run(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound && fromPath == "" {
			status = http.StatusBadRequest
		}
		if status == http.StatusInternalServerError {
			slog.Error("Optimization failed", "request_id", RequestID(r.Context()), "error", err)
			writeError(w, status, "internal error")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleLanguages handles GET /languages.
func (a *API) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LanguagesResponse{Languages: a.pipeline.Languages()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrUnsupportedLanguage):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrFormat):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
