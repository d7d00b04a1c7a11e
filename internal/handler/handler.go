package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/young1lin/zaatar/internal/config"
	"github.com/young1lin/zaatar/internal/models"
	"github.com/young1lin/zaatar/internal/search"
	"github.com/young1lin/zaatar/pkg/logger"
)

// Fetcher retrieves a page and extracts its readable content
type Fetcher interface {
	Fetch(ctx context.Context, req models.FetchRequest) (*models.FetchResponse, error)
}

// Summarizer turns a query and its results into a short answer
type Summarizer interface {
	Summarize(ctx context.Context, query string, results []models.SearchResult) (string, error)
}

// Handler serves the public API
type Handler struct {
	config     *config.Config
	searcher   search.Provider
	fetcher    Fetcher
	summarizer Summarizer
	version    string
	ready      atomic.Bool
}

// New creates a handler. It rejects API calls until MarkReady is called.
func New(cfg *config.Config, searcher search.Provider, fetcher Fetcher, summarizer Summarizer, version string) *Handler {
	return &Handler{
		config:     cfg,
		searcher:   searcher,
		fetcher:    fetcher,
		summarizer: summarizer,
		version:    version,
	}
}

// MarkReady ends the startup phase
func (h *Handler) MarkReady() {
	h.ready.Store(true)
}

// Ready reports whether the startup phase has finished
func (h *Handler) Ready() bool {
	return h.ready.Load()
}

// ServeHTTP handles all HTTP requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	traceID := extractTraceID(r)
	if traceID == "" {
		traceID = generateTraceID()
	}
	r = r.WithContext(logger.ContextWithTraceID(r.Context(), traceID))

	log := logger.WithTraceID(traceID)
	log.Info("request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
	)

	w.Header().Set("X-Trace-ID", traceID)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch path {
	case "/health":
		h.handleHealth(rec, r)
	case "/openapi":
		h.handleOpenAPIUI(rec, r, log)
	case "/openapi/openapi.json":
		h.handleOpenAPIJSON(rec, r, log)
	case "/openapi/yaml":
		h.handleOpenAPIYAML(rec, r, log)
	case "/web_search":
		if h.guard(rec, r, log) {
			h.handleWebSearch(rec, r, log)
		}
	case "/web_fetch":
		if h.guard(rec, r, log) {
			h.handleWebFetch(rec, r, log)
		}
	default:
		h.handleError(rec, http.StatusNotFound, "Endpoint not found", log)
	}

	log.Info("request completed",
		zap.Int("status", rec.status),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

// guard enforces method and readiness for API routes
func (h *Handler) guard(w http.ResponseWriter, r *http.Request, log *zap.Logger) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		h.handleError(w, http.StatusMethodNotAllowed, "Only GET method is allowed", log)
		return false
	}
	if !h.Ready() {
		h.handleError(w, http.StatusServiceUnavailable, "Service is starting", log)
		return false
	}
	return true
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.Ready() {
		status = "starting"
	}
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    status,
		Ready:     h.Ready(),
		Timestamp: time.Now().Unix(),
	})
}

// handleError writes the single-field error envelope
func (h *Handler) handleError(w http.ResponseWriter, status int, message string, log *zap.Logger) {
	log.Warn("request error",
		zap.String("message", message),
		zap.Int("status", status),
	)
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", zap.Error(err))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// extractTraceID extracts trace ID from various possible headers
func extractTraceID(r *http.Request) string {
	headers := []string{
		"X-Trace-ID",
		"X-Request-ID",
		"X-Correlation-ID",
	}

	for _, header := range headers {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}

	return ""
}

// generateTraceID generates a new trace ID
func generateTraceID() string {
	id := uuid.New()
	return id.String()[:16]
}
