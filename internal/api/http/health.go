package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// readinessTimeout bounds the database probe so a stuck store cannot hang
// the readiness endpoint.
const readinessTimeout = 2 * time.Second

// HealthHandler serves the liveness, readiness and metrics-status
// endpoints. ping probes the store (pgxpool's Ping in production).
type HealthHandler struct {
	ping   func(context.Context) error
	logger *zap.Logger
}

// NewHealthHandler creates the health endpoints around a store probe.
func NewHealthHandler(ping func(context.Context) error, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		ping:   ping,
		logger: logger,
	}
}

// Health handles GET /health: plain liveness, no dependencies checked.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /ready: 200 when the store answers, 503 otherwise.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.logger.Error("Readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not ready",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "connected",
	})
}

// Metrics handles GET /metrics. Metrics are pushed over OTLP to the
// collector rather than scraped, so this endpoint only confirms the
// export-only design.
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "metrics_enabled",
		"exporter": "otlp",
		"message":  "Metrics are being exported via OpenTelemetry OTLP",
	})
}
