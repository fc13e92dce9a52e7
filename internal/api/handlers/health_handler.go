package handlers

import (
	"net/http"

	"github.com/remember-me/care-monitor/internal/monitoring"
)

// HealthHandler reports service health.
type HealthHandler struct {
	checker *monitoring.HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checker *monitoring.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Get returns the current health; degraded services answer 503.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	health := h.checker.Check()
	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
