package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/remember-me/care-monitor/internal/services"
	"github.com/rs/zerolog/log"
)

// SummaryHandler compares logged activity against required counts.
type SummaryHandler struct {
	service services.CareEventServiceProvider
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(service services.CareEventServiceProvider) *SummaryHandler {
	return &SummaryHandler{service: service}
}

// SummaryRequest is the body of POST /summary.
type SummaryRequest struct {
	Todos services.Todos `json:"todos"`
}

// SummaryResponse lists one line per requested receiver, in request order.
type SummaryResponse struct {
	Summary []string `json:"summary"`
}

// Create handles a summary request.
func (h *SummaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.service.Summarize(payload.Todos)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build summary")
		http.Error(w, "Failed to build summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, SummaryResponse{Summary: summary})
}
