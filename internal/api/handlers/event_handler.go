package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/remember-me/care-monitor/internal/models"
	"github.com/remember-me/care-monitor/internal/services"
	"github.com/rs/zerolog/log"
)

// EventHandler handles HTTP requests related to care events.
type EventHandler struct {
	service services.CareEventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.CareEventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// StatusResponse is the acknowledgement returned to event producers.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Create handles an event posted by a device or the simulator.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var event models.CareEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Error().Err(err).Msg("Error decoding care event")
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Status: "error", Message: err.Error()})
		return
	}

	if _, err := h.service.RecordEvent(event); err != nil {
		log.Error().Err(err).Int("subject_id", event.SubjectID).Msg("Error logging care event")
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Status: "error", Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "success", Message: "Data logged successfully"})
}

// GetAll returns every parsed log entry, oldest first.
func (h *EventHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.GetAllRecords()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read care log")
		http.Error(w, "Failed to read care log", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
