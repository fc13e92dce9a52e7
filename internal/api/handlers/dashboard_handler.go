package handlers

import (
	"net/http"
	"time"

	"github.com/remember-me/care-monitor/internal/models"
)

// DashboardHandler serves the banner and the mock payloads the dashboard
// renders until real patient records exist.
type DashboardHandler struct {
	websocketURL string
	now          func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(websocketURL string) *DashboardHandler {
	return &DashboardHandler{websocketURL: websocketURL, now: time.Now}
}

// Banner describes the running service.
type Banner struct {
	Message   string   `json:"message"`
	Status    string   `json:"status"`
	Websocket string   `json:"websocket"`
	Endpoints []string `json:"endpoints"`
}

// Home returns the service banner.
func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Banner{
		Message:   "Remember Me Backend API",
		Status:    "running",
		Websocket: h.websocketURL,
		Endpoints: []string{"/events", "/summary", "/patients", "/care-events", "/health", "/ws"},
	})
}

// Patients returns the mock patient list.
func (h *DashboardHandler) Patients(w http.ResponseWriter, r *http.Request) {
	now := h.now().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, []models.Patient{
		{ID: 1, Name: "Sarah Johnson", Status: "Stable", Medication: "Completed", Exercise: "Pending", CognitiveScore: 85, LastUpdate: now},
		{ID: 2, Name: "Robert Chen", Status: "Attention", Medication: "Missed", Exercise: "Completed", CognitiveScore: 72, LastUpdate: now},
		{ID: 3, Name: "Maria Garcia", Status: "Stable", Medication: "Completed", Exercise: "Completed", CognitiveScore: 91, LastUpdate: now},
	})
}

// CareEvents returns the mock activity feed.
func (h *DashboardHandler) CareEvents(w http.ResponseWriter, r *http.Request) {
	now := h.now().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, []models.CareEventSummary{
		{ID: 1, Timestamp: now, Description: "Sarah Johnson completed medication routine", Type: "medication", Status: "completed"},
		{ID: 2, Timestamp: now, Description: "Robert Chen missed exercise routine", Type: "exercise", Status: "missed"},
	})
}
