package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/remember-me/care-monitor/internal/models"
	ws "github.com/remember-me/care-monitor/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles upgrading HTTP connections to WebSocket connections.
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboards are served from a different origin during development.
		return true
	},
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(conn)
	h.hub.Register(client)
	h.hub.SendTo(client, ws.NewMessage("welcome", map[string]string{"message": "Connected to Remember Me backend"}))

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleIncomingWSMessage)
		// Unregistering closes Send, which stops the write pump.
		h.hub.Unregister(client)
	}()
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Error().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		h.hub.SendTo(client, ws.NewErrorMessage("Invalid message"))
		return
	}

	switch msg.Event {
	case "request_data":
		h.hub.SendTo(client, ws.NewMessage("data_update", TelemetrySnapshot()))

	default:
		log.Warn().Str("event", msg.Event).Msg("Unknown websocket event received")
		h.hub.SendTo(client, ws.NewErrorMessage("Unknown event: "+msg.Event))
	}
}

// TelemetrySnapshot is the fixed demo snapshot served on request_data.
func TelemetrySnapshot() models.Telemetry {
	return models.Telemetry{
		Type:       "telemetry",
		Momentum:   models.MomentumInfo{Value: 15.5, Trend: "up", Change: 2.3},
		Confidence: models.ConfidenceInfo{Level: "High", Percentage: 87},
		Volatility: models.VolatilityInfo{Level: "low", Value: 0.25, Description: "Stable - Consistent routine patterns"},
	}
}
