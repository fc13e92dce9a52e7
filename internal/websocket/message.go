package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Message defines the structure for websocket messages in both directions.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// NewMessage encodes an event frame.
func NewMessage(event string, payload interface{}) []byte {
	data, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to encode websocket message")
		return NewErrorMessage("internal encoding error")
	}
	return data
}

// NewErrorMessage encodes an error frame sent back to a single client.
func NewErrorMessage(message string) []byte {
	data, _ := json.Marshal(Message{Event: "error", Payload: map[string]string{"message": message}})
	return data
}
