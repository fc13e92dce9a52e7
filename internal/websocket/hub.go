package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

type directMessage struct {
	client  *Client
	message []byte
}

// Hub maintains the set of active clients and fans published events out to them.
type Hub struct {
	// Registered clients. Only touched by the Run goroutine.
	clients map[*Client]bool

	// Encoded frames for global broadcast; one publish may carry several frames.
	broadcast chan [][]byte

	// Frames addressed to a single client.
	direct chan directMessage

	register   chan *Client
	unregister chan *Client

	// Topic -> wire event names. A topic without a route is emitted under its own name.
	routes map[string][]string

	clientCount atomic.Int64
	done        chan struct{}
	stopOnce    sync.Once
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan [][]byte),
		direct:     make(chan directMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		routes:     make(map[string][]string),
		done:       make(chan struct{}),
	}
}

// Route makes every Publish on topic emit one frame per wire name.
// It must be called before Run.
func (h *Hub) Route(topic string, names ...string) {
	h.routes[topic] = append([]string(nil), names...)
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.clientCount.Store(int64(len(h.clients)))
			log.Info().Str("client_id", client.ID).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Str("client_id", client.ID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case frames := <-h.broadcast:
			for client := range h.clients {
				for _, frame := range frames {
					if !h.deliver(client, frame) {
						break
					}
				}
			}
		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; ok {
				h.deliver(msg.client, msg.message)
			}
		}
	}
}

// Stop halts the Run loop and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish encodes payload once per wire name routed from topic and sends the
// frames to every connected client.
func (h *Hub) Publish(topic string, payload interface{}) error {
	names, ok := h.routes[topic]
	if !ok {
		names = []string{topic}
	}

	frames := make([][]byte, 0, len(names))
	for _, name := range names {
		frame, err := json.Marshal(Message{Event: name, Payload: payload})
		if err != nil {
			return fmt.Errorf("encode %s frame: %w", name, err)
		}
		frames = append(frames, frame)
	}

	select {
	case h.broadcast <- frames:
		return nil
	case <-h.done:
		return fmt.Errorf("hub stopped")
	}
}

// SendTo delivers a frame to one client, if it is still connected.
func (h *Hub) SendTo(client *Client, message []byte) {
	select {
	case h.direct <- directMessage{client: client, message: message}:
	case <-h.done:
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// deliver queues a frame for a client, dropping the client if its buffer is full.
func (h *Hub) deliver(client *Client, message []byte) bool {
	select {
	case client.Send <- message:
		return true
	default:
		log.Warn().Str("client_id", client.ID).Msg("Client send buffer full, dropping client")
		h.drop(client)
		return false
	}
}

func (h *Hub) drop(client *Client) {
	close(client.Send)
	delete(h.clients, client)
	h.clientCount.Store(int64(len(h.clients)))
}
