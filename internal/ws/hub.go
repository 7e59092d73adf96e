// Package ws pushes chat messages to every open tab of a browser profile.
package ws

import (
	"context"
	"encoding/json"

	"github.com/pliu/newsportal/internal/models"
	"github.com/rs/zerolog"
)

// Event is what clients receive.
type Event struct {
	Type    string              `json:"type"` // message|error
	Message *models.ChatMessage `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// Inbound is what clients send.
type Inbound struct {
	Text string `json:"text"`
}

type delivery struct {
	profileID string
	data      []byte
}

type Hub struct {
	// Registered clients, grouped by profile.
	clients map[string]map[*Client]bool

	// Messages to fan out to one profile.
	broadcast chan delivery

	register   chan *Client
	unregister chan *Client

	done chan struct{}
	log  *zerolog.Logger
}

func NewHub(log *zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan delivery, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves registrations and deliveries until ctx ends, then closes every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = nil
			return
		case client := <-h.register:
			set := h.clients[client.profileID]
			if set == nil {
				set = make(map[*Client]bool)
				h.clients[client.profileID] = set
			}
			set[client] = true
		case client := <-h.unregister:
			h.remove(client)
		case d := <-h.broadcast:
			for client := range h.clients[d.profileID] {
				select {
				case client.send <- d.data:
				default:
					h.log.Warn().Str("profile", d.profileID).Msg("dropping slow websocket client")
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	set := h.clients[client.profileID]
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.profileID)
	}
}

// Publish delivers msg to every connection of profileID. It drops the message
// once the hub has stopped.
func (h *Hub) Publish(profileID string, msg models.ChatMessage) {
	data, err := json.Marshal(Event{Type: "message", Message: &msg})
	if err != nil {
		h.log.Error().Err(err).Msg("encode chat event")
		return
	}
	select {
	case h.broadcast <- delivery{profileID: profileID, data: data}:
	case <-h.done:
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
