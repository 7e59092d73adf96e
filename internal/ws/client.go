package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pliu/newsportal/internal/chat"
	"github.com/pliu/newsportal/internal/models"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Sender appends a chat message for a profile.
type Sender interface {
	Send(ctx context.Context, profileID, text string) (*models.ChatMessage, error)
}

// Client is one websocket connection of a profile.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	replies   chan []byte
	profileID string
	sender    Sender
	log       *zerolog.Logger
}

// ServeWs upgrades the request and attaches the connection to profileID.
func ServeWs(hub *Hub, sender Sender, w http.ResponseWriter, r *http.Request, profileID string, log *zerolog.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		replies:   make(chan []byte, 16),
		profileID: profileID,
		sender:    sender,
		log:       log,
	}
	if !hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump turns inbound frames into chat sends. Errors go back to this
// connection only; successes reach every tab through the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Str("profile", c.profileID).Msg("websocket closed")
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.reply(Event{Type: "error", Error: "invalid message"})
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		_, err = c.sender.Send(ctx, c.profileID, in.Text)
		cancel()
		if err != nil {
			c.reply(Event{Type: "error", Error: chat.Notice(err)})
		}
	}
}

func (c *Client) reply(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case c.replies <- data:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case message := <-c.replies:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
