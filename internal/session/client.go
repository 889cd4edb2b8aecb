package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pollroom/internal/domain"
	"pollroom/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 64
)

// Client is one live websocket connection. Outbound events queue on a
// buffered channel drained by a single writer goroutine, which keeps
// delivery in order per connection.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan domain.Envelope

	mu     sync.Mutex // guards closed against concurrent enqueue/close
	closed bool

	log *logger.Logger
}

// NewClient wraps an upgraded websocket connection.
func NewClient(id string, conn *websocket.Conn, log *logger.Logger) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan domain.Envelope, sendBuffer),
		log:  log,
	}
}

// enqueue queues an event without blocking; a full buffer or a closed
// connection drops it.
func (c *Client) enqueue(env domain.Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// close releases the send queue; the write pump then closes the
// underlying connection.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump decodes inbound envelopes and hands them to dispatch until
// the connection drops. Runs on the connection's reader goroutine;
// disconnect is reported exactly once.
func (c *Client) ReadPump(dispatch func(connectionID string, env domain.Envelope), disconnect func(connectionID string)) {
	defer func() {
		disconnect(c.ID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("unexpected websocket close", zap.String("connection_id", c.ID))
			}
			return
		}

		var env domain.Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			c.enqueue(domain.Envelope{Event: domain.EventError, Data: mustRaw(domain.ErrorEvent{
				Type:    "invalid_payload",
				Message: "Malformed message",
			})})
			continue
		}
		dispatch(c.ID, env)
	}
}

// WritePump drains the send queue onto the wire and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func mustRaw(v interface{}) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}
