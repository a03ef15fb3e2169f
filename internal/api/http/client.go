package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Enough for SDP blobs with many candidates.
	maxMessageSize = 64 * 1024
)

// wsClient is the socket side of one participant. It is the participant's
// only outbox: writePump is the single writer, so messages queued by
// Deliver leave in order.
type wsClient struct {
	conn *websocket.Conn
	log  *slog.Logger

	mu     sync.Mutex
	closed bool
	send   chan domain.SignalMessage
}

func newClient(conn *websocket.Conn, buffer int, log *slog.Logger) *wsClient {
	if buffer <= 0 {
		buffer = 64
	}
	return &wsClient{
		conn: conn,
		log:  log,
		send: make(chan domain.SignalMessage, buffer),
	}
}

// Deliver queues msg without blocking. A full or closed outbox drops it.
func (c *wsClient) Deliver(msg domain.SignalMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("outbox full, dropping message", slog.String("type", string(msg.Type)))
		return false
	}
}

// Close lets writePump flush what is queued, then closes the socket.
func (c *wsClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump hands every decoded message to handle until the socket fails.
// Malformed frames are answered with an error message and skipped.
func (c *wsClient) readPump(handle func(domain.SignalMessage)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Debug("socket closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}

		var msg domain.SignalMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.Deliver(domain.ErrorMessage("malformed message"))
			continue
		}
		handle(msg)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug("write failed", slog.String("error", err.Error()))
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

// reject writes msg directly and closes. Only used before writePump runs.
func (c *wsClient) reject(msg domain.SignalMessage) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteJSON(msg)
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, msg.Reason))
	c.conn.Close()
}
