package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 10 * time.Second

// Client represents a single connected WebSocket client. The send channel
// is created once and never reassigned; Close marks the client closed under
// the lock, so the write pump can range over the channel without holding it.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newClient(id string, conn *websocket.Conn, sendBuf int) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, sendBuf),
	}
}

// SendMessage queues a frame for delivery. It never blocks: a full buffer
// or an already-closed client drops the frame, matching the transport's
// best-effort contract.
func (c *Client) SendMessage(msg []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		slog.Warn("client send buffer full, dropping frame", "conn_id", c.ID)
	}
}

// Close shuts the send channel exactly once, ending the write pump.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump drains the send channel onto the socket. It exits when Close
// is called or a write fails.
func (c *Client) writePump() {
	defer c.conn.Close(websocket.StatusNormalClosure, "server-side cleanup")

	for msg := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			slog.Debug("websocket write error", "conn_id", c.ID, "error", err)
			return
		}
	}
}
