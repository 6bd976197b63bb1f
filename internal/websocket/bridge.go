package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/parley/internal/chat"
	"github.com/nfrund/parley/internal/pubsub"
)

// EventHandler is the bridge's view of the routing core. The bridge decodes
// and validates frames, the handler owns all session and conversation state.
type EventHandler interface {
	HandleConnect(connID string)
	HandleRegister(connID, username string)
	HandleSend(connID, recipient, body string)
	HandleHistory(connID, otherUser string)
	HandleDisconnect(connID string)
}

// inboundFrame defers payload decoding until the event name is known.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Bridge accepts WebSocket connections, assigns each an opaque id, feeds
// decoded inbound events to the handler, and delivers outbound frames from
// the bus to the right sockets.
type Bridge struct {
	handler  EventHandler
	validate *validator.Validate
	logger   *slog.Logger
	sendBuf  int

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewBridge creates a bridge that dispatches to the given handler.
func NewBridge(handler EventHandler, sendBuf int) *Bridge {
	return &Bridge{
		handler:  handler,
		validate: validator.New(),
		logger:   slog.Default().With("service", "ws-bridge"),
		sendBuf:  sendBuf,
		clients:  make(map[string]*Client),
	}
}

// Start subscribes the bridge to the outbound delivery topic. It must be
// called before the first connection is accepted.
func (b *Bridge) Start(ctx context.Context, sub pubsub.Subscriber) error {
	return sub.Subscribe(ctx, TopicOutbound, b.handleOutbound)
}

// handleOutbound delivers one bus message. A ConnID routes the frame to that
// single connection; an empty ConnID fans it out to every live connection.
func (b *Bridge) handleOutbound(ctx context.Context, msg pubsub.Message) error {
	if msg.ConnID != "" {
		b.mu.RLock()
		client, ok := b.clients[msg.ConnID]
		b.mu.RUnlock()
		if !ok {
			// The connection went away between resolution and delivery.
			// Dropping the frame is the contract, not a failure.
			return nil
		}
		client.SendMessage(msg.Payload)
		return nil
	}

	// Snapshot first so a disconnect during iteration cannot race the map.
	b.mu.RLock()
	targets := make([]*Client, 0, len(b.clients))
	for _, client := range b.clients {
		targets = append(targets, client)
	}
	b.mu.RUnlock()

	for _, client := range targets {
		client.SendMessage(msg.Payload)
	}
	return nil
}

// Handler returns the echo handler that upgrades requests to WebSocket
// connections and runs their read/write pumps.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true, // In production, check origin.
		})
		if err != nil {
			b.logger.Error("failed to upgrade connection", "error", err)
			return err
		}

		client := newClient(uuid.NewString(), conn, b.sendBuf)

		b.mu.Lock()
		b.clients[client.ID] = client
		b.mu.Unlock()

		b.handler.HandleConnect(client.ID)
		b.logger.Info("connection accepted", "conn_id", client.ID)

		go client.writePump()
		go b.readPump(client)

		return nil
	}
}

// readPump reads frames off the socket and dispatches them until the
// connection closes, then tears the client down.
func (b *Bridge) readPump(client *Client) {
	defer func() {
		b.mu.Lock()
		delete(b.clients, client.ID)
		b.mu.Unlock()

		client.Close()
		client.conn.Close(websocket.StatusNormalClosure, "client disconnected")
		b.handler.HandleDisconnect(client.ID)
		b.logger.Info("connection closed", "conn_id", client.ID)
	}()

	for {
		_, data, err := client.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && err != io.EOF {
				b.logger.Debug("websocket read error", "conn_id", client.ID, "error", err)
			}
			return
		}
		b.dispatch(client, data)
	}
}

// dispatch decodes one inbound frame and hands it to the event handler.
// Malformed or incomplete payloads never reach the core: they are answered
// with an error frame on the originating connection only.
func (b *Bridge) dispatch(client *Client, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		b.rejectFrame(client, "Invalid payload")
		return
	}

	switch frame.Event {
	case chat.EventRegisterUsername:
		var req chat.RegisterUsernameRequest
		if !b.decodePayload(client, frame.Data, &req) {
			return
		}
		b.handler.HandleRegister(client.ID, req.Username)

	case chat.EventSendPrivateMessage:
		var req chat.SendPrivateMessageRequest
		if !b.decodePayload(client, frame.Data, &req) {
			return
		}
		b.handler.HandleSend(client.ID, req.Recipient, req.Message)

	case chat.EventGetHistory:
		var req chat.GetHistoryRequest
		if !b.decodePayload(client, frame.Data, &req) {
			return
		}
		b.handler.HandleHistory(client.ID, req.OtherUser)

	default:
		b.rejectFrame(client, "Unknown event")
	}
}

func (b *Bridge) decodePayload(client *Client, data json.RawMessage, req any) bool {
	if err := json.Unmarshal(data, req); err != nil {
		b.rejectFrame(client, "Invalid payload")
		return false
	}
	if err := b.validate.Struct(req); err != nil {
		b.rejectFrame(client, "Invalid payload")
		return false
	}
	return true
}

func (b *Bridge) rejectFrame(client *Client, reason string) {
	b.logger.Debug("rejecting frame", "conn_id", client.ID, "reason", reason)
	payload, err := json.Marshal(chat.Envelope{Event: chat.EventError, Data: reason})
	if err != nil {
		return
	}
	client.SendMessage(payload)
}

// Len reports the number of connected clients.
func (b *Bridge) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
