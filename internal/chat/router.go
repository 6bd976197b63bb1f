package chat

import (
	"errors"
	"log/slog"
	"time"

	"github.com/nfrund/parley/internal/conversation"
	"github.com/nfrund/parley/internal/session"
)

// Error strings surfaced to clients via the error event. Every failure is
// non-fatal and visible only to the acting connection.
const (
	msgUsernameTaken     = "Username already taken"
	msgNotRegistered     = "You must register a username first"
	msgRecipientNotFound = "Recipient not found"
)

// Router orchestrates the register, send, history and disconnect flows. It
// is the only component that both mutates the conversation store and talks
// back to the transport.
type Router struct {
	registry *session.Registry
	store    *conversation.Store
	presence *Presence
	emitter  Emitter
	logger   *slog.Logger
	now      func() time.Time
}

// NewRouter wires a router over its collaborators.
func NewRouter(registry *session.Registry, store *conversation.Store, presence *Presence, emitter Emitter) *Router {
	return &Router{
		registry: registry,
		store:    store,
		presence: presence,
		emitter:  emitter,
		logger:   slog.Default().With("service", "router"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleConnect records a newly accepted connection. The connection stays
// invisible to other users until it registers a username.
func (rt *Router) HandleConnect(connID string) {
	rt.registry.OnConnect(connID)
	rt.logger.Debug("connection opened", "conn_id", connID)
}

// HandleRegister binds a username to the connection. On conflict the sender
// alone sees the error; on success every connection gets a fresh roster.
func (rt *Router) HandleRegister(connID, username string) {
	if err := rt.registry.Register(connID, username); err != nil {
		if errors.Is(err, session.ErrUsernameTaken) {
			rt.emitter.ToConn(connID, EventError, msgUsernameTaken)
			return
		}
		// The connection disappeared before the event was processed. There
		// is nobody left to tell.
		rt.logger.Debug("register for dead connection", "conn_id", connID, "error", err)
		return
	}
	rt.logger.Info("username registered", "conn_id", connID, "username", username)
	rt.presence.Broadcast()
}

// HandleSend routes one private message. The append to the conversation
// store happens exactly once and precedes both emits, so a history request
// issued by either party after seeing new_message includes the message.
func (rt *Router) HandleSend(senderConnID, recipientUsername, body string) {
	senderUsername, ok := rt.registry.Username(senderConnID)
	if !ok {
		rt.emitter.ToConn(senderConnID, EventError, msgNotRegistered)
		return
	}

	// An offline recipient and a recipient that never existed are the same
	// condition: there is no offline-delivery path.
	recipientConnID, ok := rt.registry.Lookup(recipientUsername)
	if !ok {
		rt.emitter.ToConn(senderConnID, EventError, msgRecipientNotFound)
		return
	}

	msg := conversation.Message{
		Sender:    senderUsername,
		Body:      body,
		Timestamp: rt.now(),
		Unread:    senderConnID != recipientConnID,
		Delivered: false,
	}
	idx := rt.store.Append(senderUsername, recipientUsername, msg)

	// The sender sees the message as constructed, before delivery.
	rt.emitter.ToConn(senderConnID, EventNewMessage, msg)

	// The recipient was live at lookup time. If it vanished since, the emit
	// and the touch below are no-ops, but delivery is still recorded: the
	// message reached a connection that existed at send time.
	rt.store.MarkDelivered(senderUsername, recipientUsername, idx)
	msg.Delivered = true
	rt.emitter.ToConn(recipientConnID, EventNewMessage, msg)
	rt.registry.Touch(recipientConnID)

	rt.logger.Debug("message routed",
		"from", senderUsername,
		"to", recipientUsername,
		"unread", msg.Unread)

	rt.presence.Broadcast()
}

// HandleHistory returns the full stored conversation between the caller and
// another user. Read-only: delivered and unread flags are never touched.
func (rt *Router) HandleHistory(connID, otherUsername string) {
	username, ok := rt.registry.Username(connID)
	if !ok {
		rt.emitter.ToConn(connID, EventError, msgNotRegistered)
		return
	}
	rt.emitter.ToConn(connID, EventHistory, rt.store.History(username, otherUsername))
}

// HandleDisconnect removes the connection. The roster is rebroadcast only
// when the connection had a registered username, since unregistered
// connections were never visible to anyone.
func (rt *Router) HandleDisconnect(connID string) {
	username, registered := rt.registry.Disconnect(connID)
	if !registered {
		rt.logger.Debug("unregistered connection closed", "conn_id", connID)
		return
	}
	rt.logger.Info("user disconnected", "conn_id", connID, "username", username)
	rt.presence.Broadcast()
}
