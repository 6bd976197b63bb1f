package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nfrund/parley/internal/chat"
	"github.com/nfrund/parley/internal/pubsub"
)

// BusEmitter implements chat.Emitter by publishing encoded event frames to
// the delivery topic the bridge subscribes to. Publishing is fire-and-forget;
// a frame addressed to a connection that no longer exists is silently dropped
// on the subscriber side.
type BusEmitter struct {
	publisher pubsub.Publisher
	logger    *slog.Logger
}

// NewBusEmitter creates an emitter over the given publisher.
func NewBusEmitter(publisher pubsub.Publisher) *BusEmitter {
	return &BusEmitter{
		publisher: publisher,
		logger:    slog.Default().With("service", "ws-emitter"),
	}
}

// ToConn sends a named event to one connection.
func (e *BusEmitter) ToConn(connID, event string, payload any) {
	frame, err := json.Marshal(chat.Envelope{Event: event, Data: payload})
	if err != nil {
		e.logger.Error("failed to encode event frame", "event", event, "error", err)
		return
	}
	err = e.publisher.Publish(context.Background(), pubsub.Message{
		Topic:   TopicOutbound,
		ConnID:  connID,
		Payload: frame,
	})
	if err != nil {
		e.logger.Error("failed to publish direct frame", "event", event, "error", err)
	}
}

// Broadcast sends a named event to every live connection.
func (e *BusEmitter) Broadcast(event string, payload any) {
	frame, err := json.Marshal(chat.Envelope{Event: event, Data: payload})
	if err != nil {
		e.logger.Error("failed to encode event frame", "event", event, "error", err)
		return
	}
	err = e.publisher.Publish(context.Background(), pubsub.Message{
		Topic:   TopicOutbound,
		Payload: frame,
	})
	if err != nil {
		e.logger.Error("failed to publish broadcast frame", "event", event, "error", err)
	}
}
