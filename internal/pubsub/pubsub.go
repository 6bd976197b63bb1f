package pubsub

import (
	"context"
)

// Message is the unit passed between components on the bus. It is
// intentionally a thin wrapper around raw bytes: the payload is already a
// fully encoded wire frame by the time it reaches the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g. "ws.outbound").
	Topic string
	// ConnID identifies the target connection for direct delivery. Empty for
	// broadcast messages.
	ConnID string
	// Payload contains the encoded event frame.
	Payload []byte
	// Metadata carries arbitrary key-value context.
	Metadata map[string]string
}

// Handler is the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher is the contract for sending messages to the bus. Publishing is
// fire-and-forget: there is no acknowledgment, backpressure or retry.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber is the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts listening on the topic and processes each message
	// with the handler. It returns once the subscription is active.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Bus combines both halves for components that need to publish and
// subscribe through the same in-process bridge.
type Bus interface {
	Publisher
	Subscriber
}
