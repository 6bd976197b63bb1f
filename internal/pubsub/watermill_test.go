package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillBridge_PublishSubscribe(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	err := bridge.Subscribe(ctx, "test.topic", func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	err = bridge.Publish(ctx, Message{
		Topic:   "test.topic",
		ConnID:  "conn-1",
		Payload: []byte(`{"event":"ping"}`),
		Metadata: map[string]string{
			"origin": "test",
		},
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "test.topic", msg.Topic)
		assert.Equal(t, "conn-1", msg.ConnID)
		assert.Equal(t, `{"event":"ping"}`, string(msg.Payload))
		assert.Equal(t, "test", msg.Metadata["origin"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestWatermillBridge_TopicsAreIsolated(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	other := make(chan Message, 1)
	require.NoError(t, bridge.Subscribe(ctx, "other.topic", func(ctx context.Context, msg Message) error {
		other <- msg
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "test.topic", Payload: []byte("x")}))

	select {
	case <-other:
		t.Fatal("message leaked across topics")
	case <-time.After(100 * time.Millisecond):
	}
}
