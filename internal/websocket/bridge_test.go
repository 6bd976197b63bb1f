package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parley/internal/chat"
	"github.com/nfrund/parley/internal/pubsub"
)

// fakeHandler records dispatched events.
type fakeHandler struct {
	mu    sync.Mutex
	calls []string
}

func (h *fakeHandler) record(call string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, call)
}

func (h *fakeHandler) recorded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.calls))
	copy(out, h.calls)
	return out
}

func (h *fakeHandler) HandleConnect(connID string)    { h.record("connect:" + connID) }
func (h *fakeHandler) HandleDisconnect(connID string) { h.record("disconnect:" + connID) }
func (h *fakeHandler) HandleRegister(connID, username string) {
	h.record("register:" + connID + ":" + username)
}
func (h *fakeHandler) HandleSend(connID, recipient, body string) {
	h.record("send:" + connID + ":" + recipient + ":" + body)
}
func (h *fakeHandler) HandleHistory(connID, otherUser string) {
	h.record("history:" + connID + ":" + otherUser)
}

func readFrame(t *testing.T, client *Client) chat.Envelope {
	t.Helper()
	select {
	case data := <-client.send:
		var env chat.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	default:
		t.Fatal("no frame queued on client")
		return chat.Envelope{}
	}
}

func TestBridge_DispatchRegister(t *testing.T) {
	handler := &fakeHandler{}
	bridge := NewBridge(handler, 8)
	client := newClient("conn1", nil, 8)

	bridge.dispatch(client, []byte(`{"event":"register_username","data":{"username":"alice"}}`))

	assert.Equal(t, []string{"register:conn1:alice"}, handler.recorded())
}

func TestBridge_DispatchSendAndHistory(t *testing.T) {
	handler := &fakeHandler{}
	bridge := NewBridge(handler, 8)
	client := newClient("conn1", nil, 8)

	bridge.dispatch(client, []byte(`{"event":"send_private_message","data":{"recipient":"bob","message":"hi"}}`))
	bridge.dispatch(client, []byte(`{"event":"get_history","data":{"other_user":"bob"}}`))

	assert.Equal(t, []string{"send:conn1:bob:hi", "history:conn1:bob"}, handler.recorded())
}

func TestBridge_DispatchRejectsMalformedFrames(t *testing.T) {
	handler := &fakeHandler{}
	bridge := NewBridge(handler, 8)

	cases := []struct {
		name  string
		frame string
	}{
		{"not json", `not json at all`},
		{"unknown event", `{"event":"dance","data":{}}`},
		{"missing username", `{"event":"register_username","data":{}}`},
		{"missing recipient", `{"event":"send_private_message","data":{"message":"hi"}}`},
		{"missing message", `{"event":"send_private_message","data":{"recipient":"bob"}}`},
		{"missing other_user", `{"event":"get_history","data":{}}`},
		{"payload wrong type", `{"event":"register_username","data":{"username":123}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient("conn1", nil, 8)
			bridge.dispatch(client, []byte(tc.frame))

			// Nothing reached the core, and the client got an error frame.
			assert.Empty(t, handler.recorded())
			env := readFrame(t, client)
			assert.Equal(t, chat.EventError, env.Event)
		})
	}
}

func TestBridge_DirectDeliveryToMissingConnection(t *testing.T) {
	bridge := NewBridge(&fakeHandler{}, 8)

	// Delivering to a connection that disconnected is a safe no-op.
	err := bridge.handleOutbound(context.Background(), pubsub.Message{
		ConnID:  "gone",
		Payload: []byte(`{}`),
	})
	assert.NoError(t, err)
}

func TestBridge_BroadcastReachesEveryClient(t *testing.T) {
	bridge := NewBridge(&fakeHandler{}, 8)
	clientA := newClient("connA", nil, 8)
	clientB := newClient("connB", nil, 8)
	bridge.clients["connA"] = clientA
	bridge.clients["connB"] = clientB

	frame := []byte(`{"event":"user_list","data":[]}`)
	require.NoError(t, bridge.handleOutbound(context.Background(), pubsub.Message{Payload: frame}))

	assert.Equal(t, frame, <-clientA.send)
	assert.Equal(t, frame, <-clientB.send)
}

func TestBridge_DirectAndBroadcastArriveInPublishOrder(t *testing.T) {
	bus := pubsub.NewWatermillBridge()
	defer bus.Close()

	bridge := NewBridge(&fakeHandler{}, 8)
	require.NoError(t, bridge.Start(context.Background(), bus))

	client := newClient("connA", nil, 8)
	bridge.mu.Lock()
	bridge.clients["connA"] = client
	bridge.mu.Unlock()

	emitter := NewBusEmitter(bus)
	emitter.ToConn("connA", chat.EventNewMessage, map[string]string{"message": "hi"})
	emitter.Broadcast(chat.EventUserList, []string{"alice"})

	// The single outbound topic keeps the direct frame ahead of the roster
	// update that follows it.
	first := awaitFrame(t, client)
	second := awaitFrame(t, client)
	assert.Equal(t, chat.EventNewMessage, first.Event)
	assert.Equal(t, chat.EventUserList, second.Event)
}

func awaitFrame(t *testing.T, client *Client) chat.Envelope {
	t.Helper()
	select {
	case data := <-client.send:
		var env chat.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered to client")
		return chat.Envelope{}
	}
}

func TestClient_SendAfterCloseIsNoop(t *testing.T) {
	client := newClient("conn1", nil, 1)
	client.Close()
	client.SendMessage([]byte("late"))
	// Closing twice is also harmless.
	client.Close()
}

func TestClient_CloseReleasesChannelConsumer(t *testing.T) {
	client := newClient("conn1", nil, 8)
	client.SendMessage([]byte("queued"))

	// Stand-in for the write pump: drain until the channel closes.
	drained := make(chan struct{})
	go func() {
		for range client.send {
		}
		close(drained)
	}()

	client.Close()
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("consumer still blocked after Close")
	}
}

func TestClient_ConcurrentSendAndClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		client := newClient("conn1", nil, 4)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				client.SendMessage([]byte("x"))
			}
		}()
		go func() {
			defer wg.Done()
			client.Close()
		}()
		wg.Wait()
	}
}

func TestClient_FullBufferDropsFrame(t *testing.T) {
	client := newClient("conn1", nil, 1)
	client.SendMessage([]byte("first"))
	client.SendMessage([]byte("second")) // dropped, not blocked

	assert.Equal(t, []byte("first"), <-client.send)
	select {
	case data := <-client.send:
		t.Fatalf("unexpected frame: %s", data)
	default:
	}
}
