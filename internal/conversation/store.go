package conversation

import (
	"sync"
	"time"
)

// Message is one entry in a conversation. The JSON field names are the wire
// shape used by the new_message and history events.
type Message struct {
	Sender    string    `json:"username"`
	Body      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Unread    bool      `json:"unread"`
	Delivered bool      `json:"delivered"`
}

// Key addresses one conversation regardless of which party initiated it.
// NewKey canonicalizes the pair by sorting, so Key("a","b") == Key("b","a").
type Key struct {
	first, second string
}

// NewKey builds the canonical key for a pair of usernames.
func NewKey(a, b string) Key {
	if b < a {
		a, b = b, a
	}
	return Key{first: a, second: b}
}

// Store holds every conversation for the lifetime of the process. Histories
// are append-only and never reordered or pruned.
type Store struct {
	mu            sync.RWMutex
	conversations map[Key][]Message
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[Key][]Message),
	}
}

// Append adds a message to the conversation between two users, creating the
// conversation on first use. It returns the index of the stored message so
// the caller can mark it delivered later in the same send.
func (s *Store) Append(userA, userB string, msg Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := NewKey(userA, userB)
	s.conversations[key] = append(s.conversations[key], msg)
	return len(s.conversations[key]) - 1
}

// MarkDelivered flips the delivered flag on a stored message. It is only
// valid synchronously within the send that appended the message; delivery is
// never recorded retroactively when a recipient reconnects.
func (s *Store) MarkDelivered(userA, userB string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.conversations[NewKey(userA, userB)]
	if index >= 0 && index < len(msgs) {
		msgs[index].Delivered = true
	}
}

// History returns a copy of the full conversation between two users in
// chronological order, or an empty slice if they have never exchanged a
// message. History(a, b) and History(b, a) are the same conversation.
func (s *Store) History(userA, userB string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.conversations[NewKey(userA, userB)]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Len reports how many distinct conversations exist.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
