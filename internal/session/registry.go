package session

import (
	"errors"
	"sync"
	"time"
)

// ErrUsernameTaken is returned by Register when another live connection
// already holds the requested username.
var ErrUsernameTaken = errors.New("username already taken")

// ErrUnknownConnection is returned when an operation references a connection
// id the registry has never seen or has already removed.
var ErrUnknownConnection = errors.New("unknown connection")

// RosterEntry is a read-only projection of a registered connection,
// suitable for sending to clients as-is.
type RosterEntry struct {
	Username string    `json:"username"`
	LastSeen time.Time `json:"last_seen"`
}

type connection struct {
	username string // empty until the connection registers
	lastSeen time.Time
}

// Registry tracks every live connection and the username bound to it.
// It is the single owner of connection state: all mutation goes through
// its methods, under one lock, so a uniqueness check and the bind that
// follows it can never interleave with a competing Register call.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connection
	names map[string]string // username -> connection id
	order []string          // connection ids in connect order, for stable snapshots
	now   func() time.Time
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connection),
		names: make(map[string]string),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// OnConnect creates an entry for a newly accepted connection. The transport
// issues each id exactly once, so no collision handling is needed here.
func (r *Registry) OnConnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[connID] = &connection{lastSeen: r.now()}
	r.order = append(r.order, connID)
}

// Register binds a username to a connection. It fails with ErrUsernameTaken
// if any other live connection holds the exact same name. The check and the
// bind happen under the same lock.
func (r *Registry) Register(connID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	if owner, taken := r.names[username]; taken && owner != connID {
		return ErrUsernameTaken
	}
	// Re-registering under a new name releases the old one.
	if conn.username != "" && conn.username != username {
		delete(r.names, conn.username)
	}
	conn.username = username
	conn.lastSeen = r.now()
	r.names[username] = connID
	return nil
}

// Touch refreshes a connection's last-seen timestamp. It is a silent no-op
// when the connection has already disconnected.
func (r *Registry) Touch(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[connID]; ok {
		conn.lastSeen = r.now()
	}
}

// Lookup returns the connection id currently bound to a username.
func (r *Registry) Lookup(username string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.names[username]
	return connID, ok
}

// Username returns the name bound to a connection, or false if the
// connection is unknown or has not registered yet.
func (r *Registry) Username(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	if !ok || conn.username == "" {
		return "", false
	}
	return conn.username, true
}

// Disconnect removes a connection unconditionally and frees its username
// for immediate reuse. It reports the username that was bound, if any, so
// callers can decide whether the roster changed.
func (r *Registry) Disconnect(connID string) (username string, registered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	delete(r.conns, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if conn.username != "" {
		delete(r.names, conn.username)
		return conn.username, true
	}
	return "", false
}

// Snapshot returns a consistent point-in-time roster of every connection
// with a registered username, in connect order.
func (r *Registry) Snapshot() []RosterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roster := make([]RosterEntry, 0, len(r.names))
	for _, id := range r.order {
		conn := r.conns[id]
		if conn == nil || conn.username == "" {
			continue
		}
		roster = append(roster, RosterEntry{
			Username: conn.username,
			LastSeen: conn.lastSeen,
		})
	}
	return roster
}

// Len reports the number of live connections, registered or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
