package chat

// Emitter is the router's view of the transport. Both operations are
// best-effort and non-blocking: emitting to a connection that has gone away
// between lookup and emit is a safe no-op, never a fault. Nothing is queued
// for absent recipients.
type Emitter interface {
	// ToConn sends a named event to a single connection.
	ToConn(connID, event string, payload any)
	// Broadcast sends a named event to every live connection.
	Broadcast(event string, payload any)
}
