package chat

import (
	"log/slog"

	"github.com/nfrund/parley/internal/session"
)

// Presence pushes the full current roster to every live connection whenever
// the set of registered users (or their last-seen times) changes. It is a
// pure function of registry state at invocation time and keeps no state of
// its own.
type Presence struct {
	registry *session.Registry
	emitter  Emitter
	logger   *slog.Logger
}

// NewPresence creates a presence broadcaster over the given registry.
func NewPresence(registry *session.Registry, emitter Emitter) *Presence {
	return &Presence{
		registry: registry,
		emitter:  emitter,
		logger:   slog.Default().With("service", "presence"),
	}
}

// Broadcast snapshots the roster and emits it as a user_list event to all
// connections, including unregistered ones.
func (p *Presence) Broadcast() {
	roster := p.registry.Snapshot()
	p.logger.Debug("broadcasting roster", "users", len(roster))
	p.emitter.Broadcast(EventUserList, roster)
}
