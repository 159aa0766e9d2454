package relay

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/F-e-n-y-x/ui-forge/collab"
)

// Registry owns the mapping from live connections to their assigned
// identities. It is the only shared mutable state in the relay; every
// mutation goes through Register/Unregister and the critical sections are
// limited to map access.
type Registry struct {
	mu    sync.Mutex
	conns map[*Conn]collab.Identity
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[*Conn]collab.Identity)}
}

// Register assigns a fresh identity to c and tracks it until Unregister.
// Identity ids are uuids, so two simultaneously open connections never
// share one.
func (r *Registry) Register(c *Conn) collab.Identity {
	ident := collab.Identity{
		ID:    uuid.NewString(),
		Color: randomColor(),
		Name:  fmt.Sprintf("User %d", rand.IntN(1000)),
	}
	r.mu.Lock()
	r.conns[c] = ident
	r.mu.Unlock()
	return ident
}

// Unregister removes c and returns its identity. A connection that was
// never registered, or was already removed, yields ok == false and no other
// effect, which keeps disconnect handling idempotent.
func (r *Registry) Unregister(c *Conn) (collab.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.conns[c]
	if !ok {
		return collab.Identity{}, false
	}
	delete(r.conns, c)
	return ident, true
}

// Snapshot returns the live connections at call time, excluding except when
// it is non-nil. A connection that closes between the snapshot and a send
// surfaces as a failed best-effort send, not an error.
func (r *Registry) Snapshot(except *Conn) []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		if c == except {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func randomColor() string {
	return fmt.Sprintf("#%06x", rand.IntN(0x1000000))
}
