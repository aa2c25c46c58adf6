package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/metrics"
)

// IdentityUnknown is the sentinel some clients report before their session
// resolves. Registrations carrying it are dropped, not failed: slow clients
// re-register once they know who they are.
const IdentityUnknown = "unknown"

// Registry maps identities to their live connections. An identity may own
// any number of simultaneous connections (one per open tab or device); a
// connection belongs to at most one identity. A single mutex guards both
// indexes; fan-out readers always work from a copied slice, never the live
// maps.
type Registry struct {
	logger zerolog.Logger

	mu         sync.Mutex
	byConn     map[string]*Conn
	byIdentity map[string]map[string]*Conn // identity -> conn id -> conn
	closed     bool
}

// NewRegistry creates an empty connection registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger:     logger.With().Str("component", "registry").Logger(),
		byConn:     make(map[string]*Conn),
		byIdentity: make(map[string]map[string]*Conn),
	}
}

// Attach creates a new unowned connection and tracks it. Returns nil after
// Shutdown.
func (r *Registry) Attach() *Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	c := newConn()
	r.byConn[c.id] = c
	metrics.SocketsOpen.Set(float64(len(r.byConn)))

	r.logger.Debug().Str("conn_id", c.id).Msg("connection attached")
	return c
}

// Register claims a connection for an identity. Re-registering the same
// identity on the same connection is a no-op. An empty or "unknown" identity
// is logged and ignored. If the connection was previously owned by another
// identity, ownership moves.
func (r *Registry) Register(connID, identity string) {
	if identity == "" || identity == IdentityUnknown {
		r.logger.Warn().
			Str("conn_id", connID).
			Str("identity", identity).
			Msg("ignoring registration without a usable identity")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byConn[connID]
	if !ok {
		r.logger.Warn().Str("conn_id", connID).Msg("register on unknown connection")
		return
	}

	if c.identity == identity {
		return
	}

	if c.identity != "" {
		r.removeFromIdentityLocked(c)
	}

	c.identity = identity
	m := r.byIdentity[identity]
	if m == nil {
		m = make(map[string]*Conn)
		r.byIdentity[identity] = m
	}
	m[c.id] = c

	r.logger.Debug().
		Str("conn_id", connID).
		Str("identity", identity).
		Int("identity_conns", len(m)).
		Msg("connection registered")
}

// Unregister removes a connection and closes it. The reason is recorded for
// observability only. Unknown connection ids are a no-op: close events can
// race with shutdown. The owner's presence entry is untouched; presence
// lifetime is heartbeat-driven, not connection-driven.
func (r *Registry) Unregister(connID string, reason CloseReason) {
	r.mu.Lock()
	c, ok := r.byConn[connID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.byConn, connID)
	r.removeFromIdentityLocked(c)
	metrics.SocketsOpen.Set(float64(len(r.byConn)))
	r.mu.Unlock()

	c.Close()

	r.logger.Debug().
		Str("conn_id", connID).
		Str("identity", c.identity).
		Str("reason", string(reason)).
		Msg("connection unregistered")
}

// removeFromIdentityLocked drops c from its owner's set. Caller holds r.mu.
func (r *Registry) removeFromIdentityLocked(c *Conn) {
	if c.identity == "" {
		return
	}
	if m := r.byIdentity[c.identity]; m != nil {
		delete(m, c.id)
		if len(m) == 0 {
			delete(r.byIdentity, c.identity)
		}
	}
}

// ConnsFor returns a snapshot of every connection owned by any of the given
// identities. Duplicate identities are collapsed, so a self-message does not
// deliver twice to the same connection.
func (r *Registry) ConnsFor(identities ...string) []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(identities))
	var out []*Conn
	for _, id := range identities {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		for _, c := range r.byIdentity[id] {
			out = append(out, c)
		}
	}
	return out
}

// ConnCount returns the number of live connections.
func (r *Registry) ConnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byConn)
}

// IdentityCount returns the number of identities with at least one live
// connection.
func (r *Registry) IdentityCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byIdentity)
}

// Shutdown closes every live connection and stops accepting attachments.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	r.closed = true
	conns := make([]*Conn, 0, len(r.byConn))
	for _, c := range r.byConn {
		conns = append(conns, c)
	}
	r.byConn = make(map[string]*Conn)
	r.byIdentity = make(map[string]map[string]*Conn)
	metrics.SocketsOpen.Set(0)
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	r.logger.Info().Int("closed", len(conns)).Msg("registry shut down")
}
