package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// sendQueueSize bounds the per-connection outbound queue. A connection that
// cannot drain this many events is skipped during fan-out rather than
// blocking the sender.
const sendQueueSize = 64

// CloseReason labels why a connection was unregistered. It is recorded in
// logs only; no behavior branches on it.
type CloseReason string

const (
	CloseNormal  CloseReason = "normal"
	CloseTimeout CloseReason = "timeout"
	CloseError   CloseReason = "error"
)

// ServerEvent is the envelope written to a connection's transport.
type ServerEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Conn is one live realtime channel. A connection starts unowned, may be
// claimed by exactly one identity via Registry.Register, and is destroyed on
// transport close. A closed connection ID is never reused.
//
// The send channel is never closed; Close signals shutdown through done so
// concurrent broadcasters cannot panic on a closed channel.
type Conn struct {
	id         string
	attachedAt time.Time

	// identity is owned by the Registry and only mutated under its lock.
	identity string

	send      chan ServerEvent
	done      chan struct{}
	closeOnce sync.Once
}

func newConn() *Conn {
	return &Conn{
		id:         uuid.New().String(),
		attachedAt: time.Now(),
		send:       make(chan ServerEvent, sendQueueSize),
		done:       make(chan struct{}),
	}
}

// ID returns the opaque connection id.
func (c *Conn) ID() string { return c.id }

// AttachedAt returns when the connection was attached to the registry.
func (c *Conn) AttachedAt() time.Time { return c.attachedAt }

// Events returns the outbound queue for the transport write pump.
func (c *Conn) Events() <-chan ServerEvent { return c.send }

// Done is closed when the connection is shut down.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close signals shutdown (idempotent). The send channel is left open.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Deliver enqueues an event without blocking. It reports false when the
// connection is closed or its queue is full; fan-out treats that as a skip,
// not a failure.
func (c *Conn) Deliver(ev ServerEvent) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- ev:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}
