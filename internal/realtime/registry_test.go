package realtime

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestRegistry() *Registry {
	return NewRegistry(zerolog.Nop())
}

func TestRegisterAndConnsFor(t *testing.T) {
	r := newTestRegistry()

	c1 := r.Attach()
	c2 := r.Attach()

	r.Register(c1.ID(), "ana")
	r.Register(c2.ID(), "bruno")

	conns := r.ConnsFor("ana")
	if len(conns) != 1 || conns[0].ID() != c1.ID() {
		t.Fatalf("expected ana's connection, got %d conns", len(conns))
	}

	both := r.ConnsFor("ana", "bruno")
	if len(both) != 2 {
		t.Fatalf("expected 2 conns for both identities, got %d", len(both))
	}
}

func TestRegisterIdempotent(t *testing.T) {
	r := newTestRegistry()

	c := r.Attach()
	r.Register(c.ID(), "ana")
	r.Register(c.ID(), "ana")
	r.Register(c.ID(), "ana")

	if got := len(r.ConnsFor("ana")); got != 1 {
		t.Fatalf("expected 1 conn after repeated registration, got %d", got)
	}
	if got := r.IdentityCount(); got != 1 {
		t.Fatalf("expected 1 identity, got %d", got)
	}
}

func TestRegisterIgnoresUnusableIdentity(t *testing.T) {
	r := newTestRegistry()

	c := r.Attach()
	r.Register(c.ID(), "")
	r.Register(c.ID(), IdentityUnknown)

	if got := r.IdentityCount(); got != 0 {
		t.Fatalf("expected no identities, got %d", got)
	}
	if got := r.ConnCount(); got != 1 {
		t.Fatalf("connection should stay attached, got %d", got)
	}
}

func TestRegisterMovesOwnership(t *testing.T) {
	r := newTestRegistry()

	c := r.Attach()
	r.Register(c.ID(), "ana")
	r.Register(c.ID(), "bruno")

	if got := len(r.ConnsFor("ana")); got != 0 {
		t.Fatalf("ana should have released the conn, got %d", got)
	}
	if got := len(r.ConnsFor("bruno")); got != 1 {
		t.Fatalf("bruno should own the conn, got %d", got)
	}
}

func TestMultiDevice(t *testing.T) {
	r := newTestRegistry()

	c1 := r.Attach()
	c2 := r.Attach()
	r.Register(c1.ID(), "ana")
	r.Register(c2.ID(), "ana")

	if got := len(r.ConnsFor("ana")); got != 2 {
		t.Fatalf("expected 2 conns for ana, got %d", got)
	}

	r.Unregister(c1.ID(), CloseNormal)

	conns := r.ConnsFor("ana")
	if len(conns) != 1 || conns[0].ID() != c2.ID() {
		t.Fatalf("expected only the second conn to remain")
	}

	select {
	case <-c1.Done():
	default:
		t.Fatal("unregistered conn should be closed")
	}
}

func TestUnregisterUnknownIsNoop(t *testing.T) {
	r := newTestRegistry()

	c := r.Attach()
	r.Register(c.ID(), "ana")

	r.Unregister("no-such-conn", CloseError)
	r.Unregister(c.ID(), CloseNormal)
	r.Unregister(c.ID(), CloseNormal) // already gone

	if got := r.ConnCount(); got != 0 {
		t.Fatalf("expected empty registry, got %d conns", got)
	}
}

func TestConnsForDeduplicatesIdentities(t *testing.T) {
	r := newTestRegistry()

	c := r.Attach()
	r.Register(c.ID(), "ana")

	// Self-message case: sender and recipient are the same identity.
	conns := r.ConnsFor("ana", "ana")
	if len(conns) != 1 {
		t.Fatalf("expected 1 conn for duplicated identity, got %d", len(conns))
	}
}

func TestShutdownClosesEverything(t *testing.T) {
	r := newTestRegistry()

	c1 := r.Attach()
	c2 := r.Attach()
	r.Register(c1.ID(), "ana")

	r.Shutdown()

	for _, c := range []*Conn{c1, c2} {
		select {
		case <-c.Done():
		default:
			t.Fatal("conn should be closed after shutdown")
		}
	}

	if c := r.Attach(); c != nil {
		t.Fatal("attach after shutdown should return nil")
	}
}

func TestDeliverAfterCloseIsSkipped(t *testing.T) {
	r := newTestRegistry()

	c := r.Attach()
	c.Close()

	if c.Deliver(ServerEvent{Event: "x"}) {
		t.Fatal("deliver to a closed conn should report false")
	}
}

func TestDeliverFullQueueIsSkipped(t *testing.T) {
	r := newTestRegistry()
	c := r.Attach()

	for i := 0; i < sendQueueSize; i++ {
		if !c.Deliver(ServerEvent{Event: "fill"}) {
			t.Fatalf("queue filled early at %d", i)
		}
	}
	if c.Deliver(ServerEvent{Event: "overflow"}) {
		t.Fatal("deliver to a full queue should report false")
	}
}
