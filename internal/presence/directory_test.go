package presence

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/models"
)

const testTimeout = 15 * time.Minute

// fixedClock drives a Directory through time in tests.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *fixedClock) rewind(d time.Duration)  { c.t = c.t.Add(-d) }

func newTestDirectory() (*Directory, *fixedClock) {
	clock := &fixedClock{t: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)}
	d := NewDirectory(testTimeout, zerolog.Nop())
	d.now = clock.now
	return d, clock
}

func meta(name string) models.SessionMeta {
	return models.SessionMeta{Name: name, Role: "journalist", ClientIP: "10.0.0.1"}
}

func TestHeartbeatRegistersThenRefreshes(t *testing.T) {
	d, clock := newTestDirectory()

	if got := d.Heartbeat("ana", meta("Ana")); got != Registered {
		t.Fatalf("first heartbeat should register, got %s", got)
	}

	clock.advance(time.Minute)
	if got := d.Heartbeat("ana", meta("Ana")); got != Refreshed {
		t.Fatalf("second heartbeat should refresh, got %s", got)
	}

	if got := d.Count(); got != 1 {
		t.Fatalf("expected 1 online, got %d", got)
	}
}

func TestHeartbeatIsMonotonic(t *testing.T) {
	d, clock := newTestDirectory()

	d.Heartbeat("ana", meta("Ana"))
	clock.advance(5 * time.Minute)
	d.Heartbeat("ana", meta("Ana"))

	// A delayed heartbeat arriving out of order must not move activity
	// backwards.
	clock.rewind(3 * time.Minute)
	d.Heartbeat("ana", meta("Ana"))

	clock.advance(3 * time.Minute)
	clock.advance(testTimeout - time.Minute)
	if got := d.Count(); got != 1 {
		t.Fatal("entry aged from the later heartbeat, should still be online")
	}
}

func TestStaleEntryEvictedOnRead(t *testing.T) {
	d, clock := newTestDirectory()

	d.Heartbeat("ana", meta("Ana"))
	d.Heartbeat("bruno", meta("Bruno"))

	clock.advance(10 * time.Minute)
	d.Heartbeat("bruno", meta("Bruno"))

	clock.advance(6 * time.Minute) // ana at 16m, bruno at 6m

	users := d.ListOnline()
	if len(users) != 1 || users[0].Identity != "bruno" {
		t.Fatalf("expected only bruno online, got %+v", users)
	}
}

func TestExactTimeoutBoundaryStaysOnline(t *testing.T) {
	d, clock := newTestDirectory()

	d.Heartbeat("ana", meta("Ana"))
	clock.advance(testTimeout)

	if got := d.Count(); got != 1 {
		t.Fatal("entry exactly at the timeout is still online")
	}

	clock.advance(time.Nanosecond)
	if got := d.Count(); got != 0 {
		t.Fatal("entry past the timeout is offline")
	}
}

func TestHeartbeatAfterStalenessStartsFreshSession(t *testing.T) {
	d, clock := newTestDirectory()

	d.Heartbeat("ana", meta("Ana"))
	clock.advance(20 * time.Minute)

	if got := d.Heartbeat("ana", meta("Ana")); got != Registered {
		t.Fatalf("heartbeat on a stale entry should re-register, got %s", got)
	}

	clock.advance(2 * time.Minute)
	users := d.ListOnline()
	if len(users) != 1 {
		t.Fatalf("expected 1 online, got %d", len(users))
	}
	if users[0].OnlineFor != 2 {
		t.Fatalf("online-for should count from re-registration, got %d", users[0].OnlineFor)
	}
}

func TestRecordLoginOverwrites(t *testing.T) {
	d, clock := newTestDirectory()

	d.RecordLogin("ana", meta("Ana"))
	clock.advance(30 * time.Minute)

	// A fresh login replaces the stale entry outright.
	d.RecordLogin("ana", meta("Ana"))
	if got := d.Count(); got != 1 {
		t.Fatalf("expected 1 online after re-login, got %d", got)
	}

	users := d.ListOnline()
	if users[0].OnlineFor != 0 {
		t.Fatalf("session should restart at login, got online-for %d", users[0].OnlineFor)
	}
}

func TestRemoveSessionIsImmediate(t *testing.T) {
	d, _ := newTestDirectory()

	d.RecordLogin("ana", meta("Ana"))
	d.RecordLogin("bruno", meta("Bruno"))

	d.RemoveSession("ana")
	d.RemoveSession("no-such-user") // no-op

	users := d.ListOnline()
	if len(users) != 1 || users[0].Identity != "bruno" {
		t.Fatalf("expected only bruno after removal, got %+v", users)
	}
}

func TestListOnlineOrdersByLongestOnline(t *testing.T) {
	d, clock := newTestDirectory()

	d.RecordLogin("ana", meta("Ana"))
	clock.advance(10 * time.Minute)
	d.RecordLogin("bruno", meta("Bruno"))
	clock.advance(5 * time.Minute)
	d.Heartbeat("ana", meta("Ana"))

	users := d.ListOnline()
	if len(users) != 2 {
		t.Fatalf("expected 2 online, got %d", len(users))
	}
	if users[0].Identity != "ana" || users[0].OnlineFor != 15 {
		t.Fatalf("ana should lead with 15 minutes, got %+v", users[0])
	}
	if users[1].Identity != "bruno" || users[1].OnlineFor != 5 {
		t.Fatalf("bruno should follow with 5 minutes, got %+v", users[1])
	}
}

func TestListOnlineCarriesSessionMeta(t *testing.T) {
	d, _ := newTestDirectory()

	d.RecordLogin("ana", models.SessionMeta{Name: "Ana", Role: "editor", ClientIP: "10.1.2.3"})

	users := d.ListOnline()
	u := users[0]
	if u.Name != "Ana" || u.Role != "editor" || u.ClientIP != "10.1.2.3" {
		t.Fatalf("session metadata lost: %+v", u)
	}
}
