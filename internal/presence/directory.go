// Package presence tracks which staff members are online. Freshness is
// driven by client heartbeats, not by realtime connection state: a user with
// no open socket stays online as long as their browser keeps heartbeating,
// and a user with an open socket goes offline once heartbeats stop.
package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/metrics"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/models"
)

// HeartbeatResult tags what a heartbeat did: created a missing entry or
// refreshed an existing one.
type HeartbeatResult string

const (
	Registered HeartbeatResult = "registered"
	Refreshed  HeartbeatResult = "refreshed"
)

type entry struct {
	identity     string
	meta         models.SessionMeta
	lastActivity time.Time
	sessionStart time.Time
}

// Directory is the in-memory presence registry. One entry per identity; an
// entry whose last activity is older than the timeout is treated as absent
// on every read and physically removed by the sweep or the next read.
type Directory struct {
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time // replaced in tests

	mu      sync.Mutex
	entries map[string]*entry
}

// NewDirectory creates a presence directory with the given staleness
// timeout.
func NewDirectory(timeout time.Duration, logger zerolog.Logger) *Directory {
	return &Directory{
		timeout: timeout,
		logger:  logger.With().Str("component", "presence").Logger(),
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// RecordLogin unconditionally creates or overwrites the identity's entry,
// starting a fresh session. Called once per successful authentication.
func (d *Directory) RecordLogin(identity string, meta models.SessionMeta) {
	now := d.now()

	d.mu.Lock()
	d.entries[identity] = &entry{
		identity:     identity,
		meta:         meta,
		lastActivity: now,
		sessionStart: now,
	}
	d.mu.Unlock()

	metrics.Logins.Inc()
	d.logger.Debug().Str("identity", identity).Msg("session recorded")
}

// Heartbeat refreshes the identity's freshness. A missing or already-stale
// entry is re-created with a fresh session start (late registration); an
// alive entry only has its last activity bumped. Refreshes are monotonic:
// duplicate or reordered heartbeats never move last activity backwards.
func (d *Directory) Heartbeat(identity string, meta models.SessionMeta) HeartbeatResult {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[identity]
	if !ok || d.staleLocked(e, now) {
		d.entries[identity] = &entry{
			identity:     identity,
			meta:         meta,
			lastActivity: now,
			sessionStart: now,
		}
		metrics.Heartbeats.WithLabelValues(string(Registered)).Inc()
		return Registered
	}

	if now.After(e.lastActivity) {
		e.lastActivity = now
	}
	metrics.Heartbeats.WithLabelValues(string(Refreshed)).Inc()
	return Refreshed
}

// ListOnline evicts every stale entry, then returns the survivors with a
// derived online-for duration, ordered by session start (longest online
// first). An entry expiring concurrently with the call may or may not
// appear; either outcome is accepted.
func (d *Directory) ListOnline() []models.OnlineUser {
	now := d.now()

	d.mu.Lock()
	d.evictLocked(now)

	out := make([]models.OnlineUser, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, models.OnlineUser{
			Identity:   e.identity,
			Name:       e.meta.Name,
			Role:       e.meta.Role,
			ClientIP:   e.meta.ClientIP,
			OnlineFor:  int(now.Sub(e.sessionStart).Minutes()),
			LastActive: e.lastActivity,
		})
	}
	d.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].OnlineFor != out[j].OnlineFor {
			return out[i].OnlineFor > out[j].OnlineFor
		}
		return out[i].Identity < out[j].Identity
	})

	metrics.UsersOnline.Set(float64(len(out)))
	return out
}

// Count returns the number of online identities after evicting stale
// entries.
func (d *Directory) Count() int {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.evictLocked(now)
	return len(d.entries)
}

// RemoveSession deletes the identity's entry immediately, regardless of
// freshness. Used on explicit logout.
func (d *Directory) RemoveSession(identity string) {
	d.mu.Lock()
	delete(d.entries, identity)
	d.mu.Unlock()

	d.logger.Debug().Str("identity", identity).Msg("session removed")
}

// Run sweeps stale entries on a fixed interval until the context is
// cancelled. The sweep is memory hygiene only: reads already ignore and
// evict stale entries, so correctness does not depend on the ticker.
func (d *Directory) Run(ctx context.Context) {
	interval := d.timeout / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info().Dur("interval", interval).Msg("presence sweep started")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("presence sweep stopped")
			return
		case <-ticker.C:
			now := d.now()
			d.mu.Lock()
			evicted := d.evictLocked(now)
			remaining := len(d.entries)
			d.mu.Unlock()

			if evicted > 0 {
				d.logger.Info().
					Int("evicted", evicted).
					Int("online", remaining).
					Msg("stale presence entries evicted")
			}
			metrics.UsersOnline.Set(float64(remaining))
		}
	}
}

// staleLocked reports whether e has outlived the timeout at time now.
func (d *Directory) staleLocked(e *entry, now time.Time) bool {
	return now.Sub(e.lastActivity) > d.timeout
}

// evictLocked removes stale entries and returns how many went. Caller holds
// d.mu.
func (d *Directory) evictLocked(now time.Time) int {
	evicted := 0
	for id, e := range d.entries {
		if d.staleLocked(e, now) {
			delete(d.entries, id)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.PresenceEvictions.Add(float64(evicted))
	}
	return evicted
}
