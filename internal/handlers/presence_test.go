package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/api/middleware"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/models"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/presence"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/store"
)

func metaFor(name, role string) models.SessionMeta {
	return models.SessionMeta{Name: name, Role: role, ClientIP: "10.0.0.1"}
}

func newPresenceHandler(t *testing.T) (*Handler, *presence.Directory) {
	t.Helper()
	dir := presence.NewDirectory(15*time.Minute, zerolog.Nop())
	h := NewHandler(nil, nil, nil, nil, dir, zerolog.Nop())
	return h, dir
}

func withSession(r *http.Request, sess *store.Session) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.SessionContextKey, sess)
	return r.WithContext(ctx)
}

func TestHeartbeatEndpoint(t *testing.T) {
	h, _ := newPresenceHandler(t)

	sess := &store.Session{UserID: "u1", Name: "Ana", Role: "journalist", ClientIP: "10.0.0.1"}

	for i, want := range []string{"registered", "refreshed"} {
		req := withSession(httptest.NewRequest("POST", "/presence/heartbeat", nil), sess)
		rec := httptest.NewRecorder()
		h.Heartbeat(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("heartbeat %d: status %d", i, rec.Code)
		}

		var resp HeartbeatResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("bad response: %v", err)
		}
		if resp.Status != want {
			t.Fatalf("heartbeat %d: want status %q, got %q", i, want, resp.Status)
		}
		if resp.OnlineCount != 1 {
			t.Fatalf("heartbeat %d: want 1 online, got %d", i, resp.OnlineCount)
		}
	}
}

func TestHeartbeatWithoutSession(t *testing.T) {
	h, _ := newPresenceHandler(t)

	rec := httptest.NewRecorder()
	h.Heartbeat(rec, httptest.NewRequest("POST", "/presence/heartbeat", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOnlineEndpoint(t *testing.T) {
	h, dir := newPresenceHandler(t)

	dir.RecordLogin("u1", metaFor("Ana", "editor"))
	dir.RecordLogin("u2", metaFor("Bruno", "journalist"))

	rec := httptest.NewRecorder()
	h.Online(rec, httptest.NewRequest("GET", "/presence/online", nil))

	var resp OnlineResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Total != 2 || len(resp.OnlineUsers) != 2 {
		t.Fatalf("expected 2 online, got %+v", resp)
	}
	if resp.AsOf.IsZero() {
		t.Fatal("asOf missing")
	}
}

func TestLogoutEndpoint(t *testing.T) {
	h, dir := newPresenceHandler(t)

	dir.RecordLogin("u1", metaFor("Ana", "editor"))
	dir.RecordLogin("u2", metaFor("Bruno", "journalist"))

	sess := &store.Session{UserID: "u1", Name: "Ana", Role: "editor"}
	req := withSession(httptest.NewRequest("POST", "/presence/logout", nil), sess)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("logout status %d", rec.Code)
	}

	var resp LogoutResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Remaining != 1 {
		t.Fatalf("expected 1 remaining, got %d", resp.Remaining)
	}
}
