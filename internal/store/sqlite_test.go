package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "ana", "Ana García", "editor", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	byID, err := s.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID == nil || byID.Username != "ana" || byID.Role != "editor" {
		t.Fatalf("wrong user: %+v", byID)
	}

	byName, err := s.GetUserByUsername(ctx, "ana")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName == nil || byName.ID != created.ID {
		t.Fatalf("username lookup mismatch: %+v", byName)
	}

	count, err := s.CountUsers(ctx)
	if err != nil || count != 1 {
		t.Fatalf("count users: %d, %v", count, err)
	}
}

func TestUnknownUserReturnsNil(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.GetUserByID(ctx, uuid.New())
	if err != nil || u != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", u, err)
	}

	u, err = s.GetUserByUsername(ctx, "nadie")
	if err != nil || u != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", u, err)
	}
}

func TestMessageHistoryOrderAndScope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, m := range []struct{ from, to, body string }{
		{"7", "9", "uno"},
		{"9", "7", "dos"},
		{"7", "9", "tres"},
		{"7", "11", "otro hilo"},
	} {
		msg, err := s.SaveMessage(ctx, m.from, m.to, m.body)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		if msg.ID == "" || msg.SentAt.IsZero() {
			t.Fatal("stored message missing id or timestamp")
		}
	}

	// Same transcript regardless of which side asks.
	for _, pair := range [][2]string{{"7", "9"}, {"9", "7"}} {
		msgs, err := s.History(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(msgs))
		}
		for i, want := range []string{"uno", "dos", "tres"} {
			if msgs[i].Content != want {
				t.Fatalf("position %d: want %q, got %q", i, want, msgs[i].Content)
			}
		}
	}

	count, err := s.CountMessages(ctx)
	if err != nil || count != 4 {
		t.Fatalf("count messages: %d, %v", count, err)
	}
}

func TestHistoryEmptyConversation(t *testing.T) {
	s := newTestStore(t)

	msgs, err := s.History(context.Background(), "7", "9")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty transcript, got %d", len(msgs))
	}
}

func TestSelfConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveMessage(ctx, "7", "7", "nota personal"); err != nil {
		t.Fatalf("save: %v", err)
	}

	msgs, err := s.History(ctx, "7", "7")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "nota personal" {
		t.Fatalf("self conversation lost: %+v", msgs)
	}
}
