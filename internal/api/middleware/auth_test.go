package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/store"
)

// fakeResolver maps tokens to sessions in memory.
type fakeResolver struct {
	sessions map[string]*store.Session
}

func (f *fakeResolver) GetSession(_ context.Context, token string) (*store.Session, error) {
	return f.sessions[token], nil
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	auth := NewAuthMiddleware(&fakeResolver{sessions: map[string]*store.Session{
		"good-token": {UserID: "u1", Name: "Ana", Role: "journalist"},
	}})

	cases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"unknown token", "Bearer bad-token", http.StatusUnauthorized},
		{"valid token", "Bearer good-token", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			auth.RequireAuth(okHandler(&called)).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("want %d, got %d", tc.wantStatus, rec.Code)
			}
			if called != (tc.wantStatus == http.StatusOK) {
				t.Fatalf("handler called=%v for status %d", called, rec.Code)
			}
		})
	}
}

func TestRequireAuthSetsContext(t *testing.T) {
	auth := NewAuthMiddleware(&fakeResolver{sessions: map[string]*store.Session{
		"tok": {UserID: "u1", Name: "Ana", Role: "editor"},
	}})

	var gotSess *store.Session
	var gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSess = GetSessionFromContext(r.Context())
		gotToken = GetTokenFromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	auth.RequireAuth(next).ServeHTTP(httptest.NewRecorder(), req)

	if gotSess == nil || gotSess.UserID != "u1" {
		t.Fatalf("session not in context: %+v", gotSess)
	}
	if gotToken != "tok" {
		t.Fatalf("token not in context: %q", gotToken)
	}
}

func TestRequireAdmin(t *testing.T) {
	auth := NewAuthMiddleware(&fakeResolver{sessions: map[string]*store.Session{
		"admin-tok": {UserID: "u1", Role: "admin"},
		"staff-tok": {UserID: "u2", Role: "journalist"},
	}})

	cases := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"admin passes", "admin-tok", http.StatusOK},
		{"staff forbidden", "staff-tok", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			rec := httptest.NewRecorder()

			auth.RequireAuth(auth.RequireAdmin(okHandler(&called))).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("want %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}
