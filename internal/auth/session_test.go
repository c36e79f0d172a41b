package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"shipdeck/internal/api"
)

func newTestSession(t *testing.T, handler http.Handler) (*Session, *CredentialStore, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cs := NewCredentialStore(filepath.Join(t.TempDir(), "credentials.json"))
	client := api.New(srv.URL, time.Second, cs, nil)
	return NewSession(client, cs, nil), cs, srv
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSession_InitializeWithoutToken(t *testing.T) {
	s, _, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s with no stored token", r.URL.Path)
	}))

	if !s.IsLoading() {
		t.Error("session must start loading")
	}
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if s.IsAuthenticated() || s.User() != nil {
		t.Error("no token must resolve unauthenticated")
	}
	if s.IsLoading() {
		t.Error("Initialize must resolve loading")
	}
}

func TestSession_InitializeValidToken(t *testing.T) {
	s, cs, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me/" {
			http.NotFound(w, r)
			return
		}
		respond(w, 200, api.Account{
			ID:       1,
			Username: "shipper",
			Profile:  api.AccountProfile{Balance: 99.75},
		})
	}))

	// Stale cached snapshot; /auth/me/ is authoritative.
	stale := &api.Account{ID: 1, Username: "shipper", Profile: api.AccountProfile{Balance: 10}}
	if err := cs.SetSession("valid-token", "r1", stale); err != nil {
		t.Fatal(err)
	}

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !s.IsAuthenticated() {
		t.Fatal("want authenticated")
	}
	u := s.User()
	if u == nil || u.Profile.Balance != 99.75 {
		t.Errorf("user = %+v, want server balance 99.75", u)
	}
	if cached := cs.Account(); cached == nil || cached.Profile.Balance != 99.75 {
		t.Error("snapshot on disk not refreshed")
	}
}

func TestSession_InitializeRejectedToken(t *testing.T) {
	s, cs, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, 401, map[string]string{"detail": "token expired"})
	}))
	if err := cs.SetSession("expired", "also-expired", &api.Account{Username: "shipper"}); err != nil {
		t.Fatal(err)
	}

	// An expired session is a normal outcome, not an Initialize error.
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if s.IsAuthenticated() || s.User() != nil {
		t.Error("rejected token must resolve unauthenticated")
	}
	if cs.Access() != "" {
		t.Error("credentials must be cleared")
	}
	if s.IsLoading() {
		t.Error("loading must resolve")
	}
}

func TestSession_InitializeOffline(t *testing.T) {
	cs := NewCredentialStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err := cs.SetSession("token", "r1", &api.Account{Username: "shipper"}); err != nil {
		t.Fatal(err)
	}
	// Nothing listening: every request is a network error.
	client := api.New("http://127.0.0.1:1", 500*time.Millisecond, cs, nil)
	s := NewSession(client, cs, nil)

	err := s.Initialize(context.Background())
	var netErr *api.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("want NetworkError, got %v", err)
	}
	// Offline keeps the optimistic cached state and the stored credentials.
	if !s.IsAuthenticated() {
		t.Error("offline must keep the optimistic session")
	}
	if cs.Access() == "" {
		t.Error("offline must not clear credentials")
	}
	if s.IsLoading() {
		t.Error("loading must resolve even on error")
	}
}

func TestSession_LoginLogout(t *testing.T) {
	s, cs, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login/" {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "shipper" || body["password"] != "hunter2" {
			respond(w, 401, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		respond(w, 200, api.LoginResponse{
			Access:  "a1",
			Refresh: "r1",
			User:    api.Account{ID: 1, Username: "shipper", Profile: api.AccountProfile{Balance: 50}},
		})
	}))

	if err := s.Login(context.Background(), "shipper", "wrong"); err == nil {
		t.Fatal("bad password must fail")
	}
	if s.IsAuthenticated() {
		t.Error("failed login must not authenticate")
	}

	if err := s.Login(context.Background(), "shipper", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !s.IsAuthenticated() || s.User() == nil {
		t.Fatal("want authenticated session")
	}
	if cs.Access() != "a1" || cs.Refresh() != "r1" {
		t.Error("tokens not persisted")
	}

	s.Logout()
	if s.IsAuthenticated() || s.User() != nil {
		t.Error("logout must reset the session")
	}
	if cs.Access() != "" {
		t.Error("logout must clear stored credentials")
	}
}

func TestSession_RefreshUser(t *testing.T) {
	balance := 100.0
	s, cs, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, 200, api.Account{ID: 1, Username: "shipper", Profile: api.AccountProfile{Balance: balance}})
	}))
	if err := cs.SetSession("token", "r1", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	balance = 42.25
	s.RefreshUser(context.Background())
	if u := s.User(); u == nil || u.Profile.Balance != 42.25 {
		t.Errorf("user = %+v, want refreshed balance", u)
	}
}
