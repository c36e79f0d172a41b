package auth

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"shipdeck/internal/api"
)

// Session tracks who is logged in. It starts in the loading state and every
// Initialize path resolves loading to false; nothing may leave it hanging.
type Session struct {
	client *api.Client
	creds  *CredentialStore
	log    *zap.Logger

	mu            sync.Mutex
	user          *api.Account
	authenticated bool
	loading       bool
}

// NewSession wires the session to its credential store and API client.
func NewSession(client *api.Client, creds *CredentialStore, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		client:  client,
		creds:   creds,
		log:     log.Named("auth"),
		loading: true,
	}
}

// Initialize restores a persisted session. With no stored token it resolves
// unauthenticated immediately. With one, the cached snapshot is applied
// optimistically for instant display, then /auth/me/ validates the token: on
// success the snapshot is refreshed, on failure all credential state is
// cleared. Never returns an error for the unauthenticated outcome.
func (s *Session) Initialize(ctx context.Context) error {
	defer s.setLoading(false)

	if s.creds.Access() == "" {
		s.setState(nil, false)
		return nil
	}

	if cached := s.creds.Account(); cached != nil {
		s.setState(cached, true)
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		var netErr *api.NetworkError
		if errors.As(err, &netErr) {
			// Offline is not an expired session; keep the optimistic state
			// and let the next request decide.
			s.log.Warn("session validation unreachable", zap.Error(err))
			return err
		}
		// Token expired and refresh failed.
		_ = s.creds.Clear()
		s.setState(nil, false)
		s.log.Info("stored session rejected, cleared credentials")
		return nil
	}

	_ = s.creds.SetAccount(user)
	s.setState(user, true)
	return nil
}

// Login exchanges credentials for a token pair and persists everything. An
// invalid pair surfaces as api.AuthenticationError.
func (s *Session) Login(ctx context.Context, username, password string) error {
	resp, err := s.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	user := resp.User
	if err := s.creds.SetSession(resp.Access, resp.Refresh, &user); err != nil {
		return err
	}
	s.setState(&user, true)
	s.log.Info("logged in", zap.String("username", user.Username))
	return nil
}

// Logout clears persisted credential state and resets the session. It is
// synchronous and performs no network call.
func (s *Session) Logout() {
	_ = s.creds.Clear()
	s.setState(nil, false)
	s.log.Info("logged out")
}

// RefreshUser re-fetches the account snapshot, e.g. after a balance-changing
// purchase. Failures are swallowed: credential expiry is handled globally by
// the transport's refresh protocol.
func (s *Session) RefreshUser(ctx context.Context) {
	user, err := s.client.Me(ctx)
	if err != nil {
		s.log.Debug("account refresh failed", zap.Error(err))
		return
	}
	_ = s.creds.SetAccount(user)
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// User returns the current account snapshot, or nil.
func (s *Session) User() *api.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a session is active.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// IsLoading reports whether Initialize has not yet resolved.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) setState(user *api.Account, authenticated bool) {
	s.mu.Lock()
	s.user = user
	s.authenticated = authenticated
	s.mu.Unlock()
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
