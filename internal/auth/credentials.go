// Package auth owns local credential state and the session lifecycle: the
// persisted token pair plus cached account snapshot, and the
// initialize/login/logout flows built on top of them.
package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"shipdeck/internal/api"
)

// credentialFile is the on-disk shape. Access token, refresh token and the
// account snapshot are always persisted and invalidated together.
type credentialFile struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    *api.Account `json:"user,omitempty"`
}

// CredentialStore persists the token pair and cached account snapshot as a
// single JSON file (mode 0600). It implements api.CredentialSource.
type CredentialStore struct {
	path string

	mu    sync.Mutex
	state credentialFile
}

// DefaultCredentialPath is ~/.shipdeck/credentials.json.
func DefaultCredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".shipdeck", "credentials.json"), nil
}

// NewCredentialStore loads any existing credential file at path. A missing or
// unreadable file just yields an empty store.
func NewCredentialStore(path string) *CredentialStore {
	cs := &CredentialStore{path: path}
	_ = cs.load()
	return cs
}

func (cs *CredentialStore) load() error {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		return err
	}
	var state credentialFile
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	cs.mu.Lock()
	cs.state = state
	cs.mu.Unlock()
	return nil
}

func (cs *CredentialStore) save() error {
	cs.mu.Lock()
	data, err := json.MarshalIndent(cs.state, "", "  ")
	cs.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cs.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(cs.path, data, 0o600)
}

// Access returns the current access token, or "" when logged out.
func (cs *CredentialStore) Access() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.state.Access
}

// Refresh returns the current refresh token, or "" when logged out.
func (cs *CredentialStore) Refresh() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.state.Refresh
}

// Account returns the cached snapshot, or nil. The snapshot is a hint for
// instant display; authoritative state comes from the /auth/me/ round trip.
func (cs *CredentialStore) Account() *api.Account {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.state.User == nil {
		return nil
	}
	u := *cs.state.User
	return &u
}

// Update stores a new access token and, when non-empty, a rotated refresh
// token. Called by the transport's refresh protocol.
func (cs *CredentialStore) Update(access, refresh string) error {
	cs.mu.Lock()
	cs.state.Access = access
	if refresh != "" {
		cs.state.Refresh = refresh
	}
	cs.mu.Unlock()
	return cs.save()
}

// SetSession replaces the full credential state after a login.
func (cs *CredentialStore) SetSession(access, refresh string, user *api.Account) error {
	cs.mu.Lock()
	cs.state = credentialFile{Access: access, Refresh: refresh, User: user}
	cs.mu.Unlock()
	return cs.save()
}

// SetAccount refreshes only the cached snapshot.
func (cs *CredentialStore) SetAccount(user *api.Account) error {
	cs.mu.Lock()
	cs.state.User = user
	cs.mu.Unlock()
	return cs.save()
}

// Clear wipes in-memory and on-disk credential state.
func (cs *CredentialStore) Clear() error {
	cs.mu.Lock()
	cs.state = credentialFile{}
	cs.mu.Unlock()
	err := os.Remove(cs.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
