package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"shipdeck/internal/api"
)

func testStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "credentials.json")
}

func TestCredentialStore_Roundtrip(t *testing.T) {
	path := testStorePath(t)
	cs := NewCredentialStore(path)

	user := &api.Account{
		ID:       1,
		Username: "shipper",
		Profile:  api.AccountProfile{CompanyName: "Acme", Balance: 125.50},
	}
	if err := cs.SetSession("access-1", "refresh-1", user); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	// A fresh store must read the same state back from disk.
	reloaded := NewCredentialStore(path)
	if reloaded.Access() != "access-1" || reloaded.Refresh() != "refresh-1" {
		t.Errorf("tokens = %q/%q", reloaded.Access(), reloaded.Refresh())
	}
	got := reloaded.Account()
	if got == nil || got.Username != "shipper" || got.Profile.Balance != 125.50 {
		t.Errorf("account = %+v", got)
	}
}

func TestCredentialStore_FileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := testStorePath(t)
	cs := NewCredentialStore(path)
	if err := cs.SetSession("a", "r", nil); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("credential file mode = %o, want 600", info.Mode().Perm())
	}
}

func TestCredentialStore_UpdateKeepsRefresh(t *testing.T) {
	path := testStorePath(t)
	cs := NewCredentialStore(path)
	if err := cs.SetSession("a1", "r1", nil); err != nil {
		t.Fatal(err)
	}

	// Refresh responses without a rotated token keep the old one.
	if err := cs.Update("a2", ""); err != nil {
		t.Fatal(err)
	}
	if cs.Access() != "a2" || cs.Refresh() != "r1" {
		t.Errorf("after Update(a2, \"\"): %q/%q", cs.Access(), cs.Refresh())
	}

	if err := cs.Update("a3", "r2"); err != nil {
		t.Fatal(err)
	}
	if cs.Access() != "a3" || cs.Refresh() != "r2" {
		t.Errorf("after Update(a3, r2): %q/%q", cs.Access(), cs.Refresh())
	}
}

func TestCredentialStore_Clear(t *testing.T) {
	path := testStorePath(t)
	cs := NewCredentialStore(path)
	if err := cs.SetSession("a", "r", &api.Account{Username: "shipper"}); err != nil {
		t.Fatal(err)
	}

	if err := cs.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cs.Access() != "" || cs.Refresh() != "" || cs.Account() != nil {
		t.Error("state survived Clear")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("credential file survived Clear")
	}

	// Clearing an already-empty store is not an error.
	if err := cs.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestCredentialStore_MissingFile(t *testing.T) {
	cs := NewCredentialStore(filepath.Join(t.TempDir(), "nope", "credentials.json"))
	if cs.Access() != "" || cs.Account() != nil {
		t.Error("missing file must yield an empty store")
	}
}

func TestCredentialStore_CorruptFile(t *testing.T) {
	path := testStorePath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	cs := NewCredentialStore(path)
	if cs.Access() != "" {
		t.Error("corrupt file must yield an empty store")
	}
}
