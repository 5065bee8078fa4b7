package identity

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFileSessionStoreRoundtrip(t *testing.T) {
	store := &FileSessionStore{Path: filepath.Join(t.TempDir(), "friturisme", "session.json")}

	session := &Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
		User:         UserIdentity{ID: "user-1", Email: "jan@friturisme.be"},
	}
	if err := store.Save(session); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("expected a session")
	}
	if loaded.AccessToken != session.AccessToken || loaded.RefreshToken != session.RefreshToken {
		t.Error("token pair not preserved")
	}
	if loaded.User != session.User {
		t.Errorf("user = %+v, want %+v", loaded.User, session.User)
	}
	if !loaded.ExpiresAt.Equal(session.ExpiresAt) {
		t.Errorf("expires_at = %v, want %v", loaded.ExpiresAt, session.ExpiresAt)
	}
}

func TestFileSessionStoreEmpty(t *testing.T) {
	store := &FileSessionStore{Path: filepath.Join(t.TempDir(), "session.json")}

	session, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if session != nil {
		t.Errorf("session = %+v, want nil", session)
	}
}

func TestFileSessionStoreClear(t *testing.T) {
	store := &FileSessionStore{Path: filepath.Join(t.TempDir(), "session.json")}

	if err := store.Save(&Session{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}

	session, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if session != nil {
		t.Error("session survived clear")
	}

	// clearing an already-empty store is not an error
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
}
