package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SessionPersistence stores the current session between runs.
// Load returns (nil, nil) when no session is stored.
type SessionPersistence interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// FileSessionStore persists the session as a JSON file, by default under
// the user config dir.
type FileSessionStore struct {
	Path string
}

func NewFileSessionStore(path string) (*FileSessionStore, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving user config dir: %w", err)
		}
		path = filepath.Join(configDir, "friturisme", "session.json")
	}
	return &FileSessionStore{Path: path}, nil
}

func (s *FileSessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file '%s': %w", s.Path, err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshalling session file '%s': %w", s.Path, err)
	}
	return &session, nil
}

func (s *FileSessionStore) Save(session *Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file '%s': %w", s.Path, err)
	}
	return nil
}

func (s *FileSessionStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemorySessionStore is the in-memory persistence used in tests.
type MemorySessionStore struct {
	session *Session
}

func (s *MemorySessionStore) Load() (*Session, error) {
	return s.session, nil
}

func (s *MemorySessionStore) Save(session *Session) error {
	s.session = session
	return nil
}

func (s *MemorySessionStore) Clear() error {
	s.session = nil
	return nil
}
