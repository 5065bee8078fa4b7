// Package session holds the single source of truth for "is someone
// logged in right now".
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/friturisme/friturisme/pkg/identity"
)

// Observer is notified with the new session (or nil on sign-out) after
// every change. Notifications arrive in provider emission order.
type Observer func(*identity.Session)

type observerEntry struct {
	id int
	fn Observer
}

// Store owns the current session for the lifetime of the process.
// A change notification replaces the held value whole; there is no
// merging. The store is the only writer, everyone else reads.
type Store struct {
	provider identity.Provider

	mu        sync.RWMutex
	current   *identity.Session
	restored  bool
	observers []observerEntry
	nextID    int

	unsubscribe func()
}

func NewStore(provider identity.Provider) *Store {
	return &Store{provider: provider}
}

// Start subscribes to provider notifications and restores any persisted
// session. Before Start completes the store is in the "unknown" state:
// Current reports restored == false and redirect decisions must wait.
func (s *Store) Start(ctx context.Context) error {
	s.unsubscribe = s.provider.OnSessionChange(s.apply)

	persisted, err := s.provider.PersistedSession(ctx)
	if err != nil {
		slog.Warn("unable to restore persisted session", "error", err)
	}

	s.mu.Lock()
	if s.current == nil {
		// a provider notification may have raced the restore; the
		// notification wins, the restored value never overwrites it
		s.current = persisted
	}
	s.restored = true
	s.mu.Unlock()

	if persisted != nil {
		slog.Info("restored persisted session", "user_id", persisted.User.ID)
	}
	return nil
}

// Current returns the session (nil when signed out) and whether
// restoration has completed.
func (s *Store) Current() (*identity.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.restored
}

// Subscribe registers an observer. The returned function removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, entry := range s.observers {
			if entry.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Close detaches the store from the provider.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Store) apply(session *identity.Session) {
	s.mu.Lock()
	s.current = session
	observers := make([]observerEntry, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, entry := range observers {
		entry.fn(session)
	}
}
