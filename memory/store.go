// Package memory persists conversation sessions across process restarts.
// Backends live in subpackages; the in-memory store here backs tests and
// single-process deployments.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/smallnest/docraggo/rag"
)

// ErrSessionNotFound is returned when loading or deleting an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists sessions keyed by session ID. Save overwrites any
// prior state for the same ID.
type SessionStore interface {
	Save(ctx context.Context, session rag.Session) error
	Load(ctx context.Context, sessionID string) (rag.Session, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, sessionID string) error
}

// InMemorySessionStore is a thread-safe map-backed session store.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]rag.Session
}

var _ SessionStore = (*InMemorySessionStore)(nil)

// NewInMemorySessionStore creates an empty store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]rag.Session)}
}

// Save stores a deep copy of the session, so later mutations of the caller's
// value don't leak into the store.
func (s *InMemorySessionStore) Save(ctx context.Context, session rag.Session) error {
	if session.ID == "" {
		return errors.New("session ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

// Load returns a copy of the stored session.
func (s *InMemorySessionStore) Load(ctx context.Context, sessionID string) (rag.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return rag.Session{}, ErrSessionNotFound
	}
	return session.Clone(), nil
}

// List returns the stored session IDs in sorted order.
func (s *InMemorySessionStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes a session.
func (s *InMemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
