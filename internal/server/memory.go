package server

import (
	"context"
	"sync"
)

// MemStore is an in-memory session store for single-process deployments
// and tests.
//
// Get hands out copies, so concurrent handlers working on the same
// session never share mutable state; concurrent writes resolve last
// Put wins, the same as the Mongo store.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{sessions: make(map[string]*Session)}
}

// Get retrieves a copy of the session by id.
func (s *MemStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	if ok {
		sess = sess.Clone()
	}
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.IsExpired() {
		_ = s.Delete(ctx, id)
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Put stores a copy of the session, replacing any stored one.
func (s *MemStore) Put(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

// Delete removes a session.
func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Cleanup removes expired sessions.
func (s *MemStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.IsExpired() {
			delete(s.sessions, id)
		}
	}
	return nil
}

// Close does nothing for the in-memory store.
func (s *MemStore) Close(ctx context.Context) error { return nil }

// Ensure MemStore implements Store.
var _ Store = (*MemStore)(nil)
