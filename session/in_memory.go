package session

import (
	"context"
	"sync"

	"github.com/campusmesh/campusmesh/core"
)

// InMemoryStore is a volatile SessionStore implementation storing
// sessions in a process local map. It is safe for concurrent access and best
// suited for tests or single-process deployments. Each returned session is
// cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Get returns an existing session (clone) or creates a new one lazily.
func (s *InMemoryStore) Get(_ context.Context, id string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess.Clone(), nil
	}
	return s.createLocked(id).Clone(), nil
}

// Touch behaves like Get. The in-memory store has no expiry to refresh.
func (s *InMemoryStore) Touch(ctx context.Context, id string) (*core.Session, error) {
	return s.Get(ctx, id)
}

// Save stores a clone of the provided session snapshot.
func (s *InMemoryStore) Save(_ context.Context, sess *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

// ApplyDelta merges a key/value delta into the session state.
func (s *InMemoryStore) ApplyDelta(_ context.Context, id string, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = s.createLocked(id)
	}
	sess.ApplyStateDelta(delta)
	return nil
}

// AppendTurn adds a turn record to an existing or newly created session.
func (s *InMemoryStore) AppendTurn(_ context.Context, id string, t core.TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = s.createLocked(id)
	}
	sess.AddTurn(t)
	return nil
}

// createLocked allocates and stores a new session; caller must already hold
// the write lock.
func (s *InMemoryStore) createLocked(id string) *core.Session {
	sess := core.NewSession(id)
	s.sessions[id] = sess
	return sess
}
