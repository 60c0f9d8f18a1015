package core

import (
	"context"
	"sync"
	"time"
)

// TurnRecord is one completed turn appended to a session's history.
type TurnRecord struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	AnswerText string    `json:"answer_text"`
	AgentID    string    `json:"agent_id"`
	Status     Status    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// Session represents a conversational container tracking mutable key/value
// state plus an ordered turn history. It is safe for concurrent access.
//
// Contract:
//   - State mutations update the Updated timestamp
//   - GetTurns returns a defensive copy to avoid external mutation
//   - Clone performs deep copies of maps/slices for safe divergence
//
// A session's turns are processed strictly sequentially by the owning client;
// the only cross-turn guarantee is "last write to a state field wins".
type Session struct {
	ID       string            `json:"id"`
	State    map[string]any    `json:"state"`
	Turns    []TurnRecord      `json:"turns"`
	Created  time.Time         `json:"created"`
	Updated  time.Time         `json:"updated"`
	Metadata map[string]string `json:"metadata"`
	mu       sync.RWMutex
}

// NewSession creates a new session with the given ID.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:       id,
		State:    map[string]any{},
		Turns:    []TurnRecord{},
		Created:  now,
		Updated:  now,
		Metadata: map[string]string{},
	}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// SetState sets a key/value pair in session state updating the Updated timestamp.
func (s *Session) SetState(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State[key] = value
	s.Updated = time.Now().UTC()
}

// ApplyStateDelta merges the provided key/value pairs into State.
func (s *Session) ApplyStateDelta(delta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.State[k] = v
	}
	s.Updated = time.Now().UTC()
}

// StateSnapshot returns a copy of the current state map.
func (s *Session) StateSnapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]any, len(s.State))
	for k, v := range s.State {
		snap[k] = v
	}
	return snap
}

// AddTurn appends a turn record to the history updating the Updated timestamp.
func (s *Session) AddTurn(t TurnRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Turns = append(s.Turns, t)
	s.Updated = time.Now().UTC()
}

// GetTurns returns a defensive copy of the full turn history.
func (s *Session) GetTurns() []TurnRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]TurnRecord, len(s.Turns))
	copy(turns, s.Turns)
	return turns
}

// RecentTurns returns up to n most recent turns, oldest first.
func (s *Session) RecentTurns(n int) []TurnRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || len(s.Turns) == 0 {
		return []TurnRecord{}
	}
	start := len(s.Turns) - n
	if start < 0 {
		start = 0
	}
	turns := make([]TurnRecord, len(s.Turns)-start)
	copy(turns, s.Turns[start:])
	return turns
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:       s.ID,
		State:    make(map[string]any, len(s.State)),
		Turns:    make([]TurnRecord, len(s.Turns)),
		Created:  s.Created,
		Updated:  s.Updated,
		Metadata: make(map[string]string, len(s.Metadata)),
	}
	for k, v := range s.State {
		clone.State[k] = v
	}
	copy(clone.Turns, s.Turns)
	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// SessionStore persists sessions and their evolving state / turn history.
// Get creates a session lazily when none exists; Touch additionally refreshes
// any backend expiry (TTL) for the session.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	ApplyDelta(ctx context.Context, id string, delta map[string]any) error
	AppendTurn(ctx context.Context, id string, t TurnRecord) error
}
