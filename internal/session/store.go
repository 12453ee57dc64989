package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store keeps session state in memory. Sessions expire ttl after their last
// use. Updates to the same store are serialized.
type Store struct {
	mu       sync.Mutex
	sessions *expirable.LRU[string, *State]
	now      func() time.Time
}

// NewStore creates a Store holding at most size sessions.
func NewStore(size int, ttl time.Duration) *Store {
	return &Store{
		sessions: expirable.NewLRU[string, *State](size, nil, ttl),
		now:      time.Now,
	}
}

// Create starts a session with the given initial selection.
func (s *Store) Create(app, env string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	state := &State{
		ID:         uuid.NewString(),
		CurrentApp: app,
		CurrentEnv: env,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.sessions.Add(state.ID, state)
	return state.clone()
}

// Get returns a copy of the session with id and extends its lifetime.
func (s *Store) Get(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions.Get(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}
	s.sessions.Add(id, state)
	return state.clone(), nil
}

// Update applies fn to the session with id and returns the resulting state.
// If fn fails the session is left unchanged.
func (s *Store) Update(id string, fn func(*State) error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions.Get(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}

	next := current.clone()
	if err := fn(&next); err != nil {
		return current.clone(), err
	}
	next.UpdatedAt = s.now()

	s.sessions.Add(id, &next)
	return next.clone(), nil
}

// Delete ends the session with id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Remove(id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	return s.sessions.Len()
}
