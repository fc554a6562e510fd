package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state    State
	lastSeen time.Time // last Load or Save; expiry slides from here
}

// InMemoryStore keeps session state in a map. Expired sessions are dropped
// lazily on access.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewInMemoryStore creates an in-memory store whose sessions expire after ttl
// without any Load or Save.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &InMemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Load implements Store. Reading a live session refreshes its TTL.
func (s *InMemoryStore) Load(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return newState(id, now), nil
	}
	if now.Sub(e.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return newState(id, now), nil
	}
	e.lastSeen = now
	s.sessions[id] = e
	// Hand out a copy so callers cannot mutate stored state without Save.
	st := e.state
	return &st, nil
}

// Save implements Store.
func (s *InMemoryStore) Save(ctx context.Context, st *State) error {
	if st == nil || st.ID == "" {
		return ErrEmptySessionID
	}
	now := s.now()
	st.UpdatedAt = now
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[st.ID] = memoryEntry{state: *st, lastSeen: now}
	return nil
}

// Len returns the number of sessions currently held, expired ones included.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close implements Store.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]memoryEntry)
	return nil
}
