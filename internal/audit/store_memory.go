package audit

import (
	"context"
	"sync"

	id "evote/pkg/domain"
)

// DefaultMemoryCapacity is the number of events an InMemoryStore keeps
// when no capacity is given.
const DefaultMemoryCapacity = 10_000

// InMemoryStore keeps the most recent events in a fixed-size ring. Once
// full, each Append overwrites the oldest event.
type InMemoryStore struct {
	mu     sync.RWMutex
	ring   []Event
	next   int
	filled bool
}

// MemoryOption configures an InMemoryStore.
type MemoryOption func(*InMemoryStore)

// WithCapacity bounds the ring. Non-positive values keep the default.
func WithCapacity(n int) MemoryOption {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.ring = make([]Event, n)
		}
	}
}

// NewInMemoryStore constructs a ring-buffered audit store.
func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	if s.ring == nil {
		s.ring = make([]Event, DefaultMemoryCapacity)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring[s.next] = event
	s.next = (s.next + 1) % len(s.ring)
	if s.next == 0 {
		s.filled = true
	}
	return nil
}

// ListByVoter returns the retained events for voterID, oldest first.
func (s *InMemoryStore) ListByVoter(_ context.Context, voterID id.VoterID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Event{}
	if voterID.IsNil() {
		return out, nil
	}
	for _, e := range s.ordered() {
		if e.VoterID == voterID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListRecent returns up to limit of the most recent events, oldest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.ordered()
	start := max(len(all)-max(limit, 0), 0)
	return append([]Event{}, all[start:]...), nil
}

// Len returns the number of retained events.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.filled {
		return len(s.ring)
	}
	return s.next
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ring)
	s.next, s.filled = 0, false
}

// ordered returns retained events oldest first. Callers hold mu.
func (s *InMemoryStore) ordered() []Event {
	if !s.filled {
		return s.ring[:s.next]
	}
	out := make([]Event, 0, len(s.ring))
	out = append(out, s.ring[s.next:]...)
	return append(out, s.ring[:s.next]...)
}
