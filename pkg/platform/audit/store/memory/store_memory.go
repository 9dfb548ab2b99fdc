package memory

import (
	"context"
	"sync"

	audit "healthrisk/pkg/platform/audit"
)

// DefaultCapacity bounds how many events the store retains.
const DefaultCapacity = 10000

// InMemoryStore keeps the most recent events in a ring buffer. Once full, each
// append overwrites the oldest event.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
	next   int
	full   bool
}

type Option func(*InMemoryStore)

// WithCapacity sets the ring size. Non-positive values keep DefaultCapacity.
func WithCapacity(n int) Option {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.events = make([]audit.Event, n)
		}
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{events: make([]audit.Event, DefaultCapacity)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.events)
	s.next = 0
	s.full = false
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[s.next] = event
	s.next = (s.next + 1) % len(s.events)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// ListBySubject returns retained events for subject, oldest first.
func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []audit.Event{}
	s.each(func(e audit.Event) {
		if e.Subject == subject {
			out = append(out, e)
		}
	})
	return out, nil
}

// Len reports how many events are retained.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.full {
		return len(s.events)
	}
	return s.next
}

func (s *InMemoryStore) each(fn func(audit.Event)) {
	if s.full {
		for _, e := range s.events[s.next:] {
			fn(e)
		}
	}
	for _, e := range s.events[:s.next] {
		fn(e)
	}
}
