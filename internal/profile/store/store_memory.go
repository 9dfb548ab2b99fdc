package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"healthrisk/internal/profile"
	"healthrisk/pkg/platform/sentinel"
)

// InMemoryStore keeps assessments in process memory. Suitable for a single
// instance and for tests; nothing survives a restart.
type InMemoryStore struct {
	mu          sync.RWMutex
	assessments map[uuid.UUID]profile.Assessment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{assessments: make(map[uuid.UUID]profile.Assessment)}
}

// Save stores a copy of the assessment, replacing any previous entry with the same ID.
func (s *InMemoryStore) Save(_ context.Context, a *profile.Assessment) error {
	if a == nil {
		return fmt.Errorf("assessment is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.ID] = cloneAssessment(*a)
	return nil
}

// FindByID returns a copy of the stored assessment or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*profile.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assessments[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneAssessment(a)
	return &out, nil
}

func cloneAssessment(a profile.Assessment) profile.Assessment {
	a.Factors = append([]profile.Factor{}, a.Factors...)
	a.Recommendations = append([]string{}, a.Recommendations...)
	if a.Missing != nil {
		a.Missing = append([]profile.Field{}, a.Missing...)
	}
	return a
}
