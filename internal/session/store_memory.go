package session

import (
	"context"
	"sync"

	"carteirinha/internal/student/models"
	"carteirinha/pkg/platform/sentinel"
)

// InMemoryStore backs controller tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	current *models.Student
}

// NewInMemory constructs an empty in-memory session store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Load(_ context.Context) (models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Student{}, sentinel.ErrNotFound
	}
	return *s.current, nil
}

func (s *InMemoryStore) Save(_ context.Context, student models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &student
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return nil
}
