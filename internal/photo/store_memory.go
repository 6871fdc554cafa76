package photo

import (
	"context"
	"strings"
	"sync"
)

// InMemoryStore backs tests and keeps the initial wiring light.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewInMemory constructs an empty in-memory blob store.
func NewInMemory(baseURL string) *InMemoryStore {
	return &InMemoryStore{
		objects: make(map[string][]byte),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *InMemoryStore) Put(_ context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[name] = buf
	return s.baseURL + "/" + name, nil
}

func (s *InMemoryStore) Remove(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectNameFromRef(ref))
	return nil
}

// Get exposes stored bytes to tests.
func (s *InMemoryStore) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[name]
	return data, ok
}

// Len reports the number of stored objects.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
