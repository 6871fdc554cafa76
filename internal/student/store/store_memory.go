package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"carteirinha/internal/student/models"
	"carteirinha/pkg/domain"
	"carteirinha/pkg/platform/sentinel"
)

// Clock lets tests control store-assigned timestamps.
type Clock func() time.Time

// InMemoryStudentStore keeps records in a map keyed by CPF. It mirrors the
// postgres unique indexes on cpf, matricula and usage_code so both
// implementations reject the same writes.
type InMemoryStudentStore struct {
	mu       sync.RWMutex
	students map[domain.CPF]models.Student
	clock    Clock
}

// InMemoryOption configures an InMemoryStudentStore.
type InMemoryOption func(*InMemoryStudentStore)

// WithClock sets the timestamp source for testability.
func WithClock(clock Clock) InMemoryOption {
	return func(s *InMemoryStudentStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInMemory constructs an empty in-memory student store.
func NewInMemory(opts ...InMemoryOption) *InMemoryStudentStore {
	s := &InMemoryStudentStore{
		students: make(map[domain.CPF]models.Student),
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *InMemoryStudentStore) FindByCPF(_ context.Context, cpf domain.CPF) (models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.students[cpf]; ok {
		return st, nil
	}
	return models.Student{}, sentinel.ErrNotFound
}

func (s *InMemoryStudentStore) FindByUsageCode(_ context.Context, code string) (models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.UsageCode == code {
			return st, nil
		}
	}
	return models.Student{}, sentinel.ErrNotFound
}

func (s *InMemoryStudentStore) Create(_ context.Context, student models.Student) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[student.CPF]; ok {
		return models.Student{}, sentinel.ErrConflict
	}
	for _, st := range s.students {
		if st.Matricula == student.Matricula || st.UsageCode == student.UsageCode {
			return models.Student{}, sentinel.ErrConflict
		}
	}
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	now := s.clock()
	student.CreatedAt = now
	student.UpdatedAt = now
	s.students[student.CPF] = student
	return student, nil
}

func (s *InMemoryStudentStore) Update(_ context.Context, cpf domain.CPF, patch models.StudentPatch) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[cpf]
	if !ok {
		return models.Student{}, sentinel.ErrNotFound
	}
	if patch.Name != nil {
		st.Name = *patch.Name
	}
	if patch.RG != nil {
		st.RG = *patch.RG
	}
	if patch.BirthDate != nil {
		st.BirthDate = *patch.BirthDate
	}
	if patch.Course != nil {
		st.Course = *patch.Course
	}
	if patch.PhotoURL != nil {
		st.PhotoURL = *patch.PhotoURL
	}
	st.UpdatedAt = s.clock()
	s.students[cpf] = st
	return st, nil
}

func (s *InMemoryStudentStore) Delete(_ context.Context, cpf domain.CPF) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[cpf]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.students, cpf)
	return nil
}

func (s *InMemoryStudentStore) MatriculaExists(_ context.Context, matricula string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.Matricula == matricula {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStudentStore) UsageCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.UsageCode == code {
			return true, nil
		}
	}
	return false, nil
}
