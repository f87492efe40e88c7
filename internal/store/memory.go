package store

import (
	"context"
	"sync"

	"github.com/shaiso/Conveyor/internal/domain"
)

// MemoryStore — in-memory реализация JobStore.
//
// Не переживает рестарт процесса; предназначена для локальной
// разработки и тестов. Создаётся и внедряется явно — никакого
// ambient/static хранилища на уровне пакета.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.JobState
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*domain.JobState),
	}
}

// CreateIfAbsent атомарно создаёт запись, если job_id свободен.
func (s *MemoryStore) CreateIfAbsent(_ context.Context, state *domain.JobState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[state.JobID]; exists {
		return ErrAlreadyExists
	}
	s.jobs[state.JobID] = state.Clone()
	return nil
}

// Get возвращает копию сохранённого состояния.
func (s *MemoryStore) Get(_ context.Context, jobID string) (*domain.JobState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.jobs[jobID]
	if !exists {
		return nil, ErrNotFound
	}
	return state.Clone(), nil
}

// Set сохраняет состояние, перезаписывая предыдущее.
func (s *MemoryStore) Set(_ context.Context, state *domain.JobState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[state.JobID] = state.Clone()
	return nil
}

// ListUnfinished возвращает jobs в нетерминальных статусах.
func (s *MemoryStore) ListUnfinished(_ context.Context, limit int) ([]domain.JobState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.JobState
	for _, state := range s.jobs {
		if state.IsTerminal() {
			continue
		}
		out = append(out, *state.Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Close — no-op для in-memory хранилища.
func (s *MemoryStore) Close() error {
	return nil
}
