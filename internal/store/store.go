package store

import (
	"context"
	"errors"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Ошибки хранилища.
var (
	// ErrNotFound — job не найден.
	ErrNotFound = errors.New("job not found")

	// ErrAlreadyExists — job с таким job_id уже существует.
	ErrAlreadyExists = errors.New("job already exists")
)

// JobStore — durable key-value хранилище состояний jobs.
//
// Все операции атомарны по ключу (job_id). Этого достаточно:
// по правилу владения состояние одного job_id мутирует ровно одна
// горутина оркестратора, межключевая синхронизация не требуется.
//
// Реализации:
//   - MemoryStore   — in-memory, только dev/test
//   - SQLiteStore   — durable, single-node
//   - PostgresStore — durable, для resilient-развёртывания
type JobStore interface {
	// CreateIfAbsent атомарно создаёт запись, если job_id ещё не занят.
	// Возвращает ErrAlreadyExists, если запись уже есть — независимо от
	// того, какой процесс её создал.
	CreateIfAbsent(ctx context.Context, state *domain.JobState) error

	// Get возвращает текущее сохранённое состояние или ErrNotFound.
	Get(ctx context.Context, jobID string) (*domain.JobState, error)

	// Set сохраняет состояние, перезаписывая предыдущее.
	Set(ctx context.Context, state *domain.JobState) error

	// ListUnfinished возвращает jobs в нетерминальных статусах
	// (для восстановления после рестарта).
	ListUnfinished(ctx context.Context, limit int) ([]domain.JobState, error)

	// Close освобождает ресурсы хранилища.
	Close() error
}
