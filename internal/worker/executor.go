package worker

import (
	"context"
	"fmt"
	"sort"

	"github.com/shaiso/Conveyor/internal/mq"
)

// Executor выполняет один тип делегированной задачи.
//
// req.Payload содержит срез состояния job, нужный задаче:
// file_path, content_type, checksum_sha256, накопленные metadata.
// Логическая ошибка (невалидный вход) возвращается через error —
// воркер превратит её в callback со статусом failed.
type Executor interface {
	Execute(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error)
}

// ExecutionResult — результат выполнения задачи.
type ExecutionResult struct {
	// Result — выходные данные задачи.
	Result map[string]any

	// Metadata — извлечённые метаданные файла (сливаются в состояние job).
	Metadata map[string]any
}

// Registry — реестр executor'ов по имени задачи.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry создаёт реестр со всеми executor'ами пайплайна.
func NewRegistry() *Registry {
	r := &Registry{executors: make(map[string]Executor)}
	for task, executor := range mediaExecutors() {
		r.Register(task, executor)
	}
	return r
}

// Register добавляет executor для задачи.
func (r *Registry) Register(task string, executor Executor) {
	r.executors[task] = executor
}

// Get возвращает executor для задачи.
func (r *Registry) Get(task string) (Executor, error) {
	executor, ok := r.executors[task]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, task)
	}
	return executor, nil
}

// Tasks возвращает отсортированный список зарегистрированных задач.
func (r *Registry) Tasks() []string {
	tasks := make([]string, 0, len(r.executors))
	for task := range r.executors {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)
	return tasks
}
