package client

import (
	"sync"

	"github.com/shaiso/Conveyor/internal/mq"
)

// correlationKey — ключ корреляции callback'а: (job_id, task_name).
type correlationKey struct {
	jobID string
	task  string
}

// Pending — реестр ожидающих callback'ов.
//
// Запись регистрируется ДО публикации TaskRequest, чтобы результат,
// пришедший мгновенно, не потерялся. Разрешается первым совпавшим
// TaskResult'ом; всё остальное (поздние дубликаты at-least-once
// доставки) отбрасывается.
type Pending struct {
	mu      sync.Mutex
	waiters map[correlationKey]chan mq.TaskResult
}

// NewPending создаёт пустой реестр.
func NewPending() *Pending {
	return &Pending{
		waiters: make(map[correlationKey]chan mq.TaskResult),
	}
}

// Register создаёт запись ожидания и возвращает канал результата.
// Канал буферизован: Resolve не блокируется на медленном читателе.
func (p *Pending) Register(jobID, task string) <-chan mq.TaskResult {
	ch := make(chan mq.TaskResult, 1)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.waiters[correlationKey{jobID, task}] = ch

	return ch
}

// Resolve доставляет результат ожидающей записи и удаляет её.
// Ключ корреляции передаётся явно: callback с пустым job_id/task_name
// не должен совпасть ни с одной записью.
// Возвращает false, если записи нет — результат поздний или дубликат.
func (p *Pending) Resolve(jobID, task string, res mq.TaskResult) bool {
	key := correlationKey{jobID, task}

	p.mu.Lock()
	ch, exists := p.waiters[key]
	if exists {
		delete(p.waiters, key)
	}
	p.mu.Unlock()

	if !exists {
		return false
	}

	ch <- res
	return true
}

// Cancel удаляет запись ожидания (таймаут или отмена контекста).
func (p *Pending) Cancel(jobID, task string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.waiters, correlationKey{jobID, task})
}

// Len возвращает количество ожидающих записей.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waiters)
}
