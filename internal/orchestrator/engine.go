package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/store"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Default configuration values.
const (
	defaultSweepInterval = 30 * time.Second
	defaultSweepBatch    = 100
)

// JobHandle — дескриптор запущенного job.
// Done закрывается, когда job достигает терминального состояния.
type JobHandle struct {
	// JobID — идентификатор job.
	JobID string

	done chan struct{}
}

// Done возвращает канал завершения job.
func (h *JobHandle) Done() <-chan struct{} {
	return h.done
}

// Wait блокирует до завершения job или отмены ctx.
func (h *JobHandle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return nil
	}
}

// Engine — ядро оркестратора.
//
// Единственная точка входа для запуска job — Submit: и command-канал,
// и HTTP-фасад, и восстановление после рестарта сходятся в один и тот
// же путь выполнения. Для каждого job поднимается ровно одна горутина,
// которая последовательно обходит граф; количество параллельных jobs
// не ограничивается.
type Engine struct {
	store   store.JobStore
	graph   *engine.Graph
	logger  *slog.Logger
	metrics *telemetry.Metrics

	sweepInterval time.Duration
	sweepBatch    int

	// active — jobs, выполняющиеся в этом процессе (jobID → handle)
	active map[string]*JobHandle
	mu     sync.Mutex

	runCtx     context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Engine.
type Config struct {
	// Store — durable хранилище состояний jobs.
	Store store.JobStore

	// Graph — граф пайплайна.
	Graph *engine.Graph

	// SweepInterval — период фонового поиска незавершённых jobs
	// (default: 30s).
	SweepInterval time.Duration

	// SweepBatch — количество jobs за один проход (default: 100).
	SweepBatch int

	// Metrics — опциональные метрики.
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// New создаёт Engine.
func New(cfg Config) *Engine {
	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}

	sweepBatch := cfg.SweepBatch
	if sweepBatch <= 0 {
		sweepBatch = defaultSweepBatch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		store:         cfg.Store,
		graph:         cfg.Graph,
		logger:        logger,
		metrics:       cfg.Metrics,
		sweepInterval: sweepInterval,
		sweepBatch:    sweepBatch,
		active:        make(map[string]*JobHandle),
	}
}

// Start запускает Engine: восстанавливает незавершённые jobs и
// поднимает фоновый sweep. Горутины jobs живут в контексте Start,
// а не в контексте вызвавшего Submit запроса.
func (e *Engine) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.runCtx = ctx
	e.cancelFunc = cancel

	e.logger.Info("starting engine",
		"sweep_interval", e.sweepInterval,
		"nodes", e.graph.Size(),
	)

	// Первый проход сразу: подхватываем jobs, прерванные рестартом.
	e.sweep(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.sweepLoop(ctx)
	}()

	return nil
}

// Stop останавливает Engine и ждёт завершения горутин jobs.
func (e *Engine) Stop() {
	e.logger.Info("stopping engine...")

	if e.cancelFunc != nil {
		e.cancelFunc()
	}
	e.wg.Wait()

	e.logger.Info("engine stopped")
}

// Submit принимает новый job.
//
// Допуск атомарный: create-if-absent в хранилище. Повторный job_id
// получает ErrDuplicateJob, при этом состояние первого job не
// затрагивается. При успехе job уже поставлен на выполнение.
func (e *Engine) Submit(ctx context.Context, req domain.JobRequest) (*JobHandle, error) {
	if e.runCtx == nil {
		return nil, ErrNotStarted
	}
	if req.JobID == "" {
		return nil, fmt.Errorf("%w: empty job_id", ErrInvalidRequest)
	}

	state := domain.NewJobState(req)

	if err := e.store.CreateIfAbsent(ctx, state); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			if e.metrics != nil {
				e.metrics.JobsDuplicate.Inc()
			}
			return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, req.JobID)
		}
		return nil, fmt.Errorf("create job: %w", err)
	}

	if e.metrics != nil {
		e.metrics.JobsSubmitted.Inc()
	}

	e.logger.Info("job submitted",
		"job_id", req.JobID,
		"content_type", req.ContentType,
	)

	return e.spawn(state, e.graph.Entry()), nil
}

// GetJob возвращает сохранённое состояние job.
func (e *Engine) GetJob(ctx context.Context, jobID string) (*domain.JobState, error) {
	state, err := e.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return state, nil
}

// Graph возвращает граф пайплайна (диагностика, экспорт DOT).
func (e *Engine) Graph() *engine.Graph {
	return e.graph
}

// ActiveJobs возвращает количество выполняющихся jobs.
func (e *Engine) ActiveJobs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// spawn регистрирует job как активный и запускает его горутину.
// Если job уже активен, возвращается существующий handle.
func (e *Engine) spawn(state *domain.JobState, startNode string) *JobHandle {
	e.mu.Lock()
	if h, exists := e.active[state.JobID]; exists {
		e.mu.Unlock()
		return h
	}

	h := &JobHandle{
		JobID: state.JobID,
		done:  make(chan struct{}),
	}
	e.active[state.JobID] = h
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.runJob(e.runCtx, state, startNode, h)
	}()

	return h
}

func (e *Engine) removeActive(jobID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, jobID)
}

// runJob — горутина одного job: последовательный обход графа от
// startNode до End с сохранением состояния после каждого перехода.
func (e *Engine) runJob(ctx context.Context, state *domain.JobState, startNode string, h *JobHandle) {
	defer close(h.done)
	defer e.removeActive(state.JobID)

	current := startNode

	// Паника узла не роняет процесс: job переводится в терминальный
	// failed, остальные jobs продолжают выполняться.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("job panicked",
				"job_id", state.JobID,
				"node", current,
				"panic", r,
			)
			e.failJob(state, current, fmt.Sprintf("panic in %s: %v", current, r))
		}
	}()

	logger := telemetry.WithJobID(e.logger, state.JobID)

	for current != engine.End {
		node, err := e.graph.Node(current)
		if err != nil {
			e.failJob(state, current, err.Error())
			return
		}

		state.MarkStep(current)
		if err := e.store.Set(ctx, state); err != nil {
			logger.Error("persist step failed", "node", current, "error", err)
			e.failJob(state, current, fmt.Sprintf("persist state: %v", err))
			return
		}

		logger.Debug("node started", "node", current)

		started := time.Now()
		next, err := node.Run(ctx, state)
		if e.metrics != nil {
			e.metrics.ObserveNode(current, started)
		}

		if err != nil {
			logger.Warn("node failed", "node", current, "error", err)
			e.failJob(state, current, err.Error())
			return
		}
		state = next

		// Логическая ошибка воркера: состояние уже несёт failed,
		// осталось зафиксировать терминальный переход.
		if state.Status == domain.JobStatusFailed {
			logger.Warn("node reported failure", "node", current, "error", state.Error)
			e.failJob(state, current, state.Error)
			return
		}

		if err := e.store.Set(ctx, state); err != nil {
			logger.Error("persist result failed", "node", current, "error", err)
			e.failJob(state, current, fmt.Sprintf("persist state: %v", err))
			return
		}

		current, err = e.graph.Next(current, state)
		if err != nil {
			logger.Warn("routing failed", "error", err)
			e.failJob(state, state.Step, err.Error())
			return
		}
	}

	state.MarkCompleted()
	if err := e.store.Set(ctx, state); err != nil {
		logger.Error("persist completion failed", "error", err)
		return
	}

	if e.metrics != nil {
		e.metrics.JobsCompleted.Inc()
	}

	logger.Info("job completed", "branch", state.Branch)
}

// failJob фиксирует терминальный failed и сохраняет его best-effort.
func (e *Engine) failJob(state *domain.JobState, node, errMsg string) {
	state.MarkFailed(node, errMsg)

	// Отдельный контекст: исходный может быть уже отменён.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.store.Set(ctx, state); err != nil {
		e.logger.Error("persist failure state failed",
			"job_id", state.JobID,
			"error", err,
		)
	}

	if e.metrics != nil {
		e.metrics.JobsFailed.Inc()
	}
}

// sweepLoop периодически переподхватывает незавершённые jobs,
// не имеющие горутины в этом процессе.
func (e *Engine) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

// sweep выполняет один проход восстановления.
//
// Активность проверяется только по горутинам этого процесса:
// оркестратор — единственный владелец всех jobs в хранилище.
func (e *Engine) sweep(ctx context.Context) {
	jobs, err := e.store.ListUnfinished(ctx, e.sweepBatch)
	if err != nil {
		e.logger.Error("failed to list unfinished jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	resumed := 0
	for i := range jobs {
		state := jobs[i].Clone()

		e.mu.Lock()
		_, isActive := e.active[state.JobID]
		e.mu.Unlock()
		if isActive {
			continue
		}

		e.spawn(state, e.resumeNode(state))
		resumed++
	}

	if resumed > 0 {
		e.logger.Info("resumed unfinished jobs", "count", resumed)
	}
}

// resumeNode выбирает узел, с которого продолжается прерванный job.
//
// Шаг мог быть прерван между публикацией запроса и callback'ом,
// поэтому последний записанный узел выполняется повторно. Доставка
// at-least-once: воркер может получить задачу дважды, повторный
// поздний callback отбрасывается.
func (e *Engine) resumeNode(state *domain.JobState) string {
	if state.Step == "" || state.Step == domain.StepQueued {
		return e.graph.Entry()
	}

	if _, err := e.graph.Node(state.Step); err != nil {
		e.logger.Warn("unknown step in stored state, restarting from entry",
			"job_id", state.JobID,
			"step", state.Step,
		)
		return e.graph.Entry()
	}

	return state.Step
}
