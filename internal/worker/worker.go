package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

const defaultPrefetch = 5

// ResultPublisher публикует callback с результатом задачи.
// Реализуется mq.Publisher; в тестах подменяется фейком.
type ResultPublisher interface {
	PublishTaskResult(ctx context.Context, res mq.TaskResult) error
}

// Worker выполняет делегированные задачи пайплайна.
//
// Worker — stateless компонент: потребляет очередь каждой
// зарегистрированной задачи, выполняет executor и публикует
// результат в callback-канал. Несколько экземпляров масштабируются
// горизонтально, потребляя одни и те же очереди.
type Worker struct {
	conn      *mq.Connection
	publisher ResultPublisher
	registry  *Registry
	prefetch  int

	consumers []*mq.Consumer

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	// Conn — соединение с брокером.
	Conn *mq.Connection

	// Publisher — издатель результатов.
	Publisher ResultPublisher

	// Registry — реестр executor'ов (nil — NewRegistry()).
	Registry *Registry

	// Prefetch — prefetch на очередь (default: 5).
	Prefetch int

	// Logger
	Logger *slog.Logger
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		conn:      cfg.Conn,
		publisher: cfg.Publisher,
		registry:  registry,
		prefetch:  prefetch,
		logger:    logger,
	}
}

// Start запускает consumer на очередь каждой зарегистрированной задачи.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	tasks := w.registry.Tasks()
	w.logger.Info("starting worker", "tasks", len(tasks))

	for _, task := range tasks {
		task := task
		consumer := mq.NewConsumer(w.conn, telemetry.WithTask(w.logger, task), mq.ConsumerConfig{
			Queue: string(mq.TaskQueue(task)),
			Handler: func(ctx context.Context, msg *mq.Delivery) error {
				return w.handleTask(ctx, task, msg)
			},
			Prefetch: w.prefetch,
		})
		w.consumers = append(w.consumers, consumer)

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("task consumer error", "task", task, "error", err)
			}
		}()
	}

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	for _, c := range w.consumers {
		c.Stop()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// handleTask обрабатывает один TaskRequest.
//
// Логическая ошибка executor'а уходит callback'ом со статусом failed;
// транспортная ошибка публикации возвращается consumer'у для retry.
func (w *Worker) handleTask(ctx context.Context, task string, msg *mq.Delivery) error {
	req, err := mq.ParsePayload[mq.TaskRequest](&msg.Message)
	if err != nil {
		return fmt.Errorf("parse task request: %w", err)
	}

	if req.JobID == "" {
		w.logger.Warn("task request without job_id discarded",
			"task", task,
			"message_id", msg.Message.ID,
		)
		return nil
	}
	if req.TaskName != task {
		w.logger.Warn("task request for foreign task discarded",
			"queue_task", task,
			"request_task", req.TaskName,
			"job_id", req.JobID,
		)
		return nil
	}

	w.logger.Debug("task received", "task", task, "job_id", req.JobID)

	res := w.execute(ctx, task, req)

	if err := w.publisher.PublishTaskResult(ctx, res); err != nil {
		return fmt.Errorf("publish result for %s/%s: %w", req.JobID, task, err)
	}

	w.logger.Debug("task result published",
		"task", task,
		"job_id", req.JobID,
		"status", res.Status,
	)
	return nil
}

// execute выполняет задачу и сворачивает исход в TaskResult.
func (w *Worker) execute(ctx context.Context, task string, req mq.TaskRequest) mq.TaskResult {
	res := mq.TaskResult{
		JobID:     req.JobID,
		TaskName:  task,
		UpdatedAt: time.Now().UTC(),
	}

	executor, err := w.registry.Get(task)
	if err != nil {
		res.Status = domain.TaskStatusFailed
		res.Error = err.Error()
		return res
	}

	out, err := executor.Execute(ctx, req)
	if err != nil {
		w.logger.Warn("task execution failed",
			"task", task,
			"job_id", req.JobID,
			"error", err,
		)
		res.Status = domain.TaskStatusFailed
		res.Error = err.Error()
		return res
	}

	res.Status = domain.TaskStatusSuccess
	res.Result = out.Result
	res.Metadata = out.Metadata
	res.UpdatedAt = time.Now().UTC()
	return res
}
