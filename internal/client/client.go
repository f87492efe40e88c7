package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// defaultTimeout — единый таймаут ожидания callback'а для всех клиентов.
const defaultTimeout = 30 * time.Second

// ErrTaskTimeout — callback не пришёл в отведённое время.
var ErrTaskTimeout = errors.New("task callback timeout")

// TaskPublisher публикует TaskRequest в канал задач.
// Реализуется mq.Publisher; в тестах подменяется фейком.
type TaskPublisher interface {
	PublishTaskRequest(ctx context.Context, req mq.TaskRequest) error
}

// WorkerClient — клиент одного типа делегированной задачи.
//
// Process регистрирует ожидание callback'а, публикует запрос и ждёт
// коррелированный результат не дольше Timeout. Клиент не занимается
// retry и дедупликацией на стороне воркера — только точным
// сопоставлением по (job_id, task_name).
type WorkerClient struct {
	task      string
	publisher TaskPublisher
	pending   *Pending
	timeout   time.Duration
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// Config — конфигурация WorkerClient.
type Config struct {
	// Task — имя задачи (совпадает с именем узла графа).
	Task string

	// Publisher — издатель TaskRequest.
	Publisher TaskPublisher

	// Pending — общий реестр корреляции (один на процесс).
	Pending *Pending

	// Timeout — ожидание callback'а (default: 30s, env WORKER_TIMEOUT).
	Timeout time.Duration

	// Metrics — опциональные метрики.
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// New создаёт WorkerClient.
func New(cfg Config) *WorkerClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = TimeoutFromEnv()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &WorkerClient{
		task:      cfg.Task,
		publisher: cfg.Publisher,
		pending:   cfg.Pending,
		timeout:   timeout,
		metrics:   cfg.Metrics,
		logger:    telemetry.WithTask(logger, cfg.Task),
	}
}

// TimeoutFromEnv читает таймаут из WORKER_TIMEOUT (секунды).
func TimeoutFromEnv() time.Duration {
	if v := os.Getenv("WORKER_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
	}
	return defaultTimeout
}

// Task возвращает имя задачи клиента.
func (c *WorkerClient) Task() string {
	return c.task
}

// Process выполняет делегированную задачу для job.
//
// Порядок строгий: сначала регистрация ожидания, потом публикация —
// иначе мгновенный результат мог бы прийти раньше регистрации.
func (c *WorkerClient) Process(ctx context.Context, state *domain.JobState) (*domain.JobState, error) {
	jobID := state.JobID

	resultCh := c.pending.Register(jobID, c.task)
	defer c.pending.Cancel(jobID, c.task)

	req := mq.TaskRequest{
		JobID:    jobID,
		TaskName: c.task,
		Payload: map[string]any{
			"file_path":       state.FilePath,
			"content_type":    state.ContentType,
			"checksum_sha256": state.ChecksumSHA256,
			"metadata":        state.Metadata,
		},
	}

	if err := c.publisher.PublishTaskRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("publish task %s: %w", c.task, err)
	}

	c.logger.Debug("task published", "job_id", jobID)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case <-timer.C:
		if c.metrics != nil {
			c.metrics.CallbackTimeouts.WithLabelValues(c.task).Inc()
		}
		return nil, fmt.Errorf("%w: task %s job %s after %s", ErrTaskTimeout, c.task, jobID, c.timeout)

	case res := <-resultCh:
		return c.merge(state, res), nil
	}
}

// merge применяет TaskResult к состоянию.
//
// Логическая ошибка воркера (status=failed) не является транспортной
// ошибкой: она фиксируется в состоянии, терминальность решает
// оркестратор.
func (c *WorkerClient) merge(state *domain.JobState, res mq.TaskResult) *domain.JobState {
	if res.Status == domain.TaskStatusFailed {
		state.Status = domain.JobStatusFailed
		state.Error = res.Error
		c.logger.Warn("task reported failure", "job_id", state.JobID, "error", res.Error)
		return state
	}

	state.AddResult(c.task, res.Result)
	state.MergeMetadata(res.Metadata)

	c.logger.Debug("task result merged", "job_id", state.JobID)
	return state
}
