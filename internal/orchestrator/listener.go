package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Conveyor/internal/mq"
)

// Listener — потребитель command-канала jobs.created.
//
// Преобразует события JOB_CREATED в вызовы Engine.Submit. Дубликат
// job_id и некорректное событие подтверждаются и отбрасываются:
// повторная доставка им не поможет. Транспортные ошибки хранилища
// возвращаются обработчику — сообщение уйдёт на retry.
type Listener struct {
	engine   *Engine
	consumer *mq.Consumer
	logger   *slog.Logger
}

// NewListener создаёт Listener поверх очереди jobs.created.
func NewListener(conn *mq.Connection, eng *Engine, logger *slog.Logger) *Listener {
	l := &Listener{
		engine: eng,
		logger: logger,
	}

	l.consumer = mq.NewConsumer(conn, logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueJobsCreated),
		Handler:  l.handle,
		Prefetch: 10,
	})

	return l
}

// Start запускает потребление команд. Блокирует до отмены ctx.
func (l *Listener) Start(ctx context.Context) error {
	return l.consumer.Start(ctx)
}

// Stop останавливает потребление.
func (l *Listener) Stop() {
	l.consumer.Stop()
}

func (l *Listener) handle(ctx context.Context, msg *mq.Delivery) error {
	event, err := mq.ParsePayload[mq.JobCreatedEvent](&msg.Message)
	if err != nil {
		return fmt.Errorf("parse job.created payload: %w", err)
	}

	if event.Event != mq.EventJobCreated {
		l.logger.Warn("unexpected event in command channel discarded",
			"event", event.Event,
			"message_id", msg.Message.ID,
		)
		return nil
	}

	_, err = l.engine.Submit(ctx, event.Request())
	switch {
	case err == nil:
		return nil

	case errors.Is(err, ErrDuplicateJob):
		l.logger.Info("duplicate job discarded", "job_id", event.JobID)
		return nil

	case errors.Is(err, ErrInvalidRequest):
		l.logger.Warn("invalid job request discarded",
			"job_id", event.JobID,
			"error", err,
		)
		return nil

	default:
		return fmt.Errorf("submit job %s: %w", event.JobID, err)
	}
}
