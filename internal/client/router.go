package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Conveyor/internal/mq"
)

// Router потребляет очередь callback'ов и доставляет результаты
// ожидающим WorkerClient через реестр Pending.
//
// Несматченный результат (поздний, повторный, для незнакомого job)
// подтверждается и отбрасывается: at-least-once доставка допускает
// дубликаты, а повторная доставка такого сообщения бессмысленна.
type Router struct {
	pending  *Pending
	consumer *mq.Consumer
	logger   *slog.Logger
}

// NewRouter создаёт Router поверх очереди tasks.callbacks.
func NewRouter(conn *mq.Connection, pending *Pending, logger *slog.Logger) *Router {
	r := &Router{
		pending: pending,
		logger:  logger,
	}

	r.consumer = mq.NewConsumer(conn, logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueTaskCallbacks),
		Handler:  r.handle,
		Prefetch: 10,
	})

	return r
}

// Start запускает потребление callback'ов. Блокирует до отмены ctx.
func (r *Router) Start(ctx context.Context) error {
	return r.consumer.Start(ctx)
}

// Stop останавливает потребление.
func (r *Router) Stop() {
	r.consumer.Stop()
}

func (r *Router) handle(_ context.Context, msg *mq.Delivery) error {
	res, err := mq.ParsePayload[mq.TaskResult](&msg.Message)
	if err != nil {
		return fmt.Errorf("parse task result: %w", err)
	}

	if res.JobID == "" || res.TaskName == "" {
		r.logger.Warn("callback without correlation ids discarded",
			"message_id", msg.Message.ID,
		)
		return nil
	}

	if !r.pending.Resolve(res.JobID, res.TaskName, res) {
		r.logger.Warn("unmatched callback discarded",
			"job_id", res.JobID,
			"task", res.TaskName,
			"status", res.Status,
		)
	}

	return nil
}
