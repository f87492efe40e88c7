package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Conveyor/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeJobCreated MessageType = "job.created"
	MessageTypeTaskReq    MessageType = "task.request"
	MessageTypeTaskResult MessageType = "task.result"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// JobCreatedEvent — событие о новом job в command-канале.
// Публикуется ingestion-сервисом, потребляется Command Listener'ом.
type JobCreatedEvent struct {
	Event          string `json:"event"` // всегда "JOB_CREATED"
	JobID          string `json:"job_id"`
	FilePath       string `json:"file_path"`
	ContentType    string `json:"content_type"`
	ChecksumSHA256 string `json:"checksum_sha256"`
	SubmittedBy    string `json:"submitted_by,omitempty"`
}

// EventJobCreated — значение поля event в command-канале.
const EventJobCreated = "JOB_CREATED"

// Request восстанавливает JobRequest из события.
func (e *JobCreatedEvent) Request() domain.JobRequest {
	return domain.JobRequest{
		JobID:          e.JobID,
		FilePath:       e.FilePath,
		ContentType:    e.ContentType,
		ChecksumSHA256: e.ChecksumSHA256,
		SubmittedBy:    e.SubmittedBy,
	}
}

// TaskRequest — запрос на выполнение делегированной задачи.
// Содержит только те поля состояния, которые нужны воркеру.
// Ключ корреляции: (job_id, task_name).
type TaskRequest struct {
	JobID    string         `json:"job_id"`
	TaskName string         `json:"task_name"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// TaskResult — результат делегированной задачи из callback-канала.
type TaskResult struct {
	JobID     string            `json:"job_id"`
	TaskName  string            `json:"task_name"`
	Status    domain.TaskStatus `json:"status"` // success или failed
	Result    map[string]any    `json:"result,omitempty"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
	Error     string            `json:"error,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishJobCreated публикует событие JOB_CREATED в command-канал.
// Потребитель: Command Listener оркестратора.
func (p *Publisher) PublishJobCreated(ctx context.Context, req domain.JobRequest) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeJobCreated,
		Payload: JobCreatedEvent{
			Event:          EventJobCreated,
			JobID:          req.JobID,
			FilePath:       req.FilePath,
			ContentType:    req.ContentType,
			ChecksumSHA256: req.ChecksumSHA256,
			SubmittedBy:    req.SubmittedBy,
		},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeJobs, RoutingKeyCreated, msg)
}

// PublishTaskRequest публикует запрос задачи в очередь её типа.
// Потребитель: worker pool соответствующего типа.
func (p *Publisher) PublishTaskRequest(ctx context.Context, req TaskRequest) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeTaskReq,
		Payload:   req,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeTasks, TaskRoutingKey(req.TaskName), msg)
}

// PublishTaskResult публикует результат задачи в callback-канал.
// Потребитель: callback router оркестратора.
func (p *Publisher) PublishTaskResult(ctx context.Context, res TaskResult) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeTaskResult,
		Payload:   res,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeCallbacks, RoutingKeyCompleted, msg)
}
