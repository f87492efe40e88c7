package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeJobs      Exchange = "conveyor.jobs"
	ExchangeTasks     Exchange = "conveyor.tasks"
	ExchangeCallbacks Exchange = "conveyor.callbacks"
	ExchangeDLQ       Exchange = "conveyor.dlq"
)

// Queues — имена очередей.
const (
	// QueueJobsCreated — command-канал: события JOB_CREATED от ingestion-сервиса.
	QueueJobsCreated Queue = "jobs.created"

	// QueueTaskCallbacks — callback-канал: результаты делегированных задач.
	QueueTaskCallbacks Queue = "tasks.callbacks"

	// QueueDLQTasks — dead letter queue для некорректных task-сообщений.
	QueueDLQTasks Queue = "dlq.tasks"
)

// Routing keys.
const (
	RoutingKeyCreated   RoutingKey = "created"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyDLQTasks  RoutingKey = "tasks"
)

// TaskQueue возвращает имя очереди для конкретного типа задачи.
// Каждый тип задачи имеет свою очередь, чтобы worker pools
// масштабировались независимо.
func TaskQueue(task string) Queue {
	return Queue("tasks." + task)
}

// TaskRoutingKey возвращает routing key для типа задачи.
func TaskRoutingKey(task string) RoutingKey {
	return RoutingKey(task)
}

func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []Exchange{ExchangeJobs, ExchangeTasks, ExchangeCallbacks, ExchangeDLQ}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex), // name
			"direct",   // type
			true,       // durable
			false,      // auto-deleted
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Некорректные task-сообщения уходят в DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQTasks),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueJobsCreated, nil},
		{QueueTaskCallbacks, nil},
		{QueueDLQTasks, nil},
	}

	// Очередь на каждый тип делегированной задачи
	for _, task := range domain.DelegatedTasks() {
		queues = append(queues, struct {
			name Queue
			args amqp.Table
		}{TaskQueue(task), dlqArgs})
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueJobsCreated, RoutingKeyCreated, ExchangeJobs},
		{QueueTaskCallbacks, RoutingKeyCompleted, ExchangeCallbacks},
		{QueueDLQTasks, RoutingKeyDLQTasks, ExchangeDLQ},
	}

	for _, task := range domain.DelegatedTasks() {
		bindings = append(bindings, struct {
			queue      Queue
			routingKey RoutingKey
			exchange   Exchange
		}{TaskQueue(task), TaskRoutingKey(task), ExchangeTasks})
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}
