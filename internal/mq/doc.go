// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - job.created   — новый job от ingestion-сервиса (command-канал)
//   - task.request  — делегированная задача для worker pool
//   - task.result   — результат задачи (callback-канал)
//
// Exchanges:
//   - conveyor.jobs      — command-канал
//   - conveyor.tasks     — очереди задач, по одной на тип (tasks.<name>)
//   - conveyor.callbacks — результаты задач
//   - conveyor.dlq       — dead letter queue
//
// Доставка at-least-once: потребители должны быть идемпотентны
// (Command Listener отбрасывает дубликаты job_id, callback router
// отбрасывает результаты без ожидающей записи корреляции).
package mq
