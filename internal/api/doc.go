// Package api содержит HTTP-фасад оркестратора.
//
// Структура:
//   - handler.go     — Handler с DI (engine, logger)
//   - routes.go      — регистрация маршрутов
//   - middleware.go  — middleware (logging, recovery)
//   - response.go    — унифицированные JSON-ответы
//   - dto.go         — Data Transfer Objects (request/response)
//   - job_handler.go — обработчики для /jobs
//
// Фасад — синхронная альтернатива command-каналу: POST /jobs проходит
// через тот же Engine.Submit, что и событие JOB_CREATED, поэтому
// дубликат job_id получает 409 сразу.
package api
