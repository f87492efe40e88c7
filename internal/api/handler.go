package api

import (
	"log/slog"

	"github.com/shaiso/Conveyor/internal/orchestrator"
)

// Handler — обработчик HTTP-фасада оркестратора.
//
// Фасад живёт в процессе оркестратора: допуск job в Submit синхронный,
// поэтому 409 для дубликата возвращается сразу, без обхода через брокер.
type Handler struct {
	engine *orchestrator.Engine
	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Engine *orchestrator.Engine
	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		engine: cfg.Engine,
		logger: cfg.Logger,
	}
}
