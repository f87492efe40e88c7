package telemetry

import (
	"log/slog"
	"os"
)

// LogLevel читает уровень логирования из LOG_LEVEL
// (DEBUG, INFO, WARN, ERROR; по умолчанию INFO).
func LogLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер сервиса.
//
// LOG_FORMAT: "json" (по умолчанию) или "text" для разработки.
// На уровне DEBUG к записям добавляется источник — полезно при
// разборе порядка переходов конкретного job.
func SetupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     LogLevel(),
		AddSource: LogLevel() == slog.LevelDebug,
	}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithJobID возвращает логгер с полем job_id.
// Все записи о жизненном цикле одного job несут это поле,
// чтобы путь job через пайплайн читался одним фильтром.
func WithJobID(logger *slog.Logger, jobID string) *slog.Logger {
	return logger.With("job_id", jobID)
}

// WithTask возвращает логгер с полем task — именем делегированной
// задачи (оно же имя очереди tasks.<task> и узла графа).
func WithTask(logger *slog.Logger, task string) *slog.Logger {
	return logger.With("task", task)
}
