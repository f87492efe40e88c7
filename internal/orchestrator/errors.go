package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrDuplicateJob — job с таким job_id уже принят.
	ErrDuplicateJob = errors.New("duplicate job_id")

	// ErrJobNotFound — job не найден в хранилище.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidRequest — запрос без обязательных полей.
	ErrInvalidRequest = errors.New("invalid job request")

	// ErrNotStarted — Submit до вызова Start.
	ErrNotStarted = errors.New("engine not started")
)
