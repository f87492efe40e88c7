package worker

import "errors"

// Ошибки воркера.
var (
	// ErrUnknownTask — для задачи не зарегистрирован executor.
	ErrUnknownTask = errors.New("unknown task")

	// ErrMissingFilePath — в payload нет пути к файлу.
	ErrMissingFilePath = errors.New("file path is empty")

	// ErrMissingChecksum — в payload нет контрольной суммы.
	ErrMissingChecksum = errors.New("checksum is missing")
)
