package domain

// JobStatus — статус выполнения job.
//
// Жизненный цикл:
//
//	queued → in_progress → routed_to_<branch> → in_progress → completed
//	                                                        ↘ failed
type JobStatus string

const (
	// JobStatusQueued — job принят, но ещё не начал выполняться.
	JobStatusQueued JobStatus = "queued"

	// JobStatusInProgress — job в процессе выполнения очередного узла.
	JobStatusInProgress JobStatus = "in_progress"

	// JobStatusCompleted — job успешно прошёл все узлы своей ветки.
	JobStatusCompleted JobStatus = "completed"

	// JobStatusFailed — job завершился с ошибкой (валидация, таймаут, паника узла).
	JobStatusFailed JobStatus = "failed"
)

// RoutedStatus возвращает статус "routed_to_<branch>" для выбранной ветки.
func RoutedStatus(b Branch) JobStatus {
	return JobStatus("routed_to_" + string(b))
}

// IsTerminal возвращает true, если статус финальный.
// Терминальный job больше не мутируется — переходы монотонны.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// Branch — фиксированная ветка пайплайна, выбираемая по content type.
type Branch string

const (
	// BranchImage — генерация превью и AI-анализ изображения.
	BranchImage Branch = "image_branch"

	// BranchVideo — извлечение аудио, транскрипция, резюме.
	BranchVideo Branch = "video_branch"

	// BranchPDF — извлечение текста и резюме документа.
	BranchPDF Branch = "pdf_branch"
)

// TaskStatus — статус результата делегированной задачи в callback.
type TaskStatus string

const (
	// TaskStatusSuccess — воркер выполнил задачу.
	TaskStatusSuccess TaskStatus = "success"

	// TaskStatusFailed — воркер сообщил о логической ошибке (например, валидация не прошла).
	TaskStatusFailed TaskStatus = "failed"
)
