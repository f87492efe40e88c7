package domain

import (
	"time"
)

// Шаги-маркеры, не являющиеся узлами графа.
const (
	// StepQueued — job принят, выполнение ещё не началось.
	StepQueued = "queued"

	// StepDone — job прошёл все узлы своей ветки.
	StepDone = "done"

	// failedAtPrefix — префикс шага для упавшего узла.
	failedAtPrefix = "failed_at_"
)

// JobRequest — запрос на создание job.
//
// Приходит из command-канала (событие JOB_CREATED от ingestion-сервиса)
// или напрямую через POST /jobs.
type JobRequest struct {
	JobID          string `json:"job_id"`
	FilePath       string `json:"file_path"`
	ContentType    string `json:"content_type"`
	ChecksumSHA256 string `json:"checksum_sha256"`
	SubmittedBy    string `json:"submitted_by,omitempty"`
}

// JobState — состояние одного ingestion job.
//
// Единственный владелец мутаций — горутина Orchestrator Engine,
// обрабатывающая этот job_id. Все остальные компоненты читают
// состояние только через Job State Store.
//
// Инвариант: после перехода в completed/failed состояние не мутируется.
type JobState struct {
	// JobID — уникальный, неизменяемый идентификатор job.
	JobID string `json:"job_id"`

	// Status — текущий статус выполнения.
	Status JobStatus `json:"status"`

	// Step — имя текущего/последнего узла, либо "failed_at_<node>".
	Step string `json:"step"`

	// Branch — ветка, выбранная узлом маршрутизации.
	// Устанавливается ровно один раз и далее не меняется.
	Branch Branch `json:"branch,omitempty"`

	// FilePath — путь к загруженному файлу (хранение байтов вне системы).
	FilePath string `json:"file_path"`

	// ContentType — MIME-тип файла, определяет ветку.
	ContentType string `json:"content_type"`

	// ChecksumSHA256 — контрольная сумма файла.
	ChecksumSHA256 string `json:"checksum_sha256"`

	// SubmittedBy — кто загрузил файл.
	SubmittedBy string `json:"submitted_by,omitempty"`

	// Result — результаты делегированных задач (task name → payload).
	Result map[string]any `json:"result,omitempty"`

	// Metadata — извлечённые метаданные файла.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Error — текст ошибки, если job завершился с failed.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания job.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего перехода состояния.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJobState создаёт начальное состояние из запроса (status=queued).
func NewJobState(req JobRequest) *JobState {
	now := time.Now().UTC()
	return &JobState{
		JobID:          req.JobID,
		Status:         JobStatusQueued,
		Step:           StepQueued,
		FilePath:       req.FilePath,
		ContentType:    req.ContentType,
		ChecksumSHA256: req.ChecksumSHA256,
		SubmittedBy:    req.SubmittedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsTerminal возвращает true, если job завершён.
func (s *JobState) IsTerminal() bool {
	return s.Status.IsTerminal()
}

// MarkStep помечает начало выполнения узла.
func (s *JobState) MarkStep(node string) {
	s.Status = JobStatusInProgress
	s.Step = node
	s.touch()
}

// MarkRouted фиксирует выбранную ветку. Ветка иммутабельна:
// повторный вызов с другой веткой игнорируется.
func (s *JobState) MarkRouted(b Branch) {
	if s.Branch == "" {
		s.Branch = b
	}
	s.Status = RoutedStatus(s.Branch)
	s.touch()
}

// MarkCompleted переводит job в терминальный completed.
func (s *JobState) MarkCompleted() {
	s.Status = JobStatusCompleted
	s.Step = StepDone
	s.touch()
}

// MarkFailed переводит job в терминальный failed с указанием упавшего узла.
func (s *JobState) MarkFailed(node, errMsg string) {
	s.Status = JobStatusFailed
	s.Step = failedAtPrefix + node
	s.Error = errMsg
	s.touch()
}

// AddResult сохраняет результат делегированной задачи.
func (s *JobState) AddResult(task string, result map[string]any) {
	if result == nil {
		return
	}
	if s.Result == nil {
		s.Result = make(map[string]any)
	}
	s.Result[task] = result
}

// MergeMetadata добавляет извлечённые метаданные к состоянию.
func (s *JobState) MergeMetadata(meta map[string]any) {
	if len(meta) == 0 {
		return
	}
	if s.Metadata == nil {
		s.Metadata = make(map[string]any, len(meta))
	}
	for k, v := range meta {
		s.Metadata[k] = v
	}
}

func (s *JobState) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Clone возвращает глубокую копию состояния.
// Используется in-memory store, чтобы чтения не делили мутируемые map с владельцем.
func (s *JobState) Clone() *JobState {
	c := *s
	if s.Result != nil {
		c.Result = make(map[string]any, len(s.Result))
		for k, v := range s.Result {
			c.Result[k] = v
		}
	}
	if s.Metadata != nil {
		c.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
