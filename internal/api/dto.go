package api

import (
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
)

// SubmitJobRequest — запрос на создание job.
// job_id опционален: без него сервер генерирует uuid.
type SubmitJobRequest struct {
	JobID          string `json:"job_id,omitempty"`
	FilePath       string `json:"file_path"`
	ContentType    string `json:"content_type"`
	ChecksumSHA256 string `json:"checksum_sha256"`
	SubmittedBy    string `json:"submitted_by,omitempty"`
}

// SubmitJobResponse — ответ на принятый job (202).
type SubmitJobResponse struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

// JobResponse — снимок состояния job.
type JobResponse struct {
	JobID          string           `json:"job_id"`
	Status         domain.JobStatus `json:"status"`
	Step           string           `json:"step"`
	Branch         domain.Branch    `json:"branch,omitempty"`
	FilePath       string           `json:"file_path"`
	ContentType    string           `json:"content_type"`
	ChecksumSHA256 string           `json:"checksum_sha256"`
	SubmittedBy    string           `json:"submitted_by,omitempty"`
	Result         map[string]any   `json:"result,omitempty"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// JobFromDomain конвертирует domain.JobState в JobResponse.
func JobFromDomain(s *domain.JobState) JobResponse {
	return JobResponse{
		JobID:          s.JobID,
		Status:         s.Status,
		Step:           s.Step,
		Branch:         s.Branch,
		FilePath:       s.FilePath,
		ContentType:    s.ContentType,
		ChecksumSHA256: s.ChecksumSHA256,
		SubmittedBy:    s.SubmittedBy,
		Result:         s.Result,
		Metadata:       s.Metadata,
		Error:          s.Error,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// Request конвертирует SubmitJobRequest в domain.JobRequest.
func (r SubmitJobRequest) Request() domain.JobRequest {
	return domain.JobRequest{
		JobID:          r.JobID,
		FilePath:       r.FilePath,
		ContentType:    r.ContentType,
		ChecksumSHA256: r.ChecksumSHA256,
		SubmittedBy:    r.SubmittedBy,
	}
}
