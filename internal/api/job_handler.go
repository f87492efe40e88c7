package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/orchestrator"
)

// SubmitJob принимает новый job.
// POST /jobs
//
// 202 — job принят и поставлен на выполнение.
// 409 — job_id уже занят; состояние существующего job не тронуто.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	if req.JobID == "" {
		req.JobID = uuid.New().String()
	}

	handle, err := h.engine.Submit(r.Context(), req.Request())
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrDuplicateJob):
			Conflict(w, "job_id already exists: "+req.JobID)
		case errors.Is(err, orchestrator.ErrInvalidRequest):
			BadRequest(w, err.Error())
		default:
			InternalError(w, h.logger, err)
		}
		return
	}

	JSON(w, http.StatusAccepted, SubmitJobResponse{
		JobID:  handle.JobID,
		Status: domain.JobStatusQueued,
	})
}

// GetJob возвращает текущее состояние job.
// GET /jobs/{job_id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	state, err := h.engine.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, orchestrator.ErrJobNotFound) {
			NotFound(w, "job not found: "+jobID)
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Success(w, JobFromDomain(state))
}

// GraphDOT отдаёт граф пайплайна в формате Graphviz DOT.
// GET /graph.dot
//
// Диагностический endpoint: его отказ не влияет на выполнение jobs.
func (h *Handler) GraphDOT(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	io.WriteString(w, h.engine.Graph().DOT())
}
