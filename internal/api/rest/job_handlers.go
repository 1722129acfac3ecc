package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/scoretree/internal/jobs"
)

// JobService is satisfied by *jobs.Service.
type JobService interface {
	Enqueue(ctx context.Context, req jobs.Request) (*jobs.Job, error)
	GetStatus(ctx context.Context) (*jobs.StatusSummary, error)
	GetJob(ctx context.Context, jobID string) (*jobs.Job, error)
}

// JobHandler proxies API calls to the job service.
type JobHandler struct {
	service JobService
}

// NewJobHandler wires the REST layer to the job service.
func NewJobHandler(service JobService) *JobHandler {
	return &JobHandler{service: service}
}

// HandleJobRequest handles POST /api/v1/jobs
func (h *JobHandler) HandleJobRequest(w http.ResponseWriter, r *http.Request) {
	var req jobs.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.service.Enqueue(r.Context(), req)
	if errors.Is(err, jobs.ErrQueueFull) {
		respondError(w, http.StatusServiceUnavailable, "Job queue is full", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to enqueue job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": job,
	})
}

// HandleJobStatus handles GET /api/v1/jobs/status
func (h *JobHandler) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	respondJSON(w, http.StatusOK, buildStatusPayload(summary))
}

// HandleGetJob handles GET /api/v1/jobs/{jobID}
func (h *JobHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobID"]

	job, err := h.service.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		respondError(w, http.StatusNotFound, "Job not found", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch job", err)
		return
	}

	respondJSON(w, http.StatusOK, job)
}

func buildStatusPayload(summary *jobs.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
		"queued":  summary.Queued,
		"history": []*jobs.Job{},
	}

	if summary.ActiveJob != nil {
		response["status"] = summary.ActiveJob.Status
		if summary.ActiveJob.StatusMessage != "" {
			response["message"] = summary.ActiveJob.StatusMessage
		}
		response["active_job"] = summary.ActiveJob
	}
	if len(summary.History) > 0 {
		response["history"] = summary.History
	}
	return response
}
