package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nmoreno/careerhub/internal/analysis"
	"github.com/nmoreno/careerhub/internal/api/middleware"
	"github.com/nmoreno/careerhub/internal/api/response"
	"github.com/nmoreno/careerhub/internal/store"
	"github.com/nmoreno/careerhub/pkg/models"
)

// AnalysisService is the slice of the analysis service the handlers need.
type AnalysisService interface {
	Request(ctx context.Context, userID uuid.UUID, resumeID *uuid.UUID) (*analysis.Resolution, error)
	Job(ctx context.Context, jobID uuid.UUID, userID uuid.UUID) (*models.AnalysisJob, error)
}

// AnalyzeHandler serves the CV analysis endpoints: requesting an analysis
// and polling a job until it reaches a terminal state.
type AnalyzeHandler struct {
	service AnalysisService
}

func NewAnalyzeHandler(service AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{service: service}
}

type analyzeRequest struct {
	ResumeID *uuid.UUID `json:"resume_id"`
}

type jobView struct {
	JobID        uuid.UUID  `json:"job_id"`
	Status       string     `json:"status"`
	Keywords     *string    `json:"keywords,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type analyzeAccepted struct {
	JobID   uuid.UUID `json:"job_id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// Analyze handles POST /api/v1/profile/cv/analyze. An empty or absent body
// targets the user's most recent resume. A completed prior result is returned
// immediately; otherwise the caller gets a job id to poll.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	var req analyzeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
	}

	res, err := h.service.Request(r.Context(), userID, req.ResumeID)
	if errors.Is(err, analysis.ErrNoResume) {
		response.Error(w, http.StatusNotFound, "NO_RESUME", "No resume found to analyze", nil)
		return
	}
	if err != nil {
		slog.Error("resolving analysis request", "error", err, "user_id", userID)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start analysis", nil)
		return
	}

	switch res.Outcome {
	case analysis.OutcomeCached:
		response.JSON(w, toJobView(res.Job))
	case analysis.OutcomeCoalesced:
		response.Accepted(w, analyzeAccepted{
			JobID:   res.Job.ID,
			Status:  res.Job.Status,
			Message: "Analysis already in progress for this resume",
		})
	default:
		response.Accepted(w, analyzeAccepted{
			JobID:   res.Job.ID,
			Status:  res.Job.Status,
			Message: "Analysis started",
		})
	}
}

// GetJob handles GET /api/v1/profile/cv/analyze/{jobID}. Polling is cheap:
// one scoped row read. Jobs belonging to other users read as not found.
func (h *AnalyzeHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid job ID", nil)
		return
	}

	job, err := h.service.Job(r.Context(), jobID, userID)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Analysis job not found", nil)
		return
	}
	if err != nil {
		slog.Error("loading analysis job", "error", err, "job_id", jobID)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load analysis job", nil)
		return
	}

	response.JSON(w, toJobView(job))
}

func toJobView(job *models.AnalysisJob) jobView {
	return jobView{
		JobID:        job.ID,
		Status:       job.Status,
		Keywords:     job.Keywords,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		CompletedAt:  job.CompletedAt,
	}
}
