package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// AnalysisJob tracks async CV keyword extraction. The API returns a job_id on
// POST /api/v1/profile/cv/analyze; the client polls
// GET /api/v1/profile/cv/analyze/{job_id} until status is completed or failed.
//
// Invariants: keywords is set only on completed, error_message only on failed,
// completed_at only on a terminal status. Rows are never deleted by the
// pipeline; completed rows double as the result cache for their
// (user_id, resume_id) pair.
type AnalysisJob struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	UserID       uuid.UUID  `db:"user_id"       json:"user_id"`
	ResumeID     *uuid.UUID `db:"resume_id"     json:"resume_id,omitempty"`
	Status       string     `db:"status"        json:"status"`
	Keywords     *string    `db:"keywords"      json:"keywords,omitempty"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// Terminal reports whether the job can no longer change state.
func (j *AnalysisJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
