package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nmoreno/careerhub/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error
	GetDefaultUser(ctx context.Context) (*models.User, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	CreateResume(ctx context.Context, resume *models.Resume) error
	GetResume(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Resume, error)
	ListResumes(ctx context.Context, userID uuid.UUID) ([]*models.Resume, error)
	LatestResume(ctx context.Context, userID uuid.UUID) (*models.Resume, error)
	DeleteResume(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	CreateAnalysisJob(ctx context.Context, job *models.AnalysisJob) error
	GetAnalysisJob(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.AnalysisJob, error)
	GetAnalysisJobByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error)
	FindLatestCompletedAnalysis(ctx context.Context, userID uuid.UUID, resumeID uuid.UUID) (*models.AnalysisJob, error)
	FindActiveAnalysis(ctx context.Context, userID uuid.UUID, resumeID uuid.UUID) (*models.AnalysisJob, error)
	UpdateAnalysisJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error
}

// JobUpdate carries the optional fields of a status transition. Store
// implementations resolve it from the options they receive.
type JobUpdate struct {
	Keywords     *string
	ErrorMessage *string
}

type JobUpdateOption func(*JobUpdate)

// ResolveJobUpdate folds options into a JobUpdate.
func ResolveJobUpdate(opts ...JobUpdateOption) JobUpdate {
	var u JobUpdate
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

// WithKeywords attaches the extracted keyword string to a completed transition.
func WithKeywords(keywords string) JobUpdateOption {
	return func(u *JobUpdate) {
		u.Keywords = &keywords
	}
}

// WithErrorMessage attaches the failure detail to a failed transition.
func WithErrorMessage(msg string) JobUpdateOption {
	return func(u *JobUpdate) {
		u.ErrorMessage = &msg
	}
}
