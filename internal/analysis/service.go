// Package analysis drives the background CV keyword-extraction pipeline:
// resolving new requests against prior results, and running each job through
// fetch, extract, LLM call, and persistence.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/nmoreno/careerhub/internal/ai"
	"github.com/nmoreno/careerhub/internal/cache"
	"github.com/nmoreno/careerhub/internal/extract"
	"github.com/nmoreno/careerhub/internal/storage"
	"github.com/nmoreno/careerhub/internal/store"
	"github.com/nmoreno/careerhub/pkg/models"
	"golang.org/x/sync/semaphore"
)

// ErrNoResume means the user has no source document to analyze. Surfaced
// synchronously, before any job is created.
var ErrNoResume = errors.New("no source document to analyze")

const (
	// minTextChars is the threshold below which extracted text is considered
	// unusable. Such documents complete with fallbackKeywords instead of failing.
	minTextChars = 50
	// maxKeywords caps how many keywords make it into the final result string.
	maxKeywords = 5
	// fallbackKeywords is the result for documents that yield no usable text
	// or responses that carry neither keywords nor key skills.
	fallbackKeywords = "developer"

	statusCacheTTL = 30 * time.Minute
	initialBackoff = 500 * time.Millisecond
)

// Outcome says how a Request was resolved.
type Outcome string

const (
	// OutcomeStarted means a new job was created and scheduled.
	OutcomeStarted Outcome = "started"
	// OutcomeCached means a prior completed result was reused; no worker ran.
	OutcomeCached Outcome = "cached"
	// OutcomeCoalesced means an in-flight job for the same resume was joined.
	OutcomeCoalesced Outcome = "coalesced"
)

// Resolution is the synchronous answer to an analysis request.
type Resolution struct {
	Job     *models.AnalysisJob
	Outcome Outcome
}

// Scheduler dispatches a job id to whatever executes jobs. The default runs
// RunJob on a new goroutine; tests substitute a synchronous one, and an
// out-of-process queue could take its place without touching the state machine.
type Scheduler func(jobID uuid.UUID)

// Params collects the dependencies for NewService.
type Params struct {
	Store     store.Store
	Cache     cache.Cache
	Storage   storage.Storage
	Extractor extract.Extractor
	Provider  models.AIProvider

	// Limiter caps concurrent LLM calls process-wide. Required.
	Limiter *semaphore.Weighted
	// Timeout bounds each individual LLM call.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Scheduler is optional; nil means goroutine dispatch.
	Scheduler Scheduler
}

// Service owns the analysis job lifecycle.
type Service struct {
	store      store.Store
	cache      cache.Cache
	storage    storage.Storage
	extractor  extract.Extractor
	provider   models.AIProvider
	limiter    *semaphore.Weighted
	timeout    time.Duration
	maxRetries int
	retryWait  time.Duration
	schedule   Scheduler
}

// NewService creates the analysis service.
func NewService(p Params) *Service {
	s := &Service{
		store:      p.Store,
		cache:      p.Cache,
		storage:    p.Storage,
		extractor:  p.Extractor,
		provider:   p.Provider,
		limiter:    p.Limiter,
		timeout:    p.Timeout,
		maxRetries: p.MaxRetries,
		retryWait:  initialBackoff,
		schedule:   p.Scheduler,
	}
	if s.schedule == nil {
		s.schedule = func(jobID uuid.UUID) { go s.RunJob(jobID) }
	}
	return s
}

// Request resolves an analysis request without duplicating work, in order:
// reuse the latest completed result for the resume (cache hit), join an
// active job (coalescing), or create a new pending job and schedule it.
// When resumeID is nil the user's most recent upload is used; a user with no
// resumes gets ErrNoResume. Returns immediately — never waits for the worker.
func (s *Service) Request(ctx context.Context, userID uuid.UUID, resumeID *uuid.UUID) (*Resolution, error) {
	if resumeID == nil {
		latest, err := s.store.LatestResume(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoResume
		}
		if err != nil {
			return nil, fmt.Errorf("resolving latest resume: %w", err)
		}
		resumeID = &latest.ID
	} else {
		// Owner check doubles as an existence check.
		if _, err := s.store.GetResume(ctx, *resumeID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNoResume
			}
			return nil, fmt.Errorf("checking resume: %w", err)
		}
	}

	prior, err := s.store.FindLatestCompletedAnalysis(ctx, userID, *resumeID)
	if err == nil {
		return &Resolution{Job: prior, Outcome: OutcomeCached}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking completed analyses: %w", err)
	}

	active, err := s.store.FindActiveAnalysis(ctx, userID, *resumeID)
	if err == nil {
		return &Resolution{Job: active, Outcome: OutcomeCoalesced}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking active analyses: %w", err)
	}

	now := time.Now().UTC()
	job := &models.AnalysisJob{
		ID:        uuid.New(),
		UserID:    userID,
		ResumeID:  resumeID,
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateAnalysisJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	_ = s.cache.SetJobStatus(ctx, job.ID, models.JobStatusPending, statusCacheTTL)

	s.schedule(job.ID)

	return &Resolution{Job: job, Outcome: OutcomeStarted}, nil
}

// Job is the owner-scoped read for the polling endpoint. A job belonging to a
// different user is indistinguishable from one that does not exist.
func (s *Service) Job(ctx context.Context, jobID uuid.UUID, userID uuid.UUID) (*models.AnalysisJob, error) {
	return s.store.GetAnalysisJob(ctx, jobID, userID)
}

// RunJob drives one job from pending to a terminal state. It recovers from
// panics and never lets a failure escape: the only visible effect of any
// error is the job's terminal state and error_message field.
func (s *Service) RunJob(jobID uuid.UUID) {
	// The worker outlives the HTTP request that scheduled it.
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in analysis job", "error", r, "job_id", jobID)
			s.fail(ctx, jobID, fmt.Sprintf("panic: %v", r))
		}
	}()

	job, err := s.store.GetAnalysisJobByID(ctx, jobID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted out from under us; nothing to update.
		return
	}
	if err != nil {
		slog.Error("loading analysis job", "error", err, "job_id", jobID)
		return
	}

	// Persist processing before any external call so a poll never observes a
	// stale pending while work is underway.
	if err := s.store.UpdateAnalysisJobStatus(ctx, jobID, models.JobStatusProcessing); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("marking job processing", "error", err, "job_id", jobID)
		}
		return
	}
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusProcessing, statusCacheTTL)

	keywords, err := s.analyze(ctx, job)
	if err != nil {
		s.fail(ctx, jobID, err.Error())
		return
	}

	if err := s.store.UpdateAnalysisJobStatus(ctx, jobID, models.JobStatusCompleted,
		store.WithKeywords(keywords)); err != nil {
		slog.Error("marking job completed", "error", err, "job_id", jobID)
		return
	}
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusCompleted, statusCacheTTL)
	slog.Info("analysis completed", "job_id", jobID, "user_id", job.UserID)
}

// analyze performs the fetch → extract → LLM sequence and returns the final
// keyword string.
func (s *Service) analyze(ctx context.Context, job *models.AnalysisJob) (string, error) {
	if job.ResumeID == nil {
		return "", errors.New("source document not found")
	}

	// Another job for the same resume may have completed while this one was
	// queued; reuse its result instead of calling the LLM again. Two jobs can
	// still both reach processing in a narrow window — accepted, the resolver
	// plus this re-check make duplicates rare and they are merely wasteful,
	// not incorrect.
	if prior, err := s.store.FindLatestCompletedAnalysis(ctx, job.UserID, *job.ResumeID); err == nil && prior.ID != job.ID {
		return *prior.Keywords, nil
	}

	resume, err := s.store.GetResume(ctx, *job.ResumeID, job.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return "", errors.New("source document not found")
	}
	if err != nil {
		return "", fmt.Errorf("loading resume: %v", err)
	}

	data, err := s.storage.Fetch(ctx, resume.StorageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return "", errors.New("source document not found")
	}
	if err != nil {
		return "", fmt.Errorf("fetching document: %v", err)
	}

	text, err := s.extractor.Extract(ctx, data)
	if err != nil {
		return "", fmt.Errorf("extracting text: %v", err)
	}

	// A document that yields no usable text is a degraded success, not an error.
	if len(strings.TrimSpace(text)) < minTextChars {
		return fallbackKeywords, nil
	}

	features, err := s.extractFeatures(ctx, text)
	if err != nil {
		return "", err
	}

	return deriveKeywords(features), nil
}

// extractFeatures calls the LLM under the process-wide permit pool, with a
// per-call timeout and retries on transient failures. A response that fails
// schema validation is not retried: the model's answer to this prompt is
// effectively deterministic, so retrying would just burn the budget.
func (s *Service) extractFeatures(ctx context.Context, text string) (models.ResumeFeatures, error) {
	prompt := ai.BuildResumePrompt(text)

	if err := s.limiter.Acquire(ctx, 1); err != nil {
		return models.ResumeFeatures{}, fmt.Errorf("acquiring llm permit: %v", err)
	}
	defer s.limiter.Release(1)

	var features models.ResumeFeatures

	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		raw, err := s.provider.Generate(callCtx, prompt)
		if err != nil {
			if callCtx.Err() != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w after %s", ai.ErrInferenceTimeout, s.timeout)
			}
			return err
		}

		parsed, err := ai.ParseFeatures([]byte(raw))
		if err != nil {
			return backoff.Permanent(err)
		}
		features = parsed
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryWait
	bo.RandomizationFactor = 0 // keep delays non-decreasing

	if err := backoff.Retry(operation, backoff.WithMaxRetries(bo, uint64(s.maxRetries))); err != nil {
		return models.ResumeFeatures{}, err
	}
	return features, nil
}

// deriveKeywords picks the final keyword string: the first maxKeywords
// keywords if present, else the first maxKeywords key skills, else the
// fixed fallback.
func deriveKeywords(f models.ResumeFeatures) string {
	if kws := firstNonEmpty(f.ResumeKeywords, maxKeywords); len(kws) > 0 {
		return strings.Join(kws, ", ")
	}
	if skills := firstNonEmpty(f.ResumeKeySkills, maxKeywords); len(skills) > 0 {
		return strings.Join(skills, ", ")
	}
	return fallbackKeywords
}

func firstNonEmpty(items []string, n int) []string {
	out := make([]string, 0, n)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == n {
			break
		}
	}
	return out
}

func (s *Service) fail(ctx context.Context, jobID uuid.UUID, msg string) {
	err := s.store.UpdateAnalysisJobStatus(ctx, jobID, models.JobStatusFailed,
		store.WithErrorMessage(msg))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("marking job failed", "error", err, "job_id", jobID)
	}
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, statusCacheTTL)
	slog.Warn("analysis failed", "job_id", jobID, "reason", msg)
}
