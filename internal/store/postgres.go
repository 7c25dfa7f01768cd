package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nmoreno/careerhub/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) GetDefaultUser(ctx context.Context) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, created_at, updated_at FROM users WHERE email = 'dev@careerhub.local' LIMIT 1`,
	).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get default user: %w", err)
	}
	return &u, nil
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Resumes ---

func (s *PostgresStore) CreateResume(ctx context.Context, resume *models.Resume) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO resumes (id, user_id, original_filename, storage_key, view_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		resume.ID, resume.UserID, resume.OriginalFilename, resume.StorageKey, resume.ViewURL,
		resume.CreatedAt, resume.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create resume: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetResume(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Resume, error) {
	var r models.Resume
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, original_filename, storage_key, view_url, created_at, updated_at
		 FROM resumes WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&r.ID, &r.UserID, &r.OriginalFilename, &r.StorageKey, &r.ViewURL, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get resume: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) ListResumes(ctx context.Context, userID uuid.UUID) ([]*models.Resume, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, original_filename, storage_key, view_url, created_at, updated_at
		 FROM resumes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []*models.Resume
	for rows.Next() {
		var r models.Resume
		if err := rows.Scan(&r.ID, &r.UserID, &r.OriginalFilename, &r.StorageKey, &r.ViewURL,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		resumes = append(resumes, &r)
	}
	return resumes, rows.Err()
}

func (s *PostgresStore) LatestResume(ctx context.Context, userID uuid.UUID) (*models.Resume, error) {
	var r models.Resume
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, original_filename, storage_key, view_url, created_at, updated_at
		 FROM resumes WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID,
	).Scan(&r.ID, &r.UserID, &r.OriginalFilename, &r.StorageKey, &r.ViewURL, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest resume: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) DeleteResume(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM resumes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Analysis jobs ---

func (s *PostgresStore) CreateAnalysisJob(ctx context.Context, job *models.AnalysisJob) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_jobs (id, user_id, resume_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, job.UserID, job.ResumeID, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create analysis job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAnalysisJob(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.AnalysisJob, error) {
	var j models.AnalysisJob
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, resume_id, status, keywords, error_message, completed_at, created_at, updated_at
		 FROM analysis_jobs WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&j.ID, &j.UserID, &j.ResumeID, &j.Status, &j.Keywords, &j.ErrorMessage,
		&j.CompletedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis job: %w", err)
	}
	return &j, nil
}

// GetAnalysisJobByID loads a job without owner scoping. Only the background
// worker uses this; everything client-facing goes through GetAnalysisJob.
func (s *PostgresStore) GetAnalysisJobByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	var j models.AnalysisJob
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, resume_id, status, keywords, error_message, completed_at, created_at, updated_at
		 FROM analysis_jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.UserID, &j.ResumeID, &j.Status, &j.Keywords, &j.ErrorMessage,
		&j.CompletedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis job by id: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) FindLatestCompletedAnalysis(ctx context.Context, userID uuid.UUID, resumeID uuid.UUID) (*models.AnalysisJob, error) {
	var j models.AnalysisJob
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, resume_id, status, keywords, error_message, completed_at, created_at, updated_at
		 FROM analysis_jobs
		 WHERE user_id = $1 AND resume_id = $2 AND status = $3 AND keywords IS NOT NULL
		 ORDER BY completed_at DESC LIMIT 1`, userID, resumeID, models.JobStatusCompleted,
	).Scan(&j.ID, &j.UserID, &j.ResumeID, &j.Status, &j.Keywords, &j.ErrorMessage,
		&j.CompletedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest completed analysis: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) FindActiveAnalysis(ctx context.Context, userID uuid.UUID, resumeID uuid.UUID) (*models.AnalysisJob, error) {
	var j models.AnalysisJob
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, resume_id, status, keywords, error_message, completed_at, created_at, updated_at
		 FROM analysis_jobs
		 WHERE user_id = $1 AND resume_id = $2 AND status IN ($3, $4)
		 ORDER BY created_at DESC LIMIT 1`,
		userID, resumeID, models.JobStatusPending, models.JobStatusProcessing,
	).Scan(&j.ID, &j.UserID, &j.ResumeID, &j.Status, &j.Keywords, &j.ErrorMessage,
		&j.CompletedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active analysis: %w", err)
	}
	return &j, nil
}

var validTransitions = map[string][]string{
	models.JobStatusPending:    {models.JobStatusProcessing},
	models.JobStatusProcessing: {models.JobStatusCompleted, models.JobStatusFailed},
}

// UpdateAnalysisJobStatus performs an atomic, validated state transition.
// Returns ErrNotFound if the row no longer exists (race with external deletion).
func (s *PostgresStore) UpdateAnalysisJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error {
	params := ResolveJobUpdate(opts...)

	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM analysis_jobs WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get analysis job status: %w", err)
	}

	allowed := validTransitions[currentStatus]
	valid := false
	for _, a := range allowed {
		if a == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid job status transition: %s -> %s", currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE analysis_jobs SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.Keywords != nil {
		query += fmt.Sprintf(", keywords = $%d", argIdx)
		args = append(args, *params.Keywords)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}

	query += " WHERE id = $1"

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update analysis job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
