package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nmoreno/careerhub/internal/cache"
	"github.com/nmoreno/careerhub/internal/store"
	"github.com/nmoreno/careerhub/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock store ---

type testStore struct {
	pingErr error
}

func (s *testStore) Ping(_ context.Context) error { return s.pingErr }
func (s *testStore) GetDefaultUser(_ context.Context) (*models.User, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *testStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (s *testStore) CreateAPIKey(_ context.Context, _ *models.APIKey) error    { return nil }
func (s *testStore) ListAPIKeys(_ context.Context, _ uuid.UUID) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *testStore) RevokeAPIKey(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }
func (s *testStore) CreateResume(_ context.Context, _ *models.Resume) error         { return nil }
func (s *testStore) GetResume(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.Resume, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) ListResumes(_ context.Context, _ uuid.UUID) ([]*models.Resume, error) {
	return nil, nil
}
func (s *testStore) LatestResume(_ context.Context, _ uuid.UUID) (*models.Resume, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) DeleteResume(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }
func (s *testStore) CreateAnalysisJob(_ context.Context, _ *models.AnalysisJob) error {
	return nil
}
func (s *testStore) GetAnalysisJob(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.AnalysisJob, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) GetAnalysisJobByID(_ context.Context, _ uuid.UUID) (*models.AnalysisJob, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) FindLatestCompletedAnalysis(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.AnalysisJob, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) FindActiveAnalysis(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.AnalysisJob, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) UpdateAnalysisJobStatus(_ context.Context, _ uuid.UUID, _ string, _ ...store.JobUpdateOption) error {
	return nil
}

var _ store.Store = (*testStore)(nil)

// --- mock cache ---

type testCache struct {
	pingErr error
}

func (c *testCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *testCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *testCache) Delete(_ context.Context, _ string) error                         { return nil }
func (c *testCache) Ping(_ context.Context) error                                     { return c.pingErr }
func (c *testCache) SetJobStatus(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (c *testCache) GetJobStatus(_ context.Context, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (c *testCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

var _ cache.Cache = (*testCache)(nil)

// --- health handler tests ---

func TestHealthHandler_AllOK(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	checks := data["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "ok", checks["redis"])
}

func TestHealthHandler_DatabaseDegraded(t *testing.T) {
	h := healthHandler(&testStore{pingErr: errors.New("connection refused")}, &testCache{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "DEGRADED", errObj["code"])
	details := errObj["details"].(map[string]any)
	assert.Equal(t, "unreachable", details["database"])
	assert.Equal(t, "ok", details["redis"])
}

func TestHealthHandler_RedisDegraded(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{pingErr: errors.New("redis down")})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// --- run() config validation ---

func TestRun_FailsOnMissingConfig(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "REDIS_URL", "AI_PROVIDER"} {
		t.Setenv(key, "")
	}

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestRun_FailsOnBadDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "not-a-valid-url")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("AI_PROVIDER", "ollama")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to database")
}
