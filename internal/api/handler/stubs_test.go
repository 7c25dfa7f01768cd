package handler

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nmoreno/careerhub/internal/storage"
	"github.com/nmoreno/careerhub/internal/store"
	"github.com/nmoreno/careerhub/pkg/models"
)

// fakeStore implements store.Store with overridable funcs for the methods a
// test cares about; everything else returns zero values.
type fakeStore struct {
	createResumeFn func(ctx context.Context, r *models.Resume) error
	getResumeFn    func(ctx context.Context, id, userID uuid.UUID) (*models.Resume, error)
	listResumesFn  func(ctx context.Context, userID uuid.UUID) ([]*models.Resume, error)
	deleteResumeFn func(ctx context.Context, id, userID uuid.UUID) error
	createKeyFn    func(ctx context.Context, key *models.APIKey) error
	listKeysFn     func(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	revokeKeyFn    func(ctx context.Context, id, userID uuid.UUID) error
}

func (f *fakeStore) Ping(_ context.Context) error { return nil }
func (f *fakeStore) GetDefaultUser(_ context.Context) (*models.User, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (f *fakeStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	if f.createKeyFn != nil {
		return f.createKeyFn(ctx, key)
	}
	return nil
}

func (f *fakeStore) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	if f.listKeysFn != nil {
		return f.listKeysFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if f.revokeKeyFn != nil {
		return f.revokeKeyFn(ctx, id, userID)
	}
	return nil
}

func (f *fakeStore) CreateResume(ctx context.Context, r *models.Resume) error {
	if f.createResumeFn != nil {
		return f.createResumeFn(ctx, r)
	}
	return nil
}

func (f *fakeStore) GetResume(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Resume, error) {
	if f.getResumeFn != nil {
		return f.getResumeFn(ctx, id, userID)
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListResumes(ctx context.Context, userID uuid.UUID) ([]*models.Resume, error) {
	if f.listResumesFn != nil {
		return f.listResumesFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeStore) LatestResume(_ context.Context, _ uuid.UUID) (*models.Resume, error) {
	return nil, store.ErrNotFound
}

func (f *fakeStore) DeleteResume(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if f.deleteResumeFn != nil {
		return f.deleteResumeFn(ctx, id, userID)
	}
	return nil
}

func (f *fakeStore) CreateAnalysisJob(_ context.Context, _ *models.AnalysisJob) error { return nil }
func (f *fakeStore) GetAnalysisJob(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.AnalysisJob, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) GetAnalysisJobByID(_ context.Context, _ uuid.UUID) (*models.AnalysisJob, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) FindLatestCompletedAnalysis(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.AnalysisJob, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) FindActiveAnalysis(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.AnalysisJob, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) UpdateAnalysisJobStatus(_ context.Context, _ uuid.UUID, _ string, _ ...store.JobUpdateOption) error {
	return nil
}

var _ store.Store = (*fakeStore)(nil)

// fakeStorage is an in-memory storage.Storage.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Fetch(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (f *fakeStorage) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

var _ storage.Storage = (*fakeStorage)(nil)
