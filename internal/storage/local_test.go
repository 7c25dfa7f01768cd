package storage_test

import (
	"context"
	"testing"

	"github.com/nmoreno/careerhub/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *storage.LocalStorage {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocal_PutFetchRoundtrip(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "resumes/u1/cv.pdf", []byte("pdf data"), "application/pdf"))

	data, err := s.Fetch(ctx, "resumes/u1/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf data"), data)

	ok, err := s.Exists(ctx, "resumes/u1/cv.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocal_FetchMissing(t *testing.T) {
	s := newLocal(t)

	_, err := s.Fetch(context.Background(), "resumes/nothing.pdf")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestLocal_DeleteIsIdempotent(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a/b.pdf", []byte("x"), "application/pdf"))
	require.NoError(t, s.Delete(ctx, "a/b.pdf"))
	// Deleting again must not error.
	require.NoError(t, s.Delete(ctx, "a/b.pdf"))

	ok, err := s.Exists(ctx, "a/b.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	for _, key := range []string{"../outside.pdf", "../../etc/passwd", "/abs/path.pdf"} {
		err := s.Put(ctx, key, []byte("x"), "application/pdf")
		assert.Error(t, err, "key %q must be rejected", key)

		_, err = s.Fetch(ctx, key)
		assert.Error(t, err, "key %q must be rejected", key)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := storage.New(context.Background(), configWithBackend("ftp"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestNew_LocalBackend(t *testing.T) {
	cfg := configWithBackend("local")
	cfg.LocalDir = t.TempDir()
	s, err := storage.New(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, s)
}
