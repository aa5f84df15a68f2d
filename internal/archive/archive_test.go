package archive_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "gocloud.dev/blob/memblob"

	"github.com/showkit/showrunner/internal/archive"
	"github.com/showkit/showrunner/pkg/api"
)

func newTestArchiver(t *testing.T) *archive.Archiver {
	t.Helper()
	a, err := archive.New(context.Background(), "mem://", "runs/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestPutAndGet(t *testing.T) {
	a := newTestArchiver(t)
	ctx := context.Background()

	finished := time.Now().UTC().Truncate(time.Second)
	rec := &api.RunRecord{
		ID: "run-1",
		Steps: []*api.Step{
			{Request: "POST /users", Body: map[string]any{"name": "Ada"}},
		},
		Status:     api.RunCompleted,
		FinishedAt: &finished,
	}
	require.NoError(t, a.Put(ctx, rec))

	got, err := a.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, api.RunCompleted, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, finished.Equal(*got.FinishedAt))
}

func TestGetNotFound(t *testing.T) {
	a := newTestArchiver(t)

	_, err := a.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, archive.ErrArchiveNotFound)
}

func TestPutOverwrites(t *testing.T) {
	a := newTestArchiver(t)
	ctx := context.Background()

	rec := &api.RunRecord{ID: "run-1", Status: api.RunFailed}
	require.NoError(t, a.Put(ctx, rec))
	rec.Error = "boom"
	require.NoError(t, a.Put(ctx, rec))

	got, err := a.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "boom", got.Error)
}
