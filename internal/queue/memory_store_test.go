package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/nadmax/pulse/internal/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	s := NewMemoryStore(10)
	j := job.New(job.GenerateReport, map[string]any{"reportId": "r1"})

	require.NoError(t, s.Save(context.Background(), j))

	got, err := s.Get(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, job.StatusWaiting, got.Status)
	assert.Equal(t, "r1", got.Payload["reportId"])
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore(10)
	j := job.New(job.GenerateReport, map[string]any{"reportId": "r1"})
	require.NoError(t, s.Save(context.Background(), j))

	j.Status = job.StatusFailed
	got, err := s.Get(context.Background(), j.ID)
	require.NoError(t, err)
	got.Payload["reportId"] = "changed"

	again, err := s.Get(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusWaiting, again.Status)
	assert.Equal(t, "r1", again.Payload["reportId"])
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore(10)

	_, err := s.Get(context.Background(), "missing")

	assert.True(t, errors.Is(err, ErrJobNotFound))
}

func TestMemoryStore_EvictsOldestTerminal(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	oldDone := job.New("a", nil)
	oldDone.Status = job.StatusCompleted
	active := job.New("b", nil)
	active.Status = job.StatusActive
	newDone := job.New("c", nil)
	newDone.Status = job.StatusFailed

	require.NoError(t, s.Save(ctx, oldDone))
	require.NoError(t, s.Save(ctx, active))
	require.NoError(t, s.Save(ctx, newDone))

	assert.Equal(t, 2, s.Len())
	_, err := s.Get(ctx, oldDone.ID)
	assert.True(t, errors.Is(err, ErrJobNotFound))
	_, err = s.Get(ctx, active.ID)
	assert.NoError(t, err)
	_, err = s.Get(ctx, newDone.ID)
	assert.NoError(t, err)
}

func TestMemoryStore_KeepsNonTerminalPastLimit(t *testing.T) {
	s := NewMemoryStore(1)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(ctx, job.New("waiting", nil)))
	}

	assert.Equal(t, 3, s.Len())
}

func TestMemoryStore_UpdateDoesNotDuplicate(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()
	j := job.New("a", nil)

	require.NoError(t, s.Save(ctx, j))
	j.Status = job.StatusActive
	require.NoError(t, s.Save(ctx, j))

	jobs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.StatusActive, jobs[0].Status)
}
