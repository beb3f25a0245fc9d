package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progress(p int) *int { return &p }

func newTestStatusService(n StatusNotifier) *statusService {
	return NewStatusService(memory.NewStatusRepository(), n, time.Hour, logger.NewNopLogger()).(*statusService)
}

func TestStatusService_UpdatePreservesCreatedAt(t *testing.T) {
	s := newTestStatusService(nil)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }
	rec, err := s.Create(ctx, "sess-1", "team-1", entity.StatusTypeDocumentAnalysis, "Queued")
	require.NoError(t, err)

	s.now = func() time.Time { return created.Add(time.Minute) }
	updated, err := s.Update(ctx, rec.ID, entity.StatusPatch{Status: entity.StatusProcessing, Message: "File uploaded", Progress: progress(10)})
	require.NoError(t, err)

	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, created.Add(time.Minute), updated.UpdatedAt)
	assert.Equal(t, "sess-1", updated.SessionID)
	assert.Equal(t, 10, updated.Progress)
}

func TestStatusService_ProgressRules(t *testing.T) {
	s := newTestStatusService(nil)
	ctx := context.Background()

	rec, err := s.Create(ctx, "sess-1", "team-1", entity.StatusTypeDocumentAnalysis, "Queued")
	require.NoError(t, err)

	_, err = s.Update(ctx, rec.ID, entity.StatusPatch{Status: entity.StatusProcessing, Progress: progress(60)})
	require.NoError(t, err)

	back, err := s.Update(ctx, rec.ID, entity.StatusPatch{Progress: progress(25), Message: "Checking storage"})
	require.NoError(t, err)
	assert.Equal(t, 60, back.Progress, "progress never decreases")
	assert.Equal(t, "Checking storage", back.Message)

	failed, err := s.Update(ctx, rec.ID, entity.StatusPatch{Status: entity.StatusFailed, Message: "File not found", Data: entity.FailedAnalysis("x", "file not found")})
	require.NoError(t, err)
	assert.Equal(t, 0, failed.Progress)
	assert.JSONEq(t, `{"summary":"x","entities":{"people":[],"orgs":[],"dates":[]},"key_facts":[],"action_items":[],"confidence":0,"error":"file not found"}`, string(failed.Data))

	_, err = s.Update(ctx, rec.ID, entity.StatusPatch{Status: entity.StatusProcessing, Progress: progress(90)})
	assert.ErrorIs(t, err, ErrStatusTerminal)

	stored, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, stored.Status)
}

func TestStatusService_CompletedIsFull(t *testing.T) {
	s := newTestStatusService(nil)
	ctx := context.Background()

	rec, err := s.Create(ctx, "sess-1", "team-1", entity.StatusTypeDocumentAnalysis, "Queued")
	require.NoError(t, err)
	done, err := s.Update(ctx, rec.ID, entity.StatusPatch{Status: entity.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, 100, done.Progress)
}

func TestStatusService_UnknownID(t *testing.T) {
	s := newTestStatusService(nil)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrStatusNotFound)
	_, err = s.Update(context.Background(), "missing", entity.StatusPatch{Message: "x"})
	assert.ErrorIs(t, err, ErrStatusNotFound)
}

func TestStatusService_ConcurrentWritesStayMonotonic(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestStatusService(notifier)
	ctx := context.Background()

	rec, err := s.Create(ctx, "sess-1", "team-1", entity.StatusTypeDocumentAnalysis, "Queued")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for p := 1; p <= 50; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			_, _ = s.Update(ctx, rec.ID, entity.StatusPatch{Status: entity.StatusProcessing, Progress: progress(p)})
		}(p)
	}
	wg.Wait()

	last := -1
	for _, r := range notifier.Records() {
		assert.GreaterOrEqual(t, r.Progress, last, "notifications observe non-decreasing progress")
		last = r.Progress
	}
	final, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, final.Progress)
}
