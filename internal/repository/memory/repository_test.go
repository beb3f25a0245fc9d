package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"legal-intake-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationContextRepository_FindMissing(t *testing.T) {
	repo := NewConversationContextRepository()

	conv, err := repo.FindBySession(context.Background(), "s1", "team")
	require.NoError(t, err)
	assert.Nil(t, conv)
}

func TestConversationContextRepository_SaveIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationContextRepository()

	conv := entity.NewConversationContext("s1", "team")
	conv.EstablishedMatters = append(conv.EstablishedMatters, entity.Matter{MatterType: "family_law"})
	require.NoError(t, repo.Save(ctx, &conv))
	assert.False(t, conv.UpdatedAt.IsZero())

	// Mutating the caller's value after saving does not reach the store.
	conv.EstablishedMatters[0].MatterType = "criminal"

	stored, err := repo.FindBySession(ctx, "s1", "team")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "family_law", stored.EstablishedMatters[0].MatterType)

	other, err := repo.FindBySession(ctx, "s1", "another-team")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestConversationContextRepository_Mutate(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationContextRepository()

	err := repo.Mutate(ctx, "s1", "team", func(c *entity.ConversationContext) error {
		assert.Equal(t, entity.PhaseGreeting, c.ConversationPhase)
		c.AnalyzedDocuments = append(c.AnalyzedDocuments, entity.DocumentAnalysisRef{FileName: "lease.pdf"})
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repo.Mutate(ctx, "s1", "team", func(c *entity.ConversationContext) error {
		c.AnalyzedDocuments = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := repo.FindBySession(ctx, "s1", "team")
	require.NoError(t, err)
	require.Len(t, stored.AnalyzedDocuments, 1)
	assert.Equal(t, "lease.pdf", stored.AnalyzedDocuments[0].FileName)
}

func TestStatusRepository_PutGet(t *testing.T) {
	ctx := context.Background()
	repo := NewStatusRepository()

	rec := &entity.StatusRecord{ID: "st-1", SessionID: "s1", Status: entity.StatusQueued}
	require.NoError(t, repo.Put(ctx, rec, time.Hour))

	// The stored record is a copy.
	rec.Status = entity.StatusFailed

	got, err := repo.Get(ctx, "st-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.StatusQueued, got.Status)

	missing, err := repo.Get(ctx, "st-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStatusRepository_Expires(t *testing.T) {
	ctx := context.Background()
	repo := NewStatusRepository()

	require.NoError(t, repo.Put(ctx, &entity.StatusRecord{ID: "st-1"}, 10*time.Millisecond))
	assert.Eventually(t, func() bool {
		got, err := repo.Get(ctx, "st-1")
		return err == nil && got == nil
	}, time.Second, 5*time.Millisecond)
}
