package service

import (
	"context"
	"testing"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/intake/signals"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContextService(repo *flakyContextRepo) *contextService {
	s := NewContextService(repo, logger.NewNopLogger()).(*contextService)
	s.now = fixedClock()
	return s
}

func TestContextService_LoadNeverFails(t *testing.T) {
	repo := newFlakyContextRepo()
	s := newTestContextService(repo)
	ctx := context.Background()

	conv := s.Load(ctx, "sess-1", "team-1")
	assert.Equal(t, entity.NewConversationContext("sess-1", "team-1"), conv)

	repo.failFind = true
	conv = s.Load(ctx, "sess-1", "team-1")
	assert.Equal(t, entity.PhaseGreeting, conv.ConversationPhase)
	assert.Equal(t, "sess-1", conv.SessionID)
}

func TestContextService_SaveReportsFailure(t *testing.T) {
	repo := newFlakyContextRepo()
	s := newTestContextService(repo)
	ctx := context.Background()

	conv := entity.NewConversationContext("sess-1", "team-1").Advance(entity.PhaseGathering)
	assert.True(t, s.Save(ctx, conv))
	assert.Equal(t, entity.PhaseGathering, s.Load(ctx, "sess-1", "team-1").ConversationPhase)

	repo.failSave = true
	assert.False(t, s.Save(ctx, conv.Advance(entity.PhaseDrafted)))
	assert.Equal(t, entity.PhaseGathering, s.Load(ctx, "sess-1", "team-1").ConversationPhase)
}

func TestContextService_UpdateContext(t *testing.T) {
	s := newTestContextService(newFlakyContextRepo())
	base := entity.NewConversationContext("sess-1", "team-1")

	t.Run("greeting stays in greeting", func(t *testing.T) {
		out := s.UpdateContext(base, []entity.Message{{Role: entity.RoleUser, Content: "Hello!"}})
		require.NotNil(t, out.UserIntent)
		assert.Equal(t, signals.IntentGreeting, *out.UserIntent)
		assert.Equal(t, entity.PhaseGreeting, out.ConversationPhase)
	})

	t.Run("case description moves to gathering and records the matter", func(t *testing.T) {
		messages := []entity.Message{
			{Role: entity.RoleUser, Content: "Hi"},
			{Role: entity.RoleAssistant, Content: "How can I help?"},
			{Role: entity.RoleUser, Content: "My landlord kept my security deposit after I moved out."},
		}
		out := s.UpdateContext(base, messages)
		assert.Equal(t, entity.PhaseGathering, out.ConversationPhase)
		require.Len(t, out.EstablishedMatters, 1)
		assert.Equal(t, "landlord_tenant", out.EstablishedMatters[0].MatterType)
		assert.Equal(t, signals.IntentCaseDescription, *out.UserIntent)

		again := s.UpdateContext(out, messages)
		assert.Empty(t, cmp.Diff(out, again), "re-applying the same transcript changes nothing")
	})

	t.Run("deterministic and leaves input untouched", func(t *testing.T) {
		in := base.Clone()
		messages := []entity.Message{{Role: entity.RoleUser, Content: "I was fired after reporting my employer and my landlord is evicting me"}}
		first := s.UpdateContext(in, messages)
		second := s.UpdateContext(in, messages)
		assert.Empty(t, cmp.Diff(first, second))
		assert.Empty(t, cmp.Diff(base, in))
		assert.Len(t, first.EstablishedMatters, 2)
	})

	t.Run("never moves a later phase backwards", func(t *testing.T) {
		drafted := base.Advance(entity.PhaseDrafted)
		out := s.UpdateContext(drafted, []entity.Message{{Role: entity.RoleUser, Content: "hello"}})
		assert.Equal(t, entity.PhaseDrafted, out.ConversationPhase)
	})
}

func TestContextService_MergeAnalysis(t *testing.T) {
	s := newTestContextService(newFlakyContextRepo())
	ctx := context.Background()

	require.NoError(t, s.MergeAnalysis(ctx, "sess-1", "team-1", entity.DocumentAnalysisRef{StatusID: "st-1", FileName: "lease.pdf", Summary: "first"}))
	require.NoError(t, s.MergeAnalysis(ctx, "sess-1", "team-1", entity.DocumentAnalysisRef{StatusID: "st-2", FileName: "photo.jpg", Summary: "second"}))
	require.NoError(t, s.MergeAnalysis(ctx, "sess-1", "team-1", entity.DocumentAnalysisRef{StatusID: "st-1", FileName: "lease.pdf", Summary: "redelivered"}))

	conv := s.Load(ctx, "sess-1", "team-1")
	require.Len(t, conv.AnalyzedDocuments, 2)
	assert.Equal(t, "redelivered", conv.AnalyzedDocuments[0].Summary)
	assert.Equal(t, "photo.jpg", conv.AnalyzedDocuments[1].FileName)
}

func TestContextService_SaveKeepsConcurrentAnalyses(t *testing.T) {
	s := newTestContextService(newFlakyContextRepo())
	ctx := context.Background()

	// A turn loads the context, then the worker merges a result before the turn saves.
	turn := s.Load(ctx, "sess-1", "team-1")
	require.NoError(t, s.MergeAnalysis(ctx, "sess-1", "team-1", entity.DocumentAnalysisRef{StatusID: "st-1", FileName: "lease.pdf"}))

	turn = turn.Advance(entity.PhaseGathering)
	require.True(t, s.Save(ctx, turn))

	stored := s.Load(ctx, "sess-1", "team-1")
	assert.Equal(t, entity.PhaseGathering, stored.ConversationPhase)
	require.Len(t, stored.AnalyzedDocuments, 1)
	assert.Equal(t, "st-1", stored.AnalyzedDocuments[0].StatusID)
}
