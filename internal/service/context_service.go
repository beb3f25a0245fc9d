package service

import (
	"context"
	"strings"
	"time"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/metrics"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/internal/repository/contract"
	"legal-intake-be/pkg/intake/signals"
)

const matterDescriptionLength = 200

type IContextService interface {
	Load(ctx context.Context, sessionID, teamID string) entity.ConversationContext
	UpdateContext(conv entity.ConversationContext, messages []entity.Message) entity.ConversationContext
	Save(ctx context.Context, conv entity.ConversationContext) bool
	Get(ctx context.Context, sessionID, teamID string) (*entity.ConversationContext, error)
	MergeAnalysis(ctx context.Context, sessionID, teamID string, ref entity.DocumentAnalysisRef) error
}

type contextService struct {
	repo   contract.ConversationContextRepository
	logger logger.ILogger
	now    func() time.Time
}

func NewContextService(repo contract.ConversationContextRepository, log logger.ILogger) IContextService {
	return &contextService{repo: repo, logger: log, now: time.Now}
}

// Load never fails; a missing or unreadable context starts the session over.
func (s *contextService) Load(ctx context.Context, sessionID, teamID string) entity.ConversationContext {
	conv, err := s.repo.FindBySession(ctx, sessionID, teamID)
	if err != nil {
		s.logger.Warn("CONTEXT", "Failed to load conversation context, using defaults", map[string]interface{}{
			"session_id": sessionID,
			"team_id":    teamID,
			"error":      err.Error(),
		})
		return entity.NewConversationContext(sessionID, teamID)
	}
	if conv == nil {
		return entity.NewConversationContext(sessionID, teamID)
	}
	return *conv
}

func (s *contextService) Get(ctx context.Context, sessionID, teamID string) (*entity.ConversationContext, error) {
	return s.repo.FindBySession(ctx, sessionID, teamID)
}

// UpdateContext folds the transcript into intent, matters and phase. It does no I/O.
func (s *contextService) UpdateContext(conv entity.ConversationContext, messages []entity.Message) entity.ConversationContext {
	out := conv.Clone()

	latest := entity.LastUserMessage(messages)
	if strings.TrimSpace(latest) != "" {
		out = out.WithIntent(signals.ClassifyIntent(latest))
	}

	for _, m := range messages {
		if m.Role != entity.RoleUser {
			continue
		}
		for _, matterType := range signals.DetectMatterTypes(m.Content) {
			if out.HasMatter(matterType) {
				continue
			}
			out.EstablishedMatters = append(out.EstablishedMatters, entity.Matter{
				MatterType:    matterType,
				Description:   describeMatter(m.Content),
				EstablishedAt: s.now(),
			})
		}
	}

	if out.ConversationPhase == entity.PhaseGreeting && hasUserContent(messages) && !isOnlyGreeting(out) {
		out = out.Advance(entity.PhaseGathering)
	}
	return out
}

// Save writes the turn's context over the stored one. Analyses the worker
// merged while the turn was running are kept.
func (s *contextService) Save(ctx context.Context, conv entity.ConversationContext) bool {
	err := s.repo.Mutate(ctx, conv.SessionID, conv.OrganizationID, func(current *entity.ConversationContext) error {
		next := conv.Clone()
		next.AnalyzedDocuments = mergeAnalyses(next.AnalyzedDocuments, current.AnalyzedDocuments)
		*current = next
		return nil
	})
	if err != nil {
		metrics.ContextSaveFailures.Inc()
		s.logger.Error("CONTEXT", "Failed to save conversation context", map[string]interface{}{
			"session_id": conv.SessionID,
			"team_id":    conv.OrganizationID,
			"error":      err.Error(),
		})
		return false
	}
	return true
}

// MergeAnalysis records a finished document analysis. A re-delivered result for the
// same status id replaces the earlier one.
func (s *contextService) MergeAnalysis(ctx context.Context, sessionID, teamID string, ref entity.DocumentAnalysisRef) error {
	return s.repo.Mutate(ctx, sessionID, teamID, func(conv *entity.ConversationContext) error {
		for i, existing := range conv.AnalyzedDocuments {
			if ref.StatusID != "" && existing.StatusID == ref.StatusID {
				conv.AnalyzedDocuments[i] = ref
				return nil
			}
		}
		conv.AnalyzedDocuments = append(conv.AnalyzedDocuments, ref)
		return nil
	})
}

func mergeAnalyses(mine, stored []entity.DocumentAnalysisRef) []entity.DocumentAnalysisRef {
	seen := make(map[string]bool, len(mine))
	for _, ref := range mine {
		seen[analysisKey(ref)] = true
	}
	for _, ref := range stored {
		if !seen[analysisKey(ref)] {
			mine = append(mine, ref)
		}
	}
	return mine
}

func analysisKey(ref entity.DocumentAnalysisRef) string {
	if ref.StatusID != "" {
		return ref.StatusID
	}
	return ref.FileName + "@" + ref.AnalyzedAt.String()
}

func hasUserContent(messages []entity.Message) bool {
	for _, m := range messages {
		if m.Role == entity.RoleUser && strings.TrimSpace(m.Content) != "" {
			return true
		}
	}
	return false
}

// isOnlyGreeting keeps a bare "hello" in the greeting phase.
func isOnlyGreeting(conv entity.ConversationContext) bool {
	return conv.UserIntent != nil && *conv.UserIntent == signals.IntentGreeting && len(conv.EstablishedMatters) == 0
}

func describeMatter(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= matterDescriptionLength {
		return text
	}
	return string(runes[:matterDescriptionLength]) + "..."
}
