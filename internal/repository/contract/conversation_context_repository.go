package contract

import (
	"context"

	"legal-intake-be/internal/entity"
)

type ConversationContextRepository interface {
	// FindBySession returns nil, nil when nothing is stored.
	FindBySession(ctx context.Context, sessionID, organizationID string) (*entity.ConversationContext, error)
	Save(ctx context.Context, conv *entity.ConversationContext) error
	// Mutate loads (or creates) the context and saves fn's changes atomically.
	Mutate(ctx context.Context, sessionID, organizationID string, fn func(*entity.ConversationContext) error) error
}
