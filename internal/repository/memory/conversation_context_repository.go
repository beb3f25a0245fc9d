package memory

import (
	"context"
	"sync"
	"time"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// ConversationContextRepository keeps contexts in process. Idle sessions expire after a day.
type ConversationContextRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewConversationContextRepository() contract.ConversationContextRepository {
	return &ConversationContextRepository{
		cache: cache.New(24*time.Hour, 30*time.Minute),
	}
}

func contextKey(sessionID, organizationID string) string {
	return organizationID + "/" + sessionID
}

func (r *ConversationContextRepository) FindBySession(ctx context.Context, sessionID, organizationID string) (*entity.ConversationContext, error) {
	if x, found := r.cache.Get(contextKey(sessionID, organizationID)); found {
		conv := x.(entity.ConversationContext).Clone()
		return &conv, nil
	}
	return nil, nil
}

func (r *ConversationContextRepository) Save(ctx context.Context, conv *entity.ConversationContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(conv)
	return nil
}

func (r *ConversationContextRepository) Mutate(ctx context.Context, sessionID, organizationID string, fn func(*entity.ConversationContext) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv := entity.NewConversationContext(sessionID, organizationID)
	if x, found := r.cache.Get(contextKey(sessionID, organizationID)); found {
		conv = x.(entity.ConversationContext).Clone()
	}
	if err := fn(&conv); err != nil {
		return err
	}
	r.store(&conv)
	return nil
}

func (r *ConversationContextRepository) store(conv *entity.ConversationContext) {
	conv.UpdatedAt = time.Now()
	r.cache.Set(contextKey(conv.SessionID, conv.OrganizationID), conv.Clone(), cache.DefaultExpiration)
}
