package implementation

import (
	"context"
	"errors"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/mapper"
	"legal-intake-be/internal/model"
	"legal-intake-be/internal/repository/contract"
	"legal-intake-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var contextUpdateColumns = []string{
	"conversation_phase", "user_intent", "matter_id", "established_matters", "case_draft",
	"document_checklist", "generated_pdf", "lawyer_search_results", "analyzed_documents", "updated_at",
}

type ConversationContextRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationContextMapper
}

func NewConversationContextRepository(db *gorm.DB) contract.ConversationContextRepository {
	return &ConversationContextRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationContextMapper(),
	}
}

func (r *ConversationContextRepositoryImpl) findOne(ctx context.Context, db *gorm.DB, specs ...specification.Specification) (*entity.ConversationContext, error) {
	var m model.ConversationContext
	query := specification.Compose(db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *ConversationContextRepositoryImpl) save(ctx context.Context, db *gorm.DB, conv *entity.ConversationContext) error {
	m, err := r.mapper.ToModel(conv)
	if err != nil {
		return err
	}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "organization_id"}},
		DoUpdates: clause.AssignmentColumns(contextUpdateColumns),
	}).Create(m).Error
	if err != nil {
		return err
	}
	conv.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *ConversationContextRepositoryImpl) FindBySession(ctx context.Context, sessionID, organizationID string) (*entity.ConversationContext, error) {
	return r.findOne(ctx, r.db, specification.BySession{SessionID: sessionID, OrganizationID: organizationID})
}

func (r *ConversationContextRepositoryImpl) Save(ctx context.Context, conv *entity.ConversationContext) error {
	return r.save(ctx, r.db, conv)
}

func (r *ConversationContextRepositoryImpl) Mutate(ctx context.Context, sessionID, organizationID string, fn func(*entity.ConversationContext) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := r.findOne(ctx, tx,
			specification.BySession{SessionID: sessionID, OrganizationID: organizationID},
			specification.ForUpdate{},
		)
		if err != nil {
			return err
		}
		if conv == nil {
			fresh := entity.NewConversationContext(sessionID, organizationID)
			conv = &fresh
		}
		if err := fn(conv); err != nil {
			return err
		}
		return r.save(ctx, tx, conv)
	})
}
