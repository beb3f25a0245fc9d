package mapper

import (
	"encoding/json"
	"fmt"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/model"

	"gorm.io/datatypes"
)

type ConversationContextMapper struct{}

func NewConversationContextMapper() *ConversationContextMapper {
	return &ConversationContextMapper{}
}

func (m *ConversationContextMapper) ToEntity(c *model.ConversationContext) (*entity.ConversationContext, error) {
	if c == nil {
		return nil, nil
	}

	conv := entity.NewConversationContext(c.SessionID, c.OrganizationID)
	conv.ConversationPhase = entity.ConversationPhase(c.ConversationPhase)
	if !conv.ConversationPhase.Valid() {
		conv.ConversationPhase = entity.PhaseGreeting
	}
	conv.UserIntent = c.UserIntent
	conv.MatterID = c.MatterID
	conv.UpdatedAt = c.UpdatedAt

	fields := []struct {
		name string
		raw  datatypes.JSON
		dst  interface{}
	}{
		{"established_matters", c.EstablishedMatters, &conv.EstablishedMatters},
		{"case_draft", c.CaseDraft, &conv.CaseDraft},
		{"document_checklist", c.DocumentChecklist, &conv.DocumentChecklist},
		{"generated_pdf", c.GeneratedPDF, &conv.GeneratedPDF},
		{"lawyer_search_results", c.LawyerSearchResults, &conv.LawyerSearchResults},
		{"analyzed_documents", c.AnalyzedDocuments, &conv.AnalyzedDocuments},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	if conv.EstablishedMatters == nil {
		conv.EstablishedMatters = []entity.Matter{}
	}
	return &conv, nil
}

func (m *ConversationContextMapper) ToModel(c *entity.ConversationContext) (*model.ConversationContext, error) {
	if c == nil {
		return nil, nil
	}

	out := &model.ConversationContext{
		SessionID:         c.SessionID,
		OrganizationID:    c.OrganizationID,
		ConversationPhase: string(c.ConversationPhase),
		UserIntent:        c.UserIntent,
		MatterID:          c.MatterID,
		UpdatedAt:         c.UpdatedAt,
	}

	var err error
	if out.EstablishedMatters, err = toJSON(c.EstablishedMatters); err != nil {
		return nil, err
	}
	if out.CaseDraft, err = toJSON(c.CaseDraft); err != nil {
		return nil, err
	}
	if out.DocumentChecklist, err = toJSON(c.DocumentChecklist); err != nil {
		return nil, err
	}
	if out.GeneratedPDF, err = toJSON(c.GeneratedPDF); err != nil {
		return nil, err
	}
	if out.LawyerSearchResults, err = toJSON(c.LawyerSearchResults); err != nil {
		return nil, err
	}
	if out.AnalyzedDocuments, err = toJSON(c.AnalyzedDocuments); err != nil {
		return nil, err
	}
	return out, nil
}

func toJSON(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return datatypes.JSON(b), nil
}
