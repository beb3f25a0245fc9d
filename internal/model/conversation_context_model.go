package model

import (
	"time"

	"gorm.io/datatypes"
)

type ConversationContext struct {
	SessionID           string         `gorm:"type:varchar(128);primaryKey"`
	OrganizationID      string         `gorm:"type:varchar(128);primaryKey;index"`
	ConversationPhase   string         `gorm:"type:varchar(32);not null;default:'greeting'"`
	UserIntent          *string        `gorm:"type:varchar(64)"`
	MatterID            string         `gorm:"type:varchar(64)"`
	EstablishedMatters  datatypes.JSON `gorm:"type:jsonb"`
	CaseDraft           datatypes.JSON `gorm:"type:jsonb"`
	DocumentChecklist   datatypes.JSON `gorm:"type:jsonb"`
	GeneratedPDF        datatypes.JSON `gorm:"type:jsonb"`
	LawyerSearchResults datatypes.JSON `gorm:"type:jsonb"`
	AnalyzedDocuments   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime"`
}

func (ConversationContext) TableName() string {
	return "conversation_contexts"
}
