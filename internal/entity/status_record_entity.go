package entity

import (
	"encoding/json"
	"time"
)

type StatusState string

const (
	StatusQueued     StatusState = "queued"
	StatusProcessing StatusState = "processing"
	StatusCompleted  StatusState = "completed"
	StatusFailed     StatusState = "failed"
)

func (s StatusState) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

const StatusTypeDocumentAnalysis = "document_analysis"

type StatusRecord struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"sessionId"`
	OrganizationID string          `json:"organizationId"`
	Type           string          `json:"type"`
	Status         StatusState     `json:"status"`
	Message        string          `json:"message"`
	Progress       int             `json:"progress"`
	Data           json.RawMessage `json:"data,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// StatusPatch is a partial update. Zero values leave the field unchanged,
// except Progress which is applied when non-nil.
type StatusPatch struct {
	Status   StatusState
	Message  string
	Progress *int
	Data     interface{}
}
