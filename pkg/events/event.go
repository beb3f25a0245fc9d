package events

import "time"

const (
	DocumentAnalyzed = "DOCUMENT_ANALYZED"
	HandoffRequested = "HANDOFF_REQUESTED"
)

// Event defines the contract for all domain events.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope is the wire form. The type travels with the data so consumers
// do not depend on subject naming.
type Envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurredAt"`
}

func (e Envelope) Event() BaseEvent {
	return BaseEvent{Type: e.Type, Data: e.Data, OccurredAt: e.OccurredAt}
}

func NewDocumentAnalyzed(sessionID, organizationID, statusID, fileName string, confidence float64) BaseEvent {
	return BaseEvent{
		Type: DocumentAnalyzed,
		Data: map[string]interface{}{
			"sessionId":      sessionID,
			"organizationId": organizationID,
			"statusId":       statusID,
			"fileName":       fileName,
			"confidence":     confidence,
		},
		OccurredAt: time.Now(),
	}
}

func NewHandoffRequested(sessionID, organizationID, matterType string) BaseEvent {
	return BaseEvent{
		Type: HandoffRequested,
		Data: map[string]interface{}{
			"sessionId":      sessionID,
			"organizationId": organizationID,
			"matterType":     matterType,
		},
		OccurredAt: time.Now(),
	}
}

// StringField reads a string payload field, "" when missing.
func StringField(e Event, key string) string {
	if v, ok := e.Payload()[key].(string); ok {
		return v
	}
	return ""
}
