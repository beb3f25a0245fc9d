package dto

import "legal-intake-be/internal/entity"

const MaxAttachmentBytes = 10 * 1024 * 1024

type StreamMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"max=20000"`
}

type StreamAttachment struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name" validate:"max=255"`
	Size int64  `json:"size" validate:"gte=0,lte=10485760"`
	Type string `json:"type" validate:"max=128"`
	URL  string `json:"url" validate:"required,http_url"`
}

type AgentStreamRequest struct {
	Messages    []StreamMessage    `json:"messages" validate:"required,min=1,dive"`
	TeamID      string             `json:"teamId" validate:"required,max=128"`
	SessionID   string             `json:"sessionId" validate:"required,max=128"`
	Attachments []StreamAttachment `json:"attachments" validate:"omitempty,dive"`
}

func (r AgentStreamRequest) EntityMessages() []entity.Message {
	out := make([]entity.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		out = append(out, entity.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func (r AgentStreamRequest) EntityAttachments() []entity.Attachment {
	out := make([]entity.Attachment, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		out = append(out, entity.Attachment{ID: a.ID, Name: a.Name, Size: a.Size, Type: a.Type, URL: a.URL})
	}
	return out
}
