package router

import (
	"testing"

	"legal-intake-be/internal/entity"
)

func msgs(pairs ...string) []entity.Message {
	out := make([]entity.Message, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, entity.Message{Role: pairs[i], Content: pairs[i+1]})
	}
	return out
}

const (
	u = entity.RoleUser
	a = entity.RoleAssistant
)

func TestRoute(t *testing.T) {
	paralegalOn := &entity.TeamConfig{Features: entity.TeamFeatures{EnableParalegalAgent: true}}
	paralegalFirst := &entity.TeamConfig{Features: entity.TeamFeatures{EnableParalegalAgent: true, ParalegalFirst: true}}
	attachment := []entity.Attachment{{Name: "lease.pdf", Size: 1024, Type: "application/pdf", URL: "https://files.example.com/lease.pdf"}}

	tests := []struct {
		name        string
		messages    []entity.Message
		attachments []entity.Attachment
		team        *entity.TeamConfig
		wantAgent   Agent
		wantReason  Reason
	}{
		{
			name:       "accepted attorney offer",
			messages:   msgs(u, "My landlord won't return my deposit", a, "I understand. Would you like me to connect you with a tenant lawyer?", u, "yes"),
			wantAgent:  AgentIntake,
			wantReason: ReasonAcceptedOffer,
		},
		{
			name:       "accepted offer with punctuation",
			messages:   msgs(a, "Would you like me to connect you with an attorney?", u, "Okay!"),
			team:       paralegalFirst,
			wantAgent:  AgentIntake,
			wantReason: ReasonAcceptedOffer,
		},
		{
			name:       "yes without offer is not a human request",
			messages:   msgs(a, "Did this happen in the last year?", u, "yes"),
			wantAgent:  AgentIntake,
			wantReason: ReasonDefault,
		},
		{
			name:        "attachments route to analysis",
			messages:    msgs(u, "Here is my lease"),
			attachments: attachment,
			team:        paralegalFirst,
			wantAgent:   AgentAnalysis,
			wantReason:  ReasonAttachments,
		},
		{
			name:       "document keywords route to analysis",
			messages:   msgs(u, "Can you review my contract for me?"),
			wantAgent:  AgentAnalysis,
			wantReason: ReasonDocumentKeywords,
		},
		{
			name:        "intake marker beats attachments",
			messages:    msgs(u, "I need help", a, "Sure. Can you please provide your full name?", u, "Jordan Lee"),
			attachments: attachment,
			wantAgent:   AgentIntake,
			wantReason:  ReasonIntakeMarker,
		},
		{
			name:       "contact details anywhere in user turns",
			messages:   msgs(u, "Call me at (555) 123-4567", a, "Thanks", u, "Also I have a question about my lease"),
			team:       paralegalFirst,
			wantAgent:  AgentIntake,
			wantReason: ReasonContactDetails,
		},
		{
			name:       "email in a user turn",
			messages:   msgs(u, "jo.lee@example.org"),
			wantAgent:  AgentIntake,
			wantReason: ReasonContactDetails,
		},
		{
			name:       "explicit human request beats paralegal first",
			messages:   msgs(u, "I want to speak with an attorney"),
			team:       paralegalFirst,
			wantAgent:  AgentIntake,
			wantReason: ReasonHumanRequest,
		},
		{
			name:       "paralegal first",
			messages:   msgs(u, "My boss fired me"),
			team:       paralegalFirst,
			wantAgent:  AgentParalegal,
			wantReason: ReasonParalegalFirst,
		},
		{
			name:       "paralegal enabled",
			messages:   msgs(u, "My boss fired me"),
			team:       paralegalOn,
			wantAgent:  AgentParalegal,
			wantReason: ReasonParalegalEnabled,
		},
		{
			name:       "paralegal keywords without feature",
			messages:   msgs(u, "Can a paralegal help me draft a letter?"),
			wantAgent:  AgentParalegal,
			wantReason: ReasonParalegalKeywords,
		},
		{
			name:       "payment acknowledgement with legal context",
			messages:   msgs(u, "I need help with my divorce", a, "Please complete the payment", u, "I paid"),
			wantAgent:  AgentParalegal,
			wantReason: ReasonPostPayment,
		},
		{
			name:       "payment acknowledgement without legal context",
			messages:   msgs(u, "hello", a, "Hi there", u, "I paid"),
			wantAgent:  AgentIntake,
			wantReason: ReasonDefault,
		},
		{
			name:       "marker older than the lookback window is ignored",
			messages:   msgs(a, "Can you please provide your full name?", u, "later", a, "ok", u, "hm", a, "sure", u, "x", a, "fine", u, "hello"),
			wantAgent:  AgentIntake,
			wantReason: ReasonDefault,
		},
		{
			name:       "default",
			messages:   msgs(u, "Hello"),
			wantAgent:  AgentIntake,
			wantReason: ReasonDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Route(Turn{Messages: tt.messages, Attachments: tt.attachments}, tt.team)
			if got.Agent != tt.wantAgent || got.Reason != tt.wantReason {
				t.Errorf("Route() = {%s %s}, want {%s %s}", got.Agent, got.Reason, tt.wantAgent, tt.wantReason)
			}
		})
	}
}
