package router

import (
	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/metrics"
	"legal-intake-be/pkg/intake/signals"
)

// Agent is the specialized behavior a turn is routed to.
type Agent string

const (
	AgentParalegal Agent = "paralegal"
	AgentAnalysis  Agent = "analysis"
	AgentIntake    Agent = "intake"
)

// Reason names the rule that decided the route.
type Reason string

const (
	ReasonIntakeMarker      Reason = "intake_marker"
	ReasonContactDetails    Reason = "contact_details"
	ReasonHumanRequest      Reason = "human_request"
	ReasonAcceptedOffer     Reason = "accepted_attorney_offer"
	ReasonAttachments       Reason = "attachments"
	ReasonDocumentKeywords  Reason = "document_keywords"
	ReasonParalegalFirst    Reason = "paralegal_first"
	ReasonParalegalEnabled  Reason = "paralegal_enabled"
	ReasonParalegalKeywords Reason = "paralegal_keywords"
	ReasonPostPayment       Reason = "post_payment"
	ReasonDefault           Reason = "default"
)

// recentAssistantTurns bounds how far back intake markers are searched.
const recentAssistantTurns = 3

// Turn is the input to Route.
type Turn struct {
	Messages    []entity.Message
	Attachments []entity.Attachment
}

// Decision names the agent for a turn and why it was chosen.
type Decision struct {
	Agent  Agent
	Reason Reason
}

// Route applies the fixed precedence. Active intake collection and explicit
// human requests always outrank heuristic agent selection.
func Route(turn Turn, team *entity.TeamConfig) Decision {
	d := route(turn, team)
	metrics.RouteDecisions.WithLabelValues(string(d.Agent), string(d.Reason)).Inc()
	return d
}

func route(turn Turn, team *entity.TeamConfig) Decision {
	if team == nil {
		team = entity.DefaultTeamConfig("")
	}
	last := entity.LastUserMessage(turn.Messages)

	// 1. Mid-intake
	if recentAssistantHasMarker(turn.Messages) {
		return Decision{AgentIntake, ReasonIntakeMarker}
	}
	if userTurnsHaveContact(turn.Messages) {
		return Decision{AgentIntake, ReasonContactDetails}
	}

	// 2. Wants a human
	if signals.RequestsHuman(last) {
		return Decision{AgentIntake, ReasonHumanRequest}
	}
	if signals.IsShortAffirmative(last) && signals.OffersAttorney(entity.PreviousAssistantMessage(turn.Messages)) {
		return Decision{AgentIntake, ReasonAcceptedOffer}
	}

	// 3. Documents
	if len(turn.Attachments) > 0 {
		return Decision{AgentAnalysis, ReasonAttachments}
	}
	if signals.MentionsDocuments(last) {
		return Decision{AgentAnalysis, ReasonDocumentKeywords}
	}

	// 4. Paralegal-first
	paralegal := team.Features.EnableParalegalAgent
	if paralegal && team.Features.ParalegalFirst {
		return Decision{AgentParalegal, ReasonParalegalFirst}
	}

	// 5. Paralegal heuristics
	if paralegal {
		return Decision{AgentParalegal, ReasonParalegalEnabled}
	}
	if signals.MentionsParalegal(last) {
		return Decision{AgentParalegal, ReasonParalegalKeywords}
	}
	if signals.AcknowledgesPayment(last) && transcriptHasLegalContext(turn.Messages) {
		return Decision{AgentParalegal, ReasonPostPayment}
	}

	return Decision{AgentIntake, ReasonDefault}
}

func recentAssistantHasMarker(messages []entity.Message) bool {
	seen := 0
	for i := len(messages) - 1; i >= 0 && seen < recentAssistantTurns; i-- {
		if messages[i].Role != entity.RoleAssistant {
			continue
		}
		seen++
		if signals.HasIntakeMarker(messages[i].Content) {
			return true
		}
	}
	return false
}

func userTurnsHaveContact(messages []entity.Message) bool {
	for _, m := range messages {
		if m.Role == entity.RoleUser && signals.HasContactInfo(m.Content) {
			return true
		}
	}
	return false
}

func transcriptHasLegalContext(messages []entity.Message) bool {
	for _, m := range messages {
		if signals.HasLegalContext(m.Content) {
			return true
		}
	}
	return false
}
