package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/intake/signals"
)

const (
	NameLogging           = "logging"
	NameContentPolicy     = "content_policy"
	NameBusinessScope     = "business_scope"
	NameSkipToLawyer      = "skip_to_lawyer"
	NameJurisdiction      = "jurisdiction"
	NameCaseDraft         = "case_draft"
	NameDocumentChecklist = "document_checklist"
	NamePDFGeneration     = "pdf_generation"
	NameLawyerSearch      = "lawyer_search"
)

// builtinBlockedTerms are refused for every team.
var builtinBlockedTerms = []string{
	"make a bomb",
	"build a bomb",
	"hide a body",
	"launder money",
	"forge a signature",
	"fake an id",
	"bribe a judge",
	"intimidate a witness",
}

const contentPolicyMessage = "I'm sorry, but I can't assist with that. I'm here to help you describe a legal matter so we can connect you with the right attorney."

// Logging observes the turn and never changes it.
func Logging(log logger.ILogger) Middleware {
	return Middleware{
		Name: NameLogging,
		Handle: func(ctx context.Context, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) (Outcome, error) {
			intent := ""
			if conv.UserIntent != nil {
				intent = *conv.UserIntent
			}
			log.Info("PIPELINE", "Turn received", map[string]interface{}{
				"session_id":      conv.SessionID,
				"organization_id": conv.OrganizationID,
				"team_id":         team.ID,
				"phase":           conv.ConversationPhase,
				"intent":          intent,
				"messages":        len(messages),
				"matters":         len(conv.EstablishedMatters),
				"last_user_chars": len(entity.LastUserMessage(messages)),
			})
			return Pass(conv), nil
		},
	}
}

// ContentPolicy blocks built-in and team blocked terms, then asks the
// moderator when the team enables it. It fails closed.
func ContentPolicy(moderator Moderator) Middleware {
	return Middleware{
		Name:       NameContentPolicy,
		FailClosed: true,
		Handle: func(ctx context.Context, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) (Outcome, error) {
			last := entity.LastUserMessage(messages)
			if last == "" {
				return Pass(conv), nil
			}

			terms := append(append([]string(nil), builtinBlockedTerms...), team.Policy.BlockedTerms...)
			if signals.ContainsAny(last, terms) {
				return Block(contentPolicyMessage, conv), nil
			}

			if !team.Policy.ModerationEnabled {
				return Pass(conv), nil
			}
			if moderator == nil {
				return Outcome{}, fmt.Errorf("moderation enabled for team %s but no moderator configured", team.ID)
			}
			flagged, err := moderator.Moderate(ctx, last)
			if err != nil {
				return Outcome{}, fmt.Errorf("moderate: %w", err)
			}
			if flagged {
				return Block(contentPolicyMessage, conv), nil
			}
			return Pass(conv), nil
		},
	}
}

// BusinessScope refuses configured out-of-scope topics and matters the team does not practice.
func BusinessScope() Middleware {
	return Middleware{
		Name: NameBusinessScope,
		Handle: func(ctx context.Context, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) (Outcome, error) {
			last := entity.LastUserMessage(messages)
			if last == "" {
				return Pass(conv), nil
			}

			if hits := signals.MentionedTerms(last, team.Policy.OutOfScopeTopics); len(hits) > 0 {
				return Respond(fmt.Sprintf(
					"I'm sorry, but questions about %s are outside the services we provide. Is there a legal matter I can help you with?",
					hits[0],
				), conv), nil
			}

			areas := team.Policy.ServiceAreas
			if len(areas) == 0 {
				return Pass(conv), nil
			}
			detected := signals.DetectMatterTypes(last)
			if len(detected) == 0 {
				return Pass(conv), nil
			}
			for _, m := range detected {
				if containsFold(areas, m) {
					return Pass(conv), nil
				}
			}
			return Respond(fmt.Sprintf(
				"Thank you for sharing that. Unfortunately %s matters are outside our practice areas. We can help with %s.",
				HumanizeMatter(detected[0]),
				humanList(areas),
			), conv), nil
		},
	}
}

// Jurisdiction refuses a turn that names only unsupported jurisdictions.
// Handoff requests are never refused; the team decides on referral.
func Jurisdiction() Middleware {
	return Middleware{
		Name: NameJurisdiction,
		Handle: func(ctx context.Context, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) (Outcome, error) {
			supported := team.Policy.SupportedJurisdictions
			if len(supported) == 0 {
				return Pass(conv), nil
			}
			last := entity.LastUserMessage(messages)
			if conv.ConversationPhase == entity.PhaseHandoff || signals.RequestsHuman(last) {
				return Pass(conv), nil
			}
			mentioned := mentionedJurisdictions(last, team.Policy.KnownJurisdictions)
			if len(mentioned) == 0 {
				return Pass(conv), nil
			}
			for _, j := range mentioned {
				if containsFold(supported, j) {
					return Pass(conv), nil
				}
			}
			return Respond(fmt.Sprintf(
				"I'm sorry, but we can only assist with matters in %s. It sounds like your matter is in %s, so we may not be able to help directly.",
				humanList(supported),
				mentioned[0],
			), conv), nil
		},
	}
}

// mentionedJurisdictions returns canonical names whose name or alias appears in text.
func mentionedJurisdictions(text string, known map[string][]string) []string {
	if text == "" || len(known) == 0 {
		return nil
	}
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		candidates := append([]string{name}, known[name]...)
		if len(signals.MentionedTerms(text, candidates)) > 0 {
			out = append(out, name)
		}
	}
	return out
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}

// HumanizeMatter turns "landlord_tenant" into "landlord tenant".
func HumanizeMatter(matterType string) string {
	if matterType == "" {
		return "general legal"
	}
	return strings.ReplaceAll(matterType, "_", " ")
}

func humanList(items []string) string {
	cleaned := make([]string, 0, len(items))
	for _, it := range items {
		cleaned = append(cleaned, HumanizeMatter(it))
	}
	switch len(cleaned) {
	case 0:
		return ""
	case 1:
		return cleaned[0]
	case 2:
		return cleaned[0] + " and " + cleaned[1]
	default:
		return strings.Join(cleaned[:len(cleaned)-1], ", ") + " and " + cleaned[len(cleaned)-1]
	}
}
