package pipeline

import (
	"context"
	"fmt"
	"strings"

	"legal-intake-be/internal/entity"
	"legal-intake-be/pkg/intake/signals"
)

// ContactRequestMessage is also an intake marker: the router keeps the next turn on intake.
const ContactRequestMessage = "I can connect you with a lawyer. Can you please provide your full name, the best phone number to reach you, and your email address?"

// LawyerDirectory finds lawyers who handle a matter type.
type LawyerDirectory interface {
	Search(ctx context.Context, team *entity.TeamConfig, matterType string) ([]entity.Lawyer, error)
}

// RosterDirectory searches the lawyers listed in the team configuration.
type RosterDirectory struct {
	Limit int
}

func (d RosterDirectory) Search(ctx context.Context, team *entity.TeamConfig, matterType string) ([]entity.Lawyer, error) {
	if team == nil {
		return []entity.Lawyer{}, nil
	}
	out := []entity.Lawyer{}
	for _, l := range team.Lawyers {
		if matterType == "" || len(l.Practices) == 0 || containsFold(l.Practices, matterType) {
			out = append(out, l)
		}
		if d.Limit > 0 && len(out) >= d.Limit {
			break
		}
	}
	return out, nil
}

// SkipToLawyer moves an explicit human request straight to handoff. It runs
// before jurisdiction so that such a request is never refused.
func SkipToLawyer() Middleware {
	return Middleware{
		Name: NameSkipToLawyer,
		Handle: func(ctx context.Context, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) (Outcome, error) {
			last := entity.LastUserMessage(messages)
			if !signals.RequestsHuman(last) {
				return Pass(conv), nil
			}

			conv = conv.Advance(entity.PhaseHandoff).WithIntent(signals.IntentSeekingLawyer)
			if transcriptHasContact(messages) {
				return Pass(conv), nil
			}
			return Respond(ContactRequestMessage, conv), nil
		},
	}
}

// LawyerSearch fills LawyerSearchResults on request, or once the conversation reaches handoff.
func LawyerSearch(directory LawyerDirectory) Middleware {
	return Middleware{
		Name: NameLawyerSearch,
		Handle: func(ctx context.Context, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) (Outcome, error) {
			if directory == nil {
				return Pass(conv), nil
			}
			explicit := signals.AsksForLawyerSearch(entity.LastUserMessage(messages))
			auto := conv.ConversationPhase == entity.PhaseHandoff && conv.LawyerSearchResults == nil
			matterType := conv.PrimaryMatterType()
			if (!explicit && !auto) || matterType == "" {
				return Pass(conv), nil
			}

			lawyers, err := directory.Search(ctx, team, matterType)
			if err != nil {
				return Outcome{}, fmt.Errorf("lawyer search: %w", err)
			}
			conv.LawyerSearchResults = &entity.LawyerSearchResults{
				MatterType: matterType,
				Lawyers:    lawyers,
				Total:      len(lawyers),
			}

			if !explicit {
				return Pass(conv), nil
			}
			return Respond(renderLawyers(matterType, lawyers), conv), nil
		},
	}
}

func transcriptHasContact(messages []entity.Message) bool {
	for _, m := range messages {
		if m.Role == entity.RoleUser && signals.HasContactInfo(m.Content) {
			return true
		}
	}
	return false
}

func renderLawyers(matterType string, lawyers []entity.Lawyer) string {
	if len(lawyers) == 0 {
		return fmt.Sprintf("I couldn't find a lawyer for %s matters right now. Would you like me to connect you with our intake team instead?", HumanizeMatter(matterType))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Here are lawyers who handle %s matters:\n", HumanizeMatter(matterType))
	for _, l := range lawyers {
		b.WriteString("- ")
		b.WriteString(l.Name)
		if l.Email != "" {
			b.WriteString(" (")
			b.WriteString(l.Email)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	b.WriteString("Would you like me to connect you with one of them?")
	return b.String()
}
