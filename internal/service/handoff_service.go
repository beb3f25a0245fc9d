package service

import (
	"context"
	"fmt"

	"legal-intake-be/internal/config"
	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/internal/pkg/mailer"
	"legal-intake-be/pkg/events"
	"legal-intake-be/pkg/intake/signals"
	pktNats "legal-intake-be/pkg/nats"
)

const handoffDurable = "handoff-mailer"

type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

type IHandoffService interface {
	// RequestHandoff tells the team a conversation is ready for a lawyer.
	// With an event bus the email goes out from the subscriber; without one it is sent inline.
	RequestHandoff(ctx context.Context, conv entity.ConversationContext, messages []entity.Message)
	Listen(ctx context.Context, sub EventSubscriber) error
}

type handoffService struct {
	mailer    mailer.IEmailService
	teams     config.TeamConfigProvider
	publisher EventPublisher
	logger    logger.ILogger
}

func NewHandoffService(m mailer.IEmailService, teams config.TeamConfigProvider, publisher EventPublisher, log logger.ILogger) IHandoffService {
	return &handoffService{mailer: m, teams: teams, publisher: publisher, logger: log}
}

func (s *handoffService) RequestHandoff(ctx context.Context, conv entity.ConversationContext, messages []entity.Message) {
	summary := buildHandoffSummary(conv, messages)

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, handoffEvent(conv.OrganizationID, summary))
		if err == nil {
			return
		}
		s.logger.Warn("HANDOFF", "Failed to publish handoff event, sending inline", map[string]interface{}{
			"session_id": conv.SessionID,
			"error":      err.Error(),
		})
	}
	if err := s.send(conv.OrganizationID, summary); err != nil {
		s.logger.Warn("HANDOFF", "Handoff notification skipped", map[string]interface{}{
			"session_id": conv.SessionID,
			"error":      err.Error(),
		})
	}
}

func (s *handoffService) Listen(ctx context.Context, sub EventSubscriber) error {
	return sub.Subscribe(ctx, events.HandoffRequested, handoffDurable, func(ctx context.Context, ev events.Event) error {
		return s.send(events.StringField(ev, "organizationId"), summaryFromEvent(ev))
	})
}

func (s *handoffService) send(teamID string, summary mailer.HandoffSummary) error {
	team := s.teams.Get(teamID)
	if team == nil || team.IntakeEmail == "" {
		return fmt.Errorf("team %q has no intake email", teamID)
	}
	summary.TeamName = team.Name
	if err := s.mailer.SendHandoff(team.IntakeEmail, summary); err != nil {
		return err
	}
	s.logger.Info("HANDOFF", "Handoff email sent", map[string]interface{}{"session_id": summary.SessionID, "team_id": teamID})
	return nil
}

func buildHandoffSummary(conv entity.ConversationContext, messages []entity.Message) mailer.HandoffSummary {
	summary := mailer.HandoffSummary{
		SessionID:  conv.SessionID,
		MatterType: conv.PrimaryMatterType(),
	}
	if summary.MatterType == "" {
		summary.MatterType = "unspecified"
	}
	if conv.CaseDraft != nil {
		summary.CaseSummary = conv.CaseDraft.Summary
		summary.KeyFacts = append([]string(nil), conv.CaseDraft.KeyFacts...)
	}
	for _, m := range messages {
		if m.Role != entity.RoleUser {
			continue
		}
		email, phone := signals.ExtractContact(m.Content)
		if email != "" {
			summary.Email = email
		}
		if phone != "" {
			summary.Phone = phone
		}
	}
	for _, d := range conv.AnalyzedDocuments {
		summary.Documents = append(summary.Documents, d.FileName)
	}
	return summary
}

func handoffEvent(teamID string, summary mailer.HandoffSummary) events.BaseEvent {
	ev := events.NewHandoffRequested(summary.SessionID, teamID, summary.MatterType)
	ev.Data["caseSummary"] = summary.CaseSummary
	ev.Data["keyFacts"] = summary.KeyFacts
	ev.Data["email"] = summary.Email
	ev.Data["phone"] = summary.Phone
	ev.Data["documents"] = summary.Documents
	return ev
}

func summaryFromEvent(ev events.Event) mailer.HandoffSummary {
	return mailer.HandoffSummary{
		SessionID:   events.StringField(ev, "sessionId"),
		MatterType:  events.StringField(ev, "matterType"),
		CaseSummary: events.StringField(ev, "caseSummary"),
		KeyFacts:    stringSlice(ev.Payload()["keyFacts"]),
		Email:       events.StringField(ev, "email"),
		Phone:       events.StringField(ev, "phone"),
		Documents:   stringSlice(ev.Payload()["documents"]),
	}
}

// stringSlice accepts both the in-process []string and the decoded []interface{} form.
func stringSlice(v interface{}) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
