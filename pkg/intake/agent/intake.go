package agent

import (
	"context"
	"fmt"
	"strings"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/intake/router"
	"legal-intake-be/pkg/intake/signals"
	"legal-intake-be/pkg/intake/stream"
	"legal-intake-be/pkg/llm"

	"github.com/google/uuid"
)

const ToolCreateMatter = "create_matter"

const intakePrompt = `You are a legal intake assistant for a law firm. Learn what happened, when, where and who is involved.
Ask one question at a time. When the user wants to speak with a lawyer, collect their full name, phone number and email.
Never give legal advice.`

type IntakeAgent struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewIntakeAgent(provider llm.LLMProvider, log logger.ILogger) *IntakeAgent {
	return &IntakeAgent{provider: provider, logger: log}
}

func (a *IntakeAgent) Name() router.Agent { return router.AgentIntake }

func (a *IntakeAgent) Run(ctx context.Context, req Request, sink *stream.Sink) (Result, error) {
	conv := req.Context
	var notes []string

	if email, phone := contactDetails(req.Messages); (email != "" || phone != "") && conv.MatterID == "" {
		var err error
		conv, notes, err = a.createMatter(req, conv, email, phone, sink)
		if err != nil {
			return Result{}, err
		}
	}

	reply, err := streamReply(ctx, a.provider, sink, intakePrompt, Request{
		Messages:    req.Messages,
		Attachments: req.Attachments,
		Context:     conv,
		Team:        req.Team,
	}, notes...)
	if err != nil {
		return Result{}, err
	}
	return Result{Reply: reply, Context: conv.Advance(entity.PhaseGathering)}, nil
}

// createMatter records the matter once contact details are known and offers payment when the team takes it.
func (a *IntakeAgent) createMatter(req Request, conv entity.ConversationContext, email, phone string, sink *stream.Sink) (entity.ConversationContext, []string, error) {
	if err := sink.Emit(stream.ToolCall(ToolCreateMatter)); err != nil {
		return conv, nil, err
	}

	matterType := conv.PrimaryMatterType()
	if matterType == "" {
		matterType = "general"
	}
	description := ""
	if conv.CaseDraft != nil {
		description = conv.CaseDraft.Summary
	} else if len(conv.EstablishedMatters) > 0 {
		description = conv.EstablishedMatters[0].Description
	}

	matterID := uuid.NewString()
	result := map[string]interface{}{
		stream.ResultMatter: stream.MatterCanvas{
			MatterType:  matterType,
			Description: description,
			MatterID:    matterID,
		},
		"contact": map[string]string{"email": email, "phone": phone},
	}
	notes := []string{fmt.Sprintf("a %s matter was created for the user and sent to the legal team", strings.ReplaceAll(matterType, "_", " "))}

	if team := req.Team; team != nil && team.Payment.Enabled && team.Payment.CheckoutURL != "" {
		result[stream.ResultPaymentEmbed] = stream.PaymentEmbed{
			CheckoutURL: team.Payment.CheckoutURL,
			Amount:      team.Payment.Amount,
			Currency:    team.Payment.Currency,
			Description: "Consultation fee",
		}
		notes = append(notes, "a consultation payment link is shown to the user; ask them to complete it")
	}

	clean, derived := stream.ToolResultEvents(result)
	if err := sink.Emit(stream.ToolResult(ToolCreateMatter, clean)); err != nil {
		return conv, nil, err
	}
	for _, ev := range derived {
		if err := sink.Emit(ev); err != nil {
			return conv, nil, err
		}
	}

	a.logger.Info("AGENT", "Matter created", map[string]interface{}{
		"session_id":  conv.SessionID,
		"matter_id":   matterID,
		"matter_type": matterType,
	})

	conv.MatterID = matterID
	conv = conv.Advance(entity.PhaseHandoff)
	return conv, notes, nil
}

func contactDetails(messages []entity.Message) (email, phone string) {
	for _, m := range messages {
		if m.Role != entity.RoleUser {
			continue
		}
		e, p := signals.ExtractContact(m.Content)
		if email == "" {
			email = e
		}
		if phone == "" {
			phone = p
		}
	}
	return email, phone
}
