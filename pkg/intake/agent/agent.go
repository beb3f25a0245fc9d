// Package agent holds the specialized conversational behaviors a turn can be routed to.
package agent

import (
	"context"
	"fmt"
	"strings"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/intake/router"
	"legal-intake-be/pkg/intake/stream"
	"legal-intake-be/pkg/llm"
)

type Request struct {
	Messages    []entity.Message
	Attachments []entity.Attachment
	Context     entity.ConversationContext
	Team        *entity.TeamConfig
}

type Result struct {
	Reply   string
	Context entity.ConversationContext
}

// Agent streams its reply through the sink and returns the updated context.
type Agent interface {
	Name() router.Agent
	Run(ctx context.Context, req Request, sink *stream.Sink) (Result, error)
}

// DocumentFile identifies an uploaded file to analyze.
type DocumentFile struct {
	Key  string
	Name string
	Mime string
	Size int64
}

// DocumentQueue enqueues an analysis job and returns its status id.
type DocumentQueue interface {
	EnqueueAnalysis(ctx context.Context, sessionID, organizationID string, file DocumentFile) (string, error)
}

// Set maps router decisions to agents.
type Set map[router.Agent]Agent

func NewSet(provider llm.LLMProvider, queue DocumentQueue, log logger.ILogger) Set {
	return Set{
		router.AgentParalegal: NewParalegalAgent(provider, log),
		router.AgentAnalysis:  NewAnalysisAgent(provider, queue, log),
		router.AgentIntake:    NewIntakeAgent(provider, log),
	}
}

// Get falls back to intake for unknown decisions.
func (s Set) Get(name router.Agent) Agent {
	if a, ok := s[name]; ok {
		return a
	}
	return s[router.AgentIntake]
}

// streamReply runs the model over the transcript and forwards every delta as a text event.
func streamReply(ctx context.Context, provider llm.LLMProvider, sink *stream.Sink, systemPrompt string, req Request, extra ...string) (string, error) {
	history := make([]llm.Message, 0, len(req.Messages)+2)
	history = append(history, llm.Message{Role: entity.RoleSystem, Content: systemPrompt})
	history = append(history, llm.Message{Role: entity.RoleSystem, Content: describeContext(req.Context, extra...)})
	for _, m := range req.Messages {
		if m.Role == entity.RoleSystem {
			continue
		}
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := provider.ChatStream(ctx, history, func(delta string) error {
		return sink.Emit(stream.Text(delta))
	})
	if err != nil {
		return reply, fmt.Errorf("stream reply: %w", err)
	}
	return reply, nil
}

func describeContext(conv entity.ConversationContext, extra ...string) string {
	var b strings.Builder
	b.WriteString("Conversation state:\n")
	fmt.Fprintf(&b, "- phase: %s\n", conv.ConversationPhase)
	if len(conv.EstablishedMatters) > 0 {
		types := make([]string, 0, len(conv.EstablishedMatters))
		for _, m := range conv.EstablishedMatters {
			types = append(types, m.MatterType)
		}
		fmt.Fprintf(&b, "- matters: %s\n", strings.Join(types, ", "))
	}
	if conv.CaseDraft != nil {
		fmt.Fprintf(&b, "- case draft: %s\n", conv.CaseDraft.Summary)
	}
	for _, d := range conv.AnalyzedDocuments {
		summary := d.Summary
		if summary == "" {
			summary = d.Preview
		}
		fmt.Fprintf(&b, "- analyzed document %q: %s\n", d.FileName, summary)
	}
	for _, e := range extra {
		b.WriteString("- ")
		b.WriteString(e)
		b.WriteString("\n")
	}
	return b.String()
}
