package agent_test

import (
	"context"
	"errors"
	"testing"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/intake/agent"
	"legal-intake-be/pkg/intake/router"
	"legal-intake-be/pkg/intake/stream"
	"legal-intake-be/pkg/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	files []agent.DocumentFile
	err   error
}

func (q *fakeQueue) EnqueueAnalysis(ctx context.Context, sessionID, organizationID string, file agent.DocumentFile) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.files = append(q.files, file)
	return "status-1", nil
}

// run drives an agent through a real responder and returns the events between connected and complete.
func run(t *testing.T, a agent.Agent, req agent.Request) (agent.Result, []stream.Event) {
	t.Helper()
	var result agent.Result
	r := stream.NewResponder(logger.NewNopLogger())
	ch := r.Respond(context.Background(), func(ctx context.Context, sink *stream.Sink) error {
		var err error
		result, err = a.Run(ctx, req, sink)
		return err
	})

	var events []stream.Event
	for ev := range ch {
		events = append(events, ev)
	}
	require.GreaterOrEqual(t, len(events), 2)
	require.Equal(t, stream.TypeConnected, events[0].Type)
	require.Equal(t, stream.TypeComplete, events[len(events)-1].Type)
	return result, events[1 : len(events)-1]
}

func eventTypes(events []stream.Event) []stream.EventType {
	out := make([]stream.EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func TestAnalysisAgent_QueuesEachAttachment(t *testing.T) {
	queue := &fakeQueue{}
	provider := &llmtest.FakeProvider{Chunks: []string{"Analyzing now."}}
	a := agent.NewAnalysisAgent(provider, queue, logger.NewNopLogger())

	_, events := run(t, a, agent.Request{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "here is my lease"}},
		Attachments: []entity.Attachment{
			{Name: "lease.pdf", Size: 2048, Type: "application/pdf", URL: "https://files.example.com/u/lease.pdf"},
		},
		Context: entity.NewConversationContext("s-1", "org-1"),
	})

	assert.Equal(t, []stream.EventType{stream.TypeToolCall, stream.TypeTyping, stream.TypeToolResult, stream.TypeText}, eventTypes(events))
	assert.Equal(t, agent.ToolAnalyzeDocument, events[0].ToolName)
	assert.Equal(t, "status-1", events[2].Result.(map[string]interface{})["statusId"])

	require.Len(t, queue.files, 1)
	assert.Equal(t, agent.DocumentFile{Key: "https://files.example.com/u/lease.pdf", Name: "lease.pdf", Mime: "application/pdf", Size: 2048}, queue.files[0])
}

func TestAnalysisAgent_QueueFailureStillReplies(t *testing.T) {
	queue := &fakeQueue{err: errors.New("nats: no responders")}
	provider := &llmtest.FakeProvider{Chunks: []string{"Sorry."}}
	a := agent.NewAnalysisAgent(provider, queue, logger.NewNopLogger())

	_, events := run(t, a, agent.Request{
		Attachments: []entity.Attachment{{URL: "https://files.example.com/u/scan.png", Type: "image/png"}},
		Context:     entity.NewConversationContext("s-1", "org-1"),
	})

	result := events[2].Result.(map[string]interface{})
	assert.Equal(t, "scan.png", result["fileName"])
	assert.NotContains(t, result, "statusId")
	assert.Contains(t, result["error"], "could not be queued")
}

func TestIntakeAgent_CreatesMatterOnceWithPayment(t *testing.T) {
	provider := &llmtest.FakeProvider{Chunks: []string{"Thanks, Jo."}}
	a := agent.NewIntakeAgent(provider, logger.NewNopLogger())
	team := &entity.TeamConfig{Payment: entity.TeamPayment{Enabled: true, CheckoutURL: "https://pay.example.com/c", Amount: 75, Currency: "USD"}}

	conv := entity.NewConversationContext("s-1", "org-1")
	conv.EstablishedMatters = []entity.Matter{{MatterType: "family_law"}}
	messages := []entity.Message{{Role: entity.RoleUser, Content: "Jo Lee, jo@example.com, 555-123-4567"}}

	result, events := run(t, a, agent.Request{Messages: messages, Context: conv, Team: team})

	assert.Equal(t, []stream.EventType{stream.TypeToolCall, stream.TypeToolResult, stream.TypeMatterCanvas, stream.TypeText}, eventTypes(events))
	toolResult := events[1].Result.(map[string]interface{})
	assert.Contains(t, toolResult, stream.ResultPaymentEmbed)
	assert.Contains(t, toolResult, stream.ResultMatter)
	assert.Equal(t, "family_law", events[2].Data.(stream.MatterCanvas).MatterType)

	assert.NotEmpty(t, result.Context.MatterID)
	assert.Equal(t, entity.PhaseHandoff, result.Context.ConversationPhase)
	assert.Equal(t, "Thanks, Jo.", result.Reply)

	_, again := run(t, a, agent.Request{Messages: messages, Context: result.Context, Team: team})
	assert.Equal(t, []stream.EventType{stream.TypeText}, eventTypes(again))
}

func TestIntakeAgent_NoContactJustReplies(t *testing.T) {
	provider := &llmtest.FakeProvider{Reply: "What happened next?"}
	a := agent.NewIntakeAgent(provider, logger.NewNopLogger())

	result, events := run(t, a, agent.Request{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "My landlord kept my deposit"}},
		Context:  entity.NewConversationContext("s-1", "org-1"),
	})

	for _, ev := range events {
		assert.Equal(t, stream.TypeText, ev.Type)
	}
	assert.Equal(t, "What happened next?", result.Reply)
	assert.Empty(t, result.Context.MatterID)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, entity.RoleSystem, calls[0].History[0].Role)
	assert.Equal(t, "My landlord kept my deposit", calls[0].History[len(calls[0].History)-1].Content)
}

func TestSet_FallsBackToIntake(t *testing.T) {
	set := agent.NewSet(&llmtest.FakeProvider{}, &fakeQueue{}, logger.NewNopLogger())

	assert.Equal(t, router.AgentAnalysis, set.Get(router.AgentAnalysis).Name())
	assert.Equal(t, router.AgentIntake, set.Get(router.Agent("unknown")).Name())
}
