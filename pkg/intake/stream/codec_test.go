package stream_test

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/intake/stream"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Frame(t *testing.T) {
	frame, err := stream.Encode(stream.Text("hi"))
	require.NoError(t, err)
	assert.Equal(t, "data: {\"type\":\"text\",\"text\":\"hi\"}\n\n", string(frame))
}

func TestEncode_RejectsUnknownType(t *testing.T) {
	_, err := stream.Encode(stream.Event{Type: "progress"})
	assert.ErrorIs(t, err, stream.ErrUnknownEventType)

	_, err = stream.Encode(stream.Event{})
	assert.ErrorIs(t, err, stream.ErrUnknownEventType)
}

func TestDecoder_DropsUnrecognizedFrames(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type":"connected"}`, ``,
		`data: {"type":"mystery","text":"?"}`, ``,
		`data: {"text":"no type"}`, ``,
		`data: not json`, ``,
		`: keep-alive comment`, ``,
		`data: {"type":"text","text":"hi"}`, ``,
	}, "\n")

	dec := stream.NewDecoder(strings.NewReader(input), logger.NewNopLogger())

	first, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, stream.TypeConnected, first.Type)

	second, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, stream.TypeText, second.Type)
	assert.Equal(t, "hi", second.Text)

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestEncodeDecode_PreservesOrder(t *testing.T) {
	sent := []stream.Event{
		stream.Connected(),
		stream.Text("Hel"),
		stream.Text("lo"),
		stream.ToolCall("analyze_document"),
		stream.Typing(),
		stream.Final("Hello", nil),
		stream.Complete(),
	}
	var buf bytes.Buffer
	for _, ev := range sent {
		require.NoError(t, stream.WriteEvent(&buf, ev))
	}

	dec := stream.NewDecoder(&buf, logger.NewNopLogger())
	var got []stream.Event
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, ev)
	}

	if diff := cmp.Diff(sent, got); diff != "" {
		t.Errorf("decoded events mismatch (-sent +got):\n%s", diff)
	}
}

func TestToolResultEvents_OmitsMalformedPayloads(t *testing.T) {
	result := map[string]interface{}{
		"status":             "created",
		"matter":             map[string]interface{}{"matterType": "family_law", "matterId": "m-1"},
		"case_summary_pdf":   map[string]interface{}{"size": 10},
		"payment_embed":      map[string]interface{}{"checkoutUrl": "javascript:alert(1)", "amount": 50},
		"document_checklist": map[string]interface{}{"matter_type": "family_law", "required": []string{"ID"}},
		"lawyers":            map[string]interface{}{"matterType": "family_law", "lawyers": []map[string]interface{}{{"name": ""}}},
	}

	clean, events := stream.ToolResultEvents(result)

	assert.Equal(t, []stream.EventType{stream.TypeMatterCanvas, stream.TypeDocumentChecklist}, types(events))
	assert.Contains(t, clean, "status")
	assert.Contains(t, clean, "matter")
	assert.NotContains(t, clean, "case_summary_pdf")
	assert.NotContains(t, clean, "payment_embed")
	assert.NotContains(t, clean, "lawyers")

	checklist := events[1].Data.(entity.DocumentChecklist)
	assert.Equal(t, []string{}, checklist.Provided)
}

func TestToolResultEvents_ValidPayment(t *testing.T) {
	clean, events := stream.ToolResultEvents(map[string]interface{}{
		"payment_embed": stream.PaymentEmbed{CheckoutURL: "https://pay.example.com/c/1", Amount: 75, Currency: "USD"},
	})

	assert.Empty(t, events)
	assert.Equal(t, stream.PaymentEmbed{CheckoutURL: "https://pay.example.com/c/1", Amount: 75, Currency: "USD"}, clean["payment_embed"])
}

func TestToolResultEvents_NonObjectResult(t *testing.T) {
	clean, events := stream.ToolResultEvents("just text")
	assert.Empty(t, clean)
	assert.Empty(t, events)
}

func TestContextEvents(t *testing.T) {
	before := entity.NewConversationContext("s", "o")
	before.EstablishedMatters = []entity.Matter{{MatterType: "family_law"}}

	after := before.Clone()
	after.CaseDraft = &entity.CaseDraft{MatterType: "family_law", KeyFacts: []string{"We separated."}, Summary: "Family law matter"}
	after.GeneratedPDF = &entity.GeneratedPDF{Filename: "case.pdf", Size: 10, GeneratedAt: time.Unix(0, 0).UTC()}

	got := stream.ContextEvents(before, after)
	want := []stream.Event{
		{Type: stream.TypeMatterCanvas, Data: stream.MatterCanvas{
			MatterType: "family_law", Summary: "Family law matter", KeyFacts: []string{"We separated."},
		}},
		{Type: stream.TypePDFGeneration, Data: *after.GeneratedPDF},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ContextEvents mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, stream.ContextEvents(after, after.Clone()))
}

func TestContextEvents_NewMatter(t *testing.T) {
	before := entity.NewConversationContext("s", "o")
	after := before.Clone()
	after.EstablishedMatters = append(after.EstablishedMatters, entity.Matter{MatterType: "employment", Description: "fired"})

	got := stream.ContextEvents(before, after)

	require.Len(t, got, 1)
	assert.Equal(t, stream.MatterCanvas{MatterType: "employment", Description: "fired"}, got[0].Data)
}
