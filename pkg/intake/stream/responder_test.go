package stream_test

import (
	"context"
	"errors"
	"testing"

	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/intake/stream"
	"legal-intake-be/pkg/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func collect(ch <-chan stream.Event) []stream.Event {
	var out []stream.Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func types(events []stream.Event) []stream.EventType {
	out := make([]stream.EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func TestRespond_OrderedEventsThenComplete(t *testing.T) {
	provider := &llmtest.FakeProvider{Chunks: []string{"Hello", " there"}}
	r := stream.NewResponder(logger.NewNopLogger())

	events := collect(r.Respond(context.Background(), func(ctx context.Context, sink *stream.Sink) error {
		full, err := provider.ChatStream(ctx, nil, func(d string) error { return sink.Emit(stream.Text(d)) })
		if err != nil {
			return err
		}
		return sink.Emit(stream.Final(full, nil))
	}))

	assert.Equal(t, []stream.EventType{
		stream.TypeConnected, stream.TypeText, stream.TypeText, stream.TypeFinal, stream.TypeComplete,
	}, types(events))
	assert.Equal(t, "Hello", events[1].Text)
	assert.Equal(t, " there", events[2].Text)
	assert.Equal(t, "Hello there", events[3].Content)
}

func TestRespond_ConsumerAbortsAfterFirstText(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	aborted := make(chan struct{})
	provider := &llmtest.FakeProvider{
		Chunks: []string{"Hello", " there", " friend"},
		BeforeChunk: func(i int) {
			if i == 1 {
				<-aborted
			}
		},
	}

	var emitErr error
	r := stream.NewResponder(logger.NewNopLogger())
	ch := r.Respond(ctx, func(ctx context.Context, sink *stream.Sink) error {
		_, err := provider.ChatStream(ctx, nil, func(d string) error { return sink.Emit(stream.Text(d)) })
		if err != nil {
			emitErr = sink.Emit(stream.Text("late"))
			return err
		}
		return sink.Emit(stream.Final("unreachable", nil))
	})

	var got []stream.Event
	for ev := range ch {
		got = append(got, ev)
		if ev.Type == stream.TypeText {
			cancel()
			close(aborted)
		}
	}

	assert.Equal(t, []stream.EventType{stream.TypeConnected, stream.TypeText}, types(got))
	assert.ErrorIs(t, emitErr, stream.ErrStreamClosed)
}

func TestRespond_ProducerErrorYieldsSingleErrorEvent(t *testing.T) {
	r := stream.NewResponder(logger.NewNopLogger())

	events := collect(r.Respond(context.Background(), func(ctx context.Context, sink *stream.Sink) error {
		if err := sink.Emit(stream.Text("partial")); err != nil {
			return err
		}
		return errors.New("pq: connection refused to 10.0.0.4")
	}))

	require.Equal(t, []stream.EventType{stream.TypeConnected, stream.TypeText, stream.TypeError}, types(events))
	last := events[2]
	assert.Equal(t, stream.ErrorMessage, last.Message)
	assert.NotContains(t, last.Message, "10.0.0.4")
	assert.NotEmpty(t, last.CorrelationID)
}

func TestRespond_ProducerPanicIsContained(t *testing.T) {
	r := stream.NewResponder(logger.NewNopLogger())

	events := collect(r.Respond(context.Background(), func(ctx context.Context, sink *stream.Sink) error {
		var m map[string]int
		m["boom"]++
		return nil
	}))

	require.Equal(t, []stream.EventType{stream.TypeConnected, stream.TypeError}, types(events))
	assert.NotEmpty(t, events[1].CorrelationID)
}

func TestRespond_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	r := stream.NewResponder(logger.NewNopLogger())
	events := collect(r.Respond(ctx, func(ctx context.Context, sink *stream.Sink) error {
		called = true
		return nil
	}))

	assert.Empty(t, events)
	assert.False(t, called)
}
