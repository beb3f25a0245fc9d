package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"legal-intake-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyProvider struct {
	failures int
	calls    int
	streamed []string
}

func (f *flakyProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("temporary")
	}
	return "ok", nil
}

func (f *flakyProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, nil, opts...)
}

func (f *flakyProvider) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.DeltaHandler, opts ...llm.Option) (string, error) {
	f.calls++
	if err := onDelta("partial"); err != nil {
		return "", err
	}
	return "partial", errors.New("connection reset")
}

func (f *flakyProvider) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, nil, opts...)
}

func fastRetry(tries uint) llm.RetryConfig {
	return llm.RetryConfig{MaxTries: tries, InitialInterval: time.Millisecond, MaxElapsed: time.Second}
}

func TestWithRetry_RecoversFromTransientErrors(t *testing.T) {
	inner := &flakyProvider{failures: 2}
	p := llm.WithRetry(inner, fastRetry(3))

	out, err := p.Generate(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetry_GivesUpAfterMaxTries(t *testing.T) {
	inner := &flakyProvider{failures: 10}
	p := llm.WithRetry(inner, fastRetry(2))

	_, err := p.Chat(context.Background(), nil)

	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestWithRetry_DoesNotReplayStartedStream(t *testing.T) {
	inner := &flakyProvider{}
	p := llm.WithRetry(inner, fastRetry(5))

	var deltas []string
	_, err := p.ChatStream(context.Background(), nil, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, []string{"partial"}, deltas)
}
