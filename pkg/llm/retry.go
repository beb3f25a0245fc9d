package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type RetryConfig struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxElapsed      time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxTries:        3,
		InitialInterval: 500 * time.Millisecond,
		MaxElapsed:      45 * time.Second,
	}
}

// retryingProvider wraps any provider with bounded exponential retry.
type retryingProvider struct {
	inner LLMProvider
	cfg   RetryConfig
}

var _ LLMProvider = (*retryingProvider)(nil)

func WithRetry(inner LLMProvider, cfg RetryConfig) LLMProvider {
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 1
	}
	return &retryingProvider{inner: inner, cfg: cfg}
}

func (r *retryingProvider) options() []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	if r.cfg.InitialInterval > 0 {
		b.InitialInterval = r.cfg.InitialInterval
	}
	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.cfg.MaxTries),
	}
	if r.cfg.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(r.cfg.MaxElapsed))
	}
	return opts
}

func (r *retryingProvider) Chat(ctx context.Context, history []Message, opts ...Option) (string, error) {
	return backoff.Retry(ctx, func() (string, error) {
		return stopOnCancel(ctx)(r.inner.Chat(ctx, history, opts...))
	}, r.options()...)
}

func (r *retryingProvider) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	return backoff.Retry(ctx, func() (string, error) {
		return stopOnCancel(ctx)(r.inner.Generate(ctx, prompt, opts...))
	}, r.options()...)
}

// ChatStream only retries while nothing has been handed to onDelta; a stream
// that already produced tokens cannot be replayed without duplicating them.
func (r *retryingProvider) ChatStream(ctx context.Context, history []Message, onDelta DeltaHandler, opts ...Option) (string, error) {
	started := false
	return backoff.Retry(ctx, func() (string, error) {
		out, err := r.inner.ChatStream(ctx, history, func(delta string) error {
			started = true
			return onDelta(delta)
		}, opts...)
		if err != nil && started {
			return out, backoff.Permanent(err)
		}
		return stopOnCancel(ctx)(out, err)
	}, r.options()...)
}

func (r *retryingProvider) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string, opts ...Option) (string, error) {
	return backoff.Retry(ctx, func() (string, error) {
		return stopOnCancel(ctx)(r.inner.DescribeImage(ctx, prompt, image, mimeType, opts...))
	}, r.options()...)
}

func stopOnCancel(ctx context.Context) func(string, error) (string, error) {
	return func(out string, err error) (string, error) {
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}
}
