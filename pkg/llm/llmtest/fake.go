// Package llmtest provides a scripted LLMProvider for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"legal-intake-be/pkg/llm"
)

type Call struct {
	Method  string
	History []llm.Message
	Prompt  string
	Options llm.Options
}

// FakeProvider answers every call with Reply (or Err). Stream replies are
// split into Chunks when set, otherwise into whitespace-separated tokens.
type FakeProvider struct {
	mu sync.Mutex

	Reply       string
	Chunks      []string
	VisionReply string
	Err         error
	// BeforeChunk is invoked before each streamed chunk; tests use it to block or cancel.
	BeforeChunk func(i int)

	calls []Call
}

var _ llm.LLMProvider = (*FakeProvider)(nil)

func (f *FakeProvider) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *FakeProvider) record(c Call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *FakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.record(Call{Method: "Chat", History: history, Options: *llm.ApplyOptions(opts...)})
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

func (f *FakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	f.record(Call{Method: "Generate", Prompt: prompt, Options: *llm.ApplyOptions(opts...)})
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

func (f *FakeProvider) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.DeltaHandler, opts ...llm.Option) (string, error) {
	f.record(Call{Method: "ChatStream", History: history, Options: *llm.ApplyOptions(opts...)})
	if f.Err != nil {
		return "", f.Err
	}

	chunks := f.Chunks
	if chunks == nil {
		for _, w := range strings.SplitAfter(f.Reply, " ") {
			if w != "" {
				chunks = append(chunks, w)
			}
		}
	}

	var full strings.Builder
	for i, c := range chunks {
		if f.BeforeChunk != nil {
			f.BeforeChunk(i)
		}
		if err := ctx.Err(); err != nil {
			return full.String(), err
		}
		full.WriteString(c)
		if err := onDelta(c); err != nil {
			return full.String(), err
		}
	}
	return full.String(), nil
}

func (f *FakeProvider) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string, opts ...llm.Option) (string, error) {
	f.record(Call{Method: "DescribeImage", Prompt: prompt, Options: *llm.ApplyOptions(opts...)})
	if f.Err != nil {
		return "", f.Err
	}
	if f.VisionReply != "" {
		return f.VisionReply, nil
	}
	return f.Reply, nil
}
