package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"legal-intake-be/pkg/llm"

	"github.com/kaptinlin/jsonrepair"
)

type Moderator interface {
	Moderate(ctx context.Context, text string) (flagged bool, err error)
}

const moderationPrompt = `You are a content safety classifier for a legal intake assistant.
Flag the message only if it asks for help committing a crime, harming someone, or contains abusive content.
Describing a legal problem, even a violent or criminal one that happened to the user, is NOT flagged.
Respond with JSON only: {"flagged": true|false}

Message:
%s`

type LLMModerator struct {
	provider llm.LLMProvider
}

func NewLLMModerator(provider llm.LLMProvider) *LLMModerator {
	return &LLMModerator{provider: provider}
}

// Moderate errors when the verdict cannot be read; callers treat that as a block.
func (m *LLMModerator) Moderate(ctx context.Context, text string) (bool, error) {
	raw, err := m.provider.Generate(ctx, fmt.Sprintf(moderationPrompt, text), llm.WithJSON(), llm.WithTemperature(0))
	if err != nil {
		return false, fmt.Errorf("moderation call: %w", err)
	}

	repaired, err := jsonrepair.JSONRepair(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("moderation verdict unreadable: %w", err)
	}

	var verdict struct {
		Flagged *bool `json:"flagged"`
	}
	if err := json.Unmarshal([]byte(repaired), &verdict); err != nil {
		return false, fmt.Errorf("moderation verdict unreadable: %w", err)
	}
	if verdict.Flagged == nil {
		return false, fmt.Errorf("moderation verdict missing flagged field")
	}
	return *verdict.Flagged, nil
}
