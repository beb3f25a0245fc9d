package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/llm"

	"github.com/kaptinlin/jsonrepair"
)

const defaultConfidence = 0.6

const summaryPrompt = `You are analyzing a document a client shared with a law firm.
Return JSON only with this shape:
{"summary": string, "entities": {"people": [string], "orgs": [string], "dates": [string]},
 "key_facts": [string], "action_items": [string], "confidence": number between 0 and 1}

Document name: %s

Document text:
%s
%s`

const visionPrompt = `Describe this image a client shared with a law firm.
Return JSON only with this shape:
{"summary": string, "entities": {"people": [string], "orgs": [string], "dates": [string]},
 "key_facts": [string], "action_items": [string], "confidence": number between 0 and 1}
Document name: %s`

type SummaryInput struct {
	Name       string
	Text       string
	Structured string
}

// Summarizer asks the model for a structured summary. It never fails: model
// and parse errors become a zero-confidence result.
type Summarizer struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewSummarizer(provider llm.LLMProvider, log logger.ILogger) *Summarizer {
	return &Summarizer{provider: provider, logger: log}
}

func (s *Summarizer) Summarize(ctx context.Context, in SummaryInput) entity.AnalysisResult {
	report(ctx, StageSummarizing)
	structured := ""
	if in.Structured != "" {
		structured = "\nStructured content (tables and elements):\n" + in.Structured
	}
	prompt := fmt.Sprintf(summaryPrompt, in.Name, in.Text, structured)

	raw, err := s.provider.Generate(ctx, prompt, llm.WithJSON(), llm.WithTemperature(0.2))
	if err != nil {
		s.logger.Warn("ANALYSIS", "Summarization call failed", map[string]interface{}{
			"file":  in.Name,
			"error": err.Error(),
		})
		return entity.FailedAnalysis("The document could not be summarized.", "summarization failed")
	}

	result, err := ParseResult(raw)
	if err != nil {
		s.logger.Warn("ANALYSIS", "Summarization output unreadable", map[string]interface{}{
			"file":  in.Name,
			"error": err.Error(),
		})
		return entity.FailedAnalysis("The document could not be summarized.", "summary output unreadable")
	}
	return result
}

// ParseResult reads a model reply into a normalized result, repairing broken JSON first.
func ParseResult(raw string) (entity.AnalysisResult, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return entity.AnalysisResult{}, fmt.Errorf("empty model reply")
	}
	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return entity.AnalysisResult{}, fmt.Errorf("repair json: %w", err)
	}

	var parsed struct {
		entity.AnalysisResult
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return entity.AnalysisResult{}, fmt.Errorf("decode analysis: %w", err)
	}

	result := parsed.AnalysisResult
	result.Confidence = defaultConfidence
	if parsed.Confidence != nil {
		result.Confidence = *parsed.Confidence
	}
	result.Error = ""
	return result.Normalize(), nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
