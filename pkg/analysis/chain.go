package analysis

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/metrics"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/llm"
)

const (
	StrategyStructured   = "structured"
	StrategyVision       = "vision"
	StrategyUnanalyzable = "unanalyzable"
	StrategyText         = "text"

	unanalyzableSummary = "This document could not be analyzed automatically. A member of the legal team will review it."
)

// Strategy is one step of the extraction chain. An error hands the
// document to the next applicable strategy.
type Strategy interface {
	Name() string
	Applies(doc Document) bool
	Analyze(ctx context.Context, doc Document) (entity.AnalysisResult, error)
}

type Chain struct {
	strategies []Strategy
	logger     logger.ILogger
}

func NewChain(log logger.ILogger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, logger: log}
}

// NewDefaultChain builds structured, vision, unanalyzable, text in that order.
// A nil extractor skips the structured step.
func NewDefaultChain(extractor Extractor, provider llm.LLMProvider, log logger.ILogger) *Chain {
	summarizer := NewSummarizer(provider, log)
	var strategies []Strategy
	if extractor != nil {
		strategies = append(strategies, &StructuredStrategy{extractor: extractor, summarizer: summarizer})
	}
	strategies = append(strategies,
		&VisionStrategy{provider: provider},
		UnanalyzableStrategy{},
		&TextStrategy{summarizer: summarizer},
	)
	return NewChain(log, strategies...)
}

// Analyze always returns a normalized result.
func (c *Chain) Analyze(ctx context.Context, doc Document) entity.AnalysisResult {
	doc.Mime = ResolveMime(doc.Name, doc.Mime, doc.Data)

	for _, s := range c.strategies {
		if !s.Applies(doc) {
			continue
		}
		result, err := s.Analyze(ctx, doc)
		if err != nil {
			c.logger.Warn("ANALYSIS", "Strategy failed, falling back", map[string]interface{}{
				"strategy": s.Name(),
				"file":     doc.Name,
				"mime":     doc.Mime,
				"error":    err.Error(),
			})
			continue
		}
		metrics.AnalysisStrategy.WithLabelValues(s.Name()).Inc()
		return result.Normalize()
	}

	metrics.AnalysisStrategy.WithLabelValues("none").Inc()
	return entity.FailedAnalysis(unanalyzableSummary, "no analysis strategy succeeded")
}

// StructuredStrategy runs the primary extractor over PDF and Word files.
type StructuredStrategy struct {
	extractor  Extractor
	summarizer *Summarizer
}

func NewStructuredStrategy(extractor Extractor, summarizer *Summarizer) *StructuredStrategy {
	return &StructuredStrategy{extractor: extractor, summarizer: summarizer}
}

func (s *StructuredStrategy) Name() string { return StrategyStructured }

func (s *StructuredStrategy) Applies(doc Document) bool { return IsStructuredType(doc.Mime) }

func (s *StructuredStrategy) Analyze(ctx context.Context, doc Document) (entity.AnalysisResult, error) {
	report(ctx, StageExtracting)
	extraction, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		return entity.AnalysisResult{}, fmt.Errorf("primary extraction: %w", err)
	}
	return s.summarizer.Summarize(ctx, SummaryInput{
		Name:       doc.Name,
		Text:       TruncateText(extraction.Text, TextBudget),
		Structured: StructuredPayload(extraction.Elements, StructuredBudget),
	}), nil
}

// VisionStrategy describes images with a vision-capable model.
type VisionStrategy struct {
	provider llm.LLMProvider
}

func (s *VisionStrategy) Name() string { return StrategyVision }

func (s *VisionStrategy) Applies(doc Document) bool { return IsImage(doc.Mime) && len(doc.Data) > 0 }

func (s *VisionStrategy) Analyze(ctx context.Context, doc Document) (entity.AnalysisResult, error) {
	report(ctx, StageSummarizing)
	raw, err := s.provider.DescribeImage(ctx, fmt.Sprintf(visionPrompt, doc.Name), doc.Data, doc.Mime, llm.WithJSON(), llm.WithTemperature(0.2))
	if err != nil {
		return entity.AnalysisResult{}, fmt.Errorf("vision model: %w", err)
	}
	return ParseResult(raw)
}

// UnanalyzableStrategy is the deterministic end of the chain for binary files.
type UnanalyzableStrategy struct{}

func (UnanalyzableStrategy) Name() string { return StrategyUnanalyzable }

func (UnanalyzableStrategy) Applies(doc Document) bool {
	return IsBinary(doc.Mime) || (len(doc.Data) > 0 && !utf8.Valid(doc.Data))
}

func (UnanalyzableStrategy) Analyze(ctx context.Context, doc Document) (entity.AnalysisResult, error) {
	return entity.FailedAnalysis(unanalyzableSummary, fmt.Sprintf("%s content could not be analyzed", doc.Mime)), nil
}

// TextStrategy summarizes everything else as raw text.
type TextStrategy struct {
	summarizer *Summarizer
}

func NewTextStrategy(summarizer *Summarizer) *TextStrategy {
	return &TextStrategy{summarizer: summarizer}
}

func (s *TextStrategy) Name() string { return StrategyText }

func (s *TextStrategy) Applies(doc Document) bool { return true }

func (s *TextStrategy) Analyze(ctx context.Context, doc Document) (entity.AnalysisResult, error) {
	report(ctx, StageExtracting)
	text := strings.TrimSpace(string(doc.Data))
	if text == "" {
		return entity.FailedAnalysis("The document is empty.", "empty document"), nil
	}
	return s.summarizer.Summarize(ctx, SummaryInput{
		Name: doc.Name,
		Text: TruncateText(text, TextBudget),
	}), nil
}
