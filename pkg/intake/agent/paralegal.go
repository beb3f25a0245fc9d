package agent

import (
	"context"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/intake/router"
	"legal-intake-be/pkg/intake/stream"
	"legal-intake-be/pkg/llm"
)

const paralegalPrompt = `You are a paralegal assistant for a law firm. Help the user organize the facts of their matter,
explain next steps in plain language, and never give a definitive legal opinion. Keep answers short.`

type ParalegalAgent struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewParalegalAgent(provider llm.LLMProvider, log logger.ILogger) *ParalegalAgent {
	return &ParalegalAgent{provider: provider, logger: log}
}

func (a *ParalegalAgent) Name() router.Agent { return router.AgentParalegal }

func (a *ParalegalAgent) Run(ctx context.Context, req Request, sink *stream.Sink) (Result, error) {
	a.logger.Debug("AGENT", "Paralegal agent handling turn", map[string]interface{}{
		"session_id": req.Context.SessionID,
	})
	reply, err := streamReply(ctx, a.provider, sink, paralegalPrompt, req)
	if err != nil {
		return Result{}, err
	}
	conv := req.Context.Advance(entity.PhaseGathering)
	return Result{Reply: reply, Context: conv}, nil
}
