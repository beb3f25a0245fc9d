package pipeline

import (
	"context"
	"fmt"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/metrics"
	"legal-intake-be/internal/pkg/logger"
)

// RefusalMessage is what the user sees when a fail-closed check cannot decide.
const RefusalMessage = "I'm sorry, but I can't help with that request. If you believe this is a mistake, please rephrase your message."

// HandlerFunc inspects the turn and returns either a pass-through or a
// short-circuit Outcome. The context it receives is its own copy.
type HandlerFunc func(ctx context.Context, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) (Outcome, error)

// Outcome is what a middleware decided for the turn.
type Outcome struct {
	Response *string
	Context  entity.ConversationContext
	// Block marks the response as a safety block; the context is discarded.
	Block bool
}

// Pass hands conv to the next middleware.
func Pass(conv entity.ConversationContext) Outcome {
	return Outcome{Context: conv}
}

// Respond ends the chain with text as the reply.
func Respond(text string, conv entity.ConversationContext) Outcome {
	return Outcome{Response: &text, Context: conv}
}

// Block ends the chain with a safety refusal.
func Block(text string, conv entity.ConversationContext) Outcome {
	return Outcome{Response: &text, Context: conv, Block: true}
}

// Middleware is one named step of the pipeline.
type Middleware struct {
	Name string
	// FailClosed turns an error or panic into a block instead of a pass-through.
	FailClosed bool
	Handle     HandlerFunc
}

// PipelineResult reports how a turn left the pipeline.
type PipelineResult struct {
	Response       *string
	Context        entity.ConversationContext
	MiddlewareUsed []string
	Blocked        bool
	BlockedBy      string
}

// Answered reports whether a middleware produced the reply for this turn.
func (r PipelineResult) Answered() bool {
	return r.Response != nil
}

type Pipeline struct {
	middlewares []Middleware
	logger      logger.ILogger
}

func New(log logger.ILogger, middlewares ...Middleware) *Pipeline {
	return &Pipeline{middlewares: middlewares, logger: log}
}

func (p *Pipeline) Middlewares() []Middleware {
	return append([]Middleware(nil), p.middlewares...)
}

func (p *Pipeline) Run(ctx context.Context, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) PipelineResult {
	return Run(ctx, p.logger, messages, conv, team, p.middlewares)
}

// Run executes middlewares in order. The first response stops the chain.
// A failing middleware leaves the context as its predecessor produced it.
func Run(ctx context.Context, log logger.ILogger, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig, middlewares []Middleware) PipelineResult {
	if team == nil {
		team = entity.DefaultTeamConfig(conv.OrganizationID)
	}

	current := conv.Clone()
	result := PipelineResult{MiddlewareUsed: make([]string, 0, len(middlewares))}

	for _, mw := range middlewares {
		if err := ctx.Err(); err != nil {
			log.Warn("PIPELINE", "Turn cancelled during pipeline", map[string]interface{}{
				"session_id": conv.SessionID,
				"middleware": mw.Name,
			})
			break
		}

		result.MiddlewareUsed = append(result.MiddlewareUsed, mw.Name)
		outcome, err := invoke(ctx, mw, messages, current.Clone(), team)

		if err != nil {
			details := map[string]interface{}{
				"session_id": conv.SessionID,
				"middleware": mw.Name,
				"error":      err.Error(),
			}
			if mw.FailClosed {
				log.Error("PIPELINE", "Fail-closed middleware failed, blocking turn", details)
				metrics.MiddlewareRuns.WithLabelValues(mw.Name, "blocked").Inc()
				refusal := RefusalMessage
				result.Response = &refusal
				result.Blocked = true
				result.BlockedBy = mw.Name
				result.Context = current
				return result
			}
			log.Warn("PIPELINE", "Middleware failed, passing through", details)
			continue
		}

		if outcome.Response != nil {
			if outcome.Block {
				metrics.MiddlewareRuns.WithLabelValues(mw.Name, "blocked").Inc()
				result.Blocked = true
				result.BlockedBy = mw.Name
				result.Response = outcome.Response
				result.Context = current
				return result
			}
			metrics.MiddlewareRuns.WithLabelValues(mw.Name, "respond").Inc()
			result.Response = outcome.Response
			result.Context = guardIdentity(current, outcome.Context)
			return result
		}

		metrics.MiddlewareRuns.WithLabelValues(mw.Name, "pass").Inc()
		current = guardIdentity(current, outcome.Context)
	}

	result.Context = current
	return result
}

func invoke(ctx context.Context, mw Middleware, messages []entity.Message, conv entity.ConversationContext, team *entity.TeamConfig) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.MiddlewareRuns.WithLabelValues(mw.Name, "panic").Inc()
			err = fmt.Errorf("middleware %s panicked: %v", mw.Name, r)
		}
	}()

	outcome, err = mw.Handle(ctx, messages, conv, team)
	if err != nil {
		metrics.MiddlewareRuns.WithLabelValues(mw.Name, "error").Inc()
		return Outcome{}, fmt.Errorf("middleware %s: %w", mw.Name, err)
	}
	return outcome, nil
}

// guardIdentity keeps session identifiers and phase ordering intact whatever a middleware returns.
func guardIdentity(original, next entity.ConversationContext) entity.ConversationContext {
	next.SessionID = original.SessionID
	next.OrganizationID = original.OrganizationID
	if next.ConversationPhase.Rank() < original.ConversationPhase.Rank() || !next.ConversationPhase.Valid() {
		next.ConversationPhase = original.ConversationPhase
	}
	return next
}
