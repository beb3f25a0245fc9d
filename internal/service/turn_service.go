package service

import (
	"context"
	"sync"
	"time"

	"legal-intake-be/internal/config"
	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/metrics"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/intake/agent"
	"legal-intake-be/pkg/intake/pipeline"
	"legal-intake-be/pkg/intake/router"
	"legal-intake-be/pkg/intake/stream"
)

type TurnRequest struct {
	SessionID   string
	TeamID      string
	Messages    []entity.Message
	Attachments []entity.Attachment
}

type ITurnService interface {
	// Stream handles one turn. The returned channel is closed when the turn ends;
	// callers that stop reading must cancel ctx.
	Stream(ctx context.Context, req TurnRequest) <-chan stream.Event
	// Wait blocks until background handoff notifications have finished.
	Wait()
}

type turnService struct {
	teams     config.TeamConfigProvider
	contexts  IContextService
	pipeline  *pipeline.Pipeline
	agents    agent.Set
	responder *stream.Responder
	handoff   IHandoffService
	logger    logger.ILogger
	locks     *sessionLocks
	inflight  sync.WaitGroup
}

func NewTurnService(
	teams config.TeamConfigProvider,
	contexts IContextService,
	p *pipeline.Pipeline,
	agents agent.Set,
	responder *stream.Responder,
	handoff IHandoffService,
	log logger.ILogger,
) ITurnService {
	return &turnService{
		teams:     teams,
		contexts:  contexts,
		pipeline:  p,
		agents:    agents,
		responder: responder,
		handoff:   handoff,
		logger:    log,
		locks:     newSessionLocks(),
	}
}

func (s *turnService) Stream(ctx context.Context, req TurnRequest) <-chan stream.Event {
	return s.responder.Respond(ctx, func(ctx context.Context, sink *stream.Sink) error {
		return s.handle(ctx, req, sink)
	})
}

func (s *turnService) Wait() {
	s.inflight.Wait()
}

func (s *turnService) handle(ctx context.Context, req TurnRequest, sink *stream.Sink) error {
	start := time.Now()
	path := "agent"
	defer func() { metrics.TurnDuration.WithLabelValues(path).Observe(time.Since(start).Seconds()) }()

	unlock, err := s.locks.Lock(ctx, req.TeamID+"/"+req.SessionID)
	if err != nil {
		return err
	}
	defer unlock()

	team := s.teams.Get(req.TeamID)
	stored := s.contexts.Load(ctx, req.SessionID, req.TeamID)
	conv := s.contexts.UpdateContext(stored, req.Messages)

	decision := router.Route(router.Turn{Messages: req.Messages, Attachments: req.Attachments}, team)
	result := s.pipeline.Run(ctx, req.Messages, conv, team)

	if result.Blocked {
		path = "blocked"
		s.logger.Warn("TURN", "Turn blocked by policy", map[string]interface{}{
			"session_id": req.SessionID,
			"blocked_by": result.BlockedBy,
		})
		return sink.Emit(stream.SecurityBlock(*result.Response, result.BlockedBy))
	}
	if err := ctx.Err(); err != nil {
		s.persist(ctx, stored, result.Context, req.Messages)
		return err
	}

	if result.Answered() {
		path = "pipeline"
		err := s.emitPipelineResponse(sink, conv, result)
		s.persist(ctx, stored, result.Context, req.Messages)
		return err
	}

	for _, ev := range stream.ContextEvents(conv, result.Context) {
		if err := sink.Emit(ev); err != nil {
			s.persist(ctx, stored, result.Context, req.Messages)
			return err
		}
	}

	a := s.agents.Get(decision.Agent)
	s.logger.Debug("TURN", "Routing turn to agent", map[string]interface{}{
		"session_id": req.SessionID,
		"agent":      string(a.Name()),
		"reason":     string(decision.Reason),
	})
	out, err := a.Run(ctx, agent.Request{
		Messages:    req.Messages,
		Attachments: req.Attachments,
		Context:     result.Context,
		Team:        team,
	}, sink)
	if err != nil {
		if ctx.Err() == nil {
			path = "error"
		}
		s.persist(ctx, stored, result.Context, req.Messages)
		return err
	}

	s.persist(ctx, stored, out.Context, req.Messages)
	return sink.Emit(stream.Final(out.Reply, out.Context))
}

func (s *turnService) emitPipelineResponse(sink *stream.Sink, before entity.ConversationContext, result pipeline.PipelineResult) error {
	content := *result.Response
	if err := sink.Emit(stream.PipelineResponse(content, result.MiddlewareUsed)); err != nil {
		return err
	}
	for _, ev := range stream.ContextEvents(before, result.Context) {
		if err := sink.Emit(ev); err != nil {
			return err
		}
	}
	return sink.Emit(stream.Final(content, result.Context))
}

// persist saves the turn's context even when the client went away. The first
// time a session reaches handoff the team is notified in the background.
func (s *turnService) persist(ctx context.Context, stored, final entity.ConversationContext, messages []entity.Message) {
	ctx = context.WithoutCancel(ctx)
	s.contexts.Save(ctx, final)

	if s.handoff != nil &&
		stored.ConversationPhase.Rank() < entity.PhaseHandoff.Rank() &&
		final.ConversationPhase == entity.PhaseHandoff {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.handoff.RequestHandoff(ctx, final, messages)
		}()
	}
}
