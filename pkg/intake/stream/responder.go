package stream

import (
	"context"
	"errors"
	"fmt"

	"legal-intake-be/internal/metrics"
	"legal-intake-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// ErrStreamClosed is returned by Emit once the consumer has gone away.
var ErrStreamClosed = errors.New("stream closed")

// ErrorMessage is the only error text a client ever sees.
const ErrorMessage = "Something went wrong while preparing a response. Please try again."

// Sink is the producer's side of a stream. At most one event is in flight.
type Sink struct {
	ctx context.Context
	ch  chan<- Event
}

func (s *Sink) Emit(ev Event) error {
	if s.ctx.Err() != nil {
		return ErrStreamClosed
	}
	select {
	case s.ch <- ev:
		return nil
	case <-s.ctx.Done():
		return ErrStreamClosed
	}
}

// Context is done when the consumer aborts; producers pass it to model calls.
func (s *Sink) Context() context.Context {
	return s.ctx
}

// Producer writes the body of a stream. Returning an error that is not
// caused by cancellation yields a single error event.
type Producer func(ctx context.Context, sink *Sink) error

type Responder struct {
	logger logger.ILogger
}

func NewResponder(log logger.ILogger) *Responder {
	return &Responder{logger: log}
}

// Respond emits connected, the producer's events and complete. The channel is
// closed when the stream ends. Consumers that stop reading must cancel ctx.
func (r *Responder) Respond(ctx context.Context, produce Producer) <-chan Event {
	ch := make(chan Event, 1)
	sink := &Sink{ctx: ctx, ch: ch}

	go func() {
		defer close(ch)

		if err := sink.Emit(Connected()); err != nil {
			metrics.StreamsCancelled.Inc()
			return
		}

		err := r.run(ctx, sink, produce)
		if ctx.Err() != nil || errors.Is(err, ErrStreamClosed) {
			metrics.StreamsCancelled.Inc()
			r.logger.Debug("STREAM", "Stream abandoned by consumer", nil)
			return
		}

		if err != nil {
			correlationID := uuid.NewString()
			r.logger.Error("STREAM", "Producer failed", map[string]interface{}{
				"correlation_id": correlationID,
				"error":          err.Error(),
			})
			_ = sink.Emit(Error(ErrorMessage, correlationID))
			return
		}

		_ = sink.Emit(Complete())
	}()

	return ch
}

func (r *Responder) run(ctx context.Context, sink *Sink, produce Producer) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("producer panicked: %v", rec)
		}
	}()
	return produce(ctx, sink)
}
