package nats

import (
	"context"
	"fmt"
	"time"

	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/queue"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	JobsStream     = "JOBS"
	jobsSubjects   = "jobs.>"
	jobsDurable    = "analysis-worker"
	jobsAckWait    = 2 * time.Minute
	jobsMaxDeliver = 5
)

// JobQueue is the durable job transport. It satisfies queue.Queue.
type JobQueue struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	subject string
	log     logger.ILogger
	cc      jetstream.ConsumeContext
}

var _ queue.Queue = (*JobQueue)(nil)

func NewJobQueue(url, subject string, log logger.ILogger) (*JobQueue, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}

	err = ensureStream(js, jetstream.StreamConfig{
		Name:      JobsStream,
		Subjects:  []string{jobsSubjects},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", JobsStream, err)
	}

	return &JobQueue{nc: nc, js: js, subject: subject, log: log}, nil
}

func (q *JobQueue) Publish(ctx context.Context, payload []byte) error {
	if _, err := q.js.Publish(ctx, q.subject, payload); err != nil {
		return fmt.Errorf("failed to publish job to %s: %w", q.subject, err)
	}
	return nil
}

func (q *JobQueue) Start(ctx context.Context, handler queue.Handler) error {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, JobsStream, jetstream.ConsumerConfig{
		Durable:       jobsDurable,
		FilterSubject: q.subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       jobsAckWait,
		MaxDeliver:    jobsMaxDeliver,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		handler(ctx, queue.NewDelivery(msg.Data(),
			func() { _ = msg.Ack() },
			func() { _ = msg.Nak() },
		))
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	q.cc = cc

	go func() {
		<-ctx.Done()
		cc.Stop()
	}()

	q.log.Info("NATS", "Job consumer started", map[string]interface{}{"subject": q.subject, "durable": jobsDurable})
	return nil
}

func (q *JobQueue) Close() error {
	if q.cc != nil {
		q.cc.Stop()
	}
	if q.nc != nil {
		q.nc.Close()
	}
	return nil
}
