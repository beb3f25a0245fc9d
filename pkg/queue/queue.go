// Package queue carries analysis jobs between the HTTP layer and the worker.
package queue

import (
	"context"
	"sync"
)

// Delivery is one job. Exactly one of Ack or Nack takes effect.
type Delivery struct {
	Payload []byte

	once sync.Once
	ack  func()
	nack func()
}

func NewDelivery(payload []byte, ack, nack func()) *Delivery {
	return &Delivery{Payload: payload, ack: ack, nack: nack}
}

func (d *Delivery) Ack() {
	d.once.Do(func() {
		if d.ack != nil {
			d.ack()
		}
	})
}

// Nack asks the transport to redeliver.
func (d *Delivery) Nack() {
	d.once.Do(func() {
		if d.nack != nil {
			d.nack()
		}
	})
}

type Handler func(ctx context.Context, d *Delivery)

type Source interface {
	// Start begins delivering jobs to handler and returns once the subscription is live.
	// Deliveries stop when ctx is done.
	Start(ctx context.Context, handler Handler) error
}

type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

type Queue interface {
	Source
	Publisher
	Close() error
}
