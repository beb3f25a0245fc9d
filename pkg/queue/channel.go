package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ChannelQueue is the in-process transport. Nacked messages are redelivered by watermill.
type ChannelQueue struct {
	pubSub *gochannel.GoChannel
	topic  string
}

func NewChannelQueue(topic string, buffer int64) *ChannelQueue {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: buffer},
		watermill.NewStdLogger(false, false),
	)
	return &ChannelQueue{pubSub: pubSub, topic: topic}
}

func (q *ChannelQueue) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return q.pubSub.Publish(q.topic, msg)
}

func (q *ChannelQueue) Start(ctx context.Context, handler Handler) error {
	messages, err := q.pubSub.Subscribe(ctx, q.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			handler(ctx, NewDelivery(msg.Payload, func() { msg.Ack() }, func() { msg.Nack() }))
		}
	}()
	return nil
}

func (q *ChannelQueue) Close() error {
	return q.pubSub.Close()
}
