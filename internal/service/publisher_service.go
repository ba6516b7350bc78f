package service

import (
	"context"

	"voicenote-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// JobPublisher enqueues durable background work items. Satisfied by the
// NATS publisher.
type JobPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// IPublisherService publishes in-process messages on the internal pub/sub
// bus. Unlike the NATS job queue, these messages are ephemeral: they only
// matter while a client is connected to see them.
type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (s *publisherService) Publish(_ context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return s.pubSub.Publish(s.topicName, msg)
}
