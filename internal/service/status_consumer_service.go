package service

import (
	"context"
	"encoding/json"

	"voicenote-be/internal/dto"
	"voicenote-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// StatusDelivery pushes real-time note status updates to connected clients.
// Typically implemented by the WebSocket Hub.
type StatusDelivery interface {
	Send(userID uuid.UUID, event dto.NoteStatusEvent)
}

// IStatusConsumerService bridges the in-process status bus to the delivery
// channel.
type IStatusConsumerService interface {
	Consume(ctx context.Context) error
}

type statusConsumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	delivery  StatusDelivery
	logger    logger.ILogger
}

func NewStatusConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	delivery StatusDelivery,
	log logger.ILogger,
) IStatusConsumerService {
	return &statusConsumerService{
		pubSub:    pubSub,
		topicName: topicName,
		delivery:  delivery,
		logger:    log,
	}
}

func (cs *statusConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *statusConsumerService) processMessage(msg *message.Message) {
	var event dto.NoteStatusEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error("StatusConsumer", "Failed to unmarshal status event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed, retrying won't help
		return
	}

	if cs.delivery != nil {
		cs.delivery.Send(event.UserId, event)
	}
	msg.Ack()
}
