// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"sabuconnect-be/internal/dto"
	"sabuconnect-be/internal/pkg/logger"
	"sabuconnect-be/pkg/events"
	pktNats "sabuconnect-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process transition bus and fans committed
// transitions out to the NATS event stream, where downstream consumers
// (notifications, search indexing) pick them up.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	eventPub  *pktNats.Publisher
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	eventPub *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		eventPub:  eventPub,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishTransitionMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "unmarshal transition message failed", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed messages never become valid, drop them
		return
	}

	cs.logger.Info("consumer", "transition event", map[string]interface{}{
		"instance_id": payload.InstanceId,
		"kind":        payload.Kind,
		"to_state":    payload.ToState,
		"action":      payload.Action,
	})

	if cs.eventPub != nil {
		event := events.BaseEvent{
			Type: "WORKFLOW_TRANSITION",
			Data: map[string]interface{}{
				"instance_id": payload.InstanceId.String(),
				"kind":        payload.Kind,
				"subject_id":  payload.SubjectId.String(),
				"to_state":    payload.ToState,
				"action":      payload.Action,
			},
			OccurredAt: time.Now(),
		}
		if err := cs.eventPub.Publish(ctx, event); err != nil {
			cs.logger.Warn("consumer", "forward to event stream failed", map[string]interface{}{
				"instance_id": payload.InstanceId,
				"error":       err.Error(),
			})
			msg.Nack()
			return
		}
	}

	msg.Ack()
}
