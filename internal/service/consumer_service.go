package service

import (
	"context"
	"encoding/json"

	"speech-rehearsal-be/internal/dto"
	"speech-rehearsal-be/internal/pkg/apperror"
	"speech-rehearsal-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber    message.Subscriber
	topicName     string
	speechService ISpeechService
	logger        logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	speechService ISpeechService,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:    subscriber,
		topicName:     topicName,
		speechService: speechService,
		logger:        logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
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
	var payload dto.RecomputeSpeechMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Dropping unreadable message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// Redelivery would fail the same way.
		msg.Ack()
		return
	}

	err := cs.speechService.RefreshAggregates(ctx, payload.SpeechId)
	switch {
	case err == nil:
		msg.Ack()
	case apperror.KindOf(err) == apperror.KindNotFound:
		// Speech was deleted after the message was queued.
		msg.Ack()
	default:
		cs.logger.Warn("ConsumerService", "Recompute failed, will retry", map[string]interface{}{
			"speech_id": payload.SpeechId,
			"error":     err.Error(),
		})
		msg.Nack()
	}
}
