package service

import (
	"context"
	"encoding/json"

	"speech-rehearsal-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// IPublisherService queues in-process background work.
type IPublisherService interface {
	// RecomputeSpeech asks the consumer to refresh practice time and thumbnail.
	RecomputeSpeech(ctx context.Context, speechId uuid.UUID) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (p *publisherService) RecomputeSpeech(ctx context.Context, speechId uuid.UUID) error {
	payload, err := json.Marshal(dto.RecomputeSpeechMessage{SpeechId: speechId})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return p.publisher.Publish(p.topicName, msg)
}
