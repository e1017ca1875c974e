package service

import (
	"context"

	"speech-rehearsal-be/internal/pkg/logger"
	pkgEvents "speech-rehearsal-be/pkg/events"
	pktNats "speech-rehearsal-be/pkg/nats"
)

// IEventPublisher emits domain events. Publishing is best effort: failures
// are logged and never fail the operation that produced the event.
type IEventPublisher interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

type natsEventPublisher struct {
	publisher *pktNats.Publisher
	logger    logger.ILogger
}

// NewEventPublisher accepts a nil publisher, in which case events are dropped.
func NewEventPublisher(publisher *pktNats.Publisher, logger logger.ILogger) IEventPublisher {
	return &natsEventPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *natsEventPublisher) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.publisher == nil {
		return
	}

	// Detached so a client disconnect right after the response does not drop the event.
	if err := p.publisher.Publish(context.WithoutCancel(ctx), pkgEvents.New(eventType, data)); err != nil {
		p.logger.Error("EventPublisher", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
