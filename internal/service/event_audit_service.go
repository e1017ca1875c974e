package service

import (
	"context"

	"speech-rehearsal-be/internal/pkg/logger"
	"speech-rehearsal-be/pkg/events"
	pktNats "speech-rehearsal-be/pkg/nats"
)

// EventAuditService writes every domain event on the bus to the audit log.
type EventAuditService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewEventAuditService(sub *pktNats.Subscriber, log logger.ILogger) *EventAuditService {
	return &EventAuditService{
		subscriber: sub,
		logger:     log,
	}
}

// Start attaches a durable consumer to all speech and rehearsal events.
func (s *EventAuditService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, ">", "rehearsal-event-audit", s.handleEvent); err != nil {
		s.logger.Error("EventAuditService", "Failed to start event subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("EventAuditService", "Listening for domain events", nil)
	return nil
}

func (s *EventAuditService) handleEvent(ctx context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+2)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["type"] = event.EventType()
	details["occurred_at"] = event.Timestamp()

	s.logger.Info("EventAudit", event.EventType(), details)
	return nil
}
