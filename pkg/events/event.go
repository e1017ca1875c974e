package events

import "time"

// Event is anything that can be published on the bus.
type Event interface {
	// EventType is the subject suffix, e.g. "speech.created".
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

const (
	SpeechCreated     = "speech.created"
	SpeechDeleted     = "speech.deleted"
	RehearsalCreated  = "rehearsal.created"
	RehearsalDeleted  = "rehearsal.deleted"
	RehearsalAnalyzed = "rehearsal.analyzed"
	AnalysisFailed    = "rehearsal.analysis_failed"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
