package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventMessageNew   = "message:new"
	EventThreadUpdate = "thread:update"
)

// Event is the fan-out envelope handed back by mutating operations. The store
// never publishes anything itself; the caller passes events to a Publisher in
// a separate dispatch step.
type Event struct {
	Type      string    `json:"type"`
	ThreadID  uuid.UUID `json:"thread_id"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp int64     `json:"ts"`
}

type Publisher interface {
	Publish(event Event)
}

func newEvent(eventType string, threadID uuid.UUID, payload any) Event {
	return Event{
		Type:      eventType,
		ThreadID:  threadID,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	}
}
