package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventStatus tracks an outbox event on its way to the queue.
type EventStatus string

const (
	// EventStatusPending indicates the event was written with its material
	// mutation but not yet published
	EventStatusPending EventStatus = "pending"
	// EventStatusProcessed indicates the event reached the queue
	EventStatusProcessed EventStatus = "processed"
	// EventStatusFailed indicates publishing failed; the worker retries it
	EventStatusFailed EventStatus = "failed"
)

// Event is an outbox record for a material lifecycle change. EventType
// carries the action ("material.created", "material.reserved", ...) and
// EventData the serialized queue message.
type Event struct {
	ID          uuid.UUID
	EventType   string
	EventData   json.RawMessage
	Status      EventStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// InitMeta initializes the event metadata including ID and timestamps.
func (e *Event) InitMeta() {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	if e.Status == "" {
		e.Status = EventStatusPending
	}
}
