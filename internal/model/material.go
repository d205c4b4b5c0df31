package model

import (
	"time"

	"github.com/google/uuid"
)

// MaterialStatus represents the lifecycle state of a listed material.
type MaterialStatus string

const (
	// MaterialStatusAvailable indicates the material is listed and unclaimed.
	MaterialStatusAvailable MaterialStatus = "available"
	// MaterialStatusReserved indicates a collector has claimed intent to pick up.
	MaterialStatusReserved MaterialStatus = "reserved"
	// MaterialStatusCollected indicates the pickup happened; terminal for the normal flow.
	MaterialStatusCollected MaterialStatus = "collected"
)

// Material represents a listed quantity of recyclable waste and its lifecycle state.
type Material struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Type        string
	Quantity    string
	Weight      *float64
	Description string
	Latitude    *float64
	Longitude   *float64
	Status      MaterialStatus
	CollectorID *uuid.UUID
	UpdatedAt   time.Time
	CreatedAt   time.Time
}

// InitMeta initializes the material metadata including ID, status and timestamps.
func (m *Material) InitMeta() {
	m.ID = uuid.New()
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = MaterialStatusAvailable
	}
}

// HasLocation reports whether the material carries a full coordinate pair.
func (m *Material) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// MaterialStats aggregates listing activity for the dashboard counters.
// TotalWeight sums only materials with a recorded weight.
type MaterialStats struct {
	TotalItems  int64
	TotalWeight float64
	TodayItems  int64
	MonthItems  int64
}
