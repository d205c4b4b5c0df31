package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/greentech/marketplace/internal/model"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned when a lifecycle transition's status
	// precondition no longer holds.
	ErrConflict = errors.New("status precondition failed")
)

// MaterialRepository manages persisted material records and their lifecycle
// state.
type MaterialRepository interface {
	Create(ctx context.Context, material *model.Material) (*model.Material, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error)
	List(ctx context.Context, query Query) ([]*model.Material, error)
	// Update persists mutable fields of an existing material and bumps
	// updated_at. The record's owner and creation metadata are immutable.
	Update(ctx context.Context, material *model.Material) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	// Transition performs an atomic check-then-set on status: the row is
	// updated only when its current status is one of from. It returns
	// ErrNotFound when the id is absent and ErrConflict when the row exists
	// but its status fails the precondition.
	Transition(ctx context.Context, id uuid.UUID, from []model.MaterialStatus, to model.MaterialStatus, collectorID uuid.UUID) (*model.Material, error)
	// Stats aggregates listing counters, scoped to one collector's
	// materials when collectorID is non-nil.
	Stats(ctx context.Context, collectorID *uuid.UUID) (*model.MaterialStats, error)
}

// UserRepository manages marketplace participants. Registration itself is
// owned by the external auth provider; this side only reads users and
// mutates collector locations.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListCollectors(ctx context.Context) ([]*model.User, error)
	// UpdateLocation sets or clears (both nil) a collector's coordinates.
	UpdateLocation(ctx context.Context, id uuid.UUID, latitude, longitude *float64) error
}

// EventBuilder produces the outbox event for a material once its final
// state is known inside the mutating transaction.
type EventBuilder func(material *model.Material) (*model.Event, error)

// TransactionalRepository couples a material mutation with its outbox event
// in a single transaction.
type TransactionalRepository interface {
	CreateMaterialWithEvent(ctx context.Context, material *model.Material, buildEvent EventBuilder) (*model.Material, error)
	TransitionMaterialWithEvent(ctx context.Context, id uuid.UUID, from []model.MaterialStatus, to model.MaterialStatus, collectorID uuid.UUID, buildEvent EventBuilder) (*model.Material, error)
	DeleteMaterialWithEvent(ctx context.Context, material *model.Material, buildEvent EventBuilder) error
}

// EventRepository manages outbox events for lifecycle messages.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	ListPending(ctx context.Context, limit int) ([]*model.Event, error)
	UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error
}

// UniqueConstraintError represents a database unique constraint violation error.
type UniqueConstraintError struct {
	Detail string
}

func (u *UniqueConstraintError) Error() string {
	return "resource must be unique: " + u.Detail
}
