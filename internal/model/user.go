package model

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes waste generators from collectors.
type UserRole string

const (
	// UserRoleGenerator lists materials for pickup.
	UserRoleGenerator UserRole = "generator"
	// UserRoleCollector reserves and collects listed materials.
	UserRoleCollector UserRole = "collector"
)

// User represents a marketplace participant. Email and phone are each
// globally unique when present; at least one of them is set at registration.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	Role      UserRole
	Latitude  *float64
	Longitude *float64
	UpdatedAt time.Time
	CreatedAt time.Time
}

func (u *User) InitMeta() {
	u.ID = uuid.New()
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
}

// HasLocation reports whether the user carries a full coordinate pair.
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}
