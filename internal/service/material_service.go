package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/greentech/marketplace/internal/metrics"
	"github.com/greentech/marketplace/internal/model"
	"github.com/greentech/marketplace/internal/repository"
	"github.com/greentech/marketplace/internal/sqs"
)

var (
	// ErrValidation is returned when a required field is missing or malformed.
	// No mutation is performed.
	ErrValidation = errors.New("invalid input")
	// ErrForbidden is returned when the acting user lacks rights over the
	// target record. The message carries no record detail.
	ErrForbidden = errors.New("forbidden")
)

// MaterialService is the lifecycle engine: it enforces legal status
// transitions and ownership rules over the material store. Every mutation is
// paired with its outbox event in a single transaction.
type MaterialService struct {
	repo   repository.MaterialRepository
	txRepo repository.TransactionalRepository
}

// NewMaterialService creates a new MaterialService.
func NewMaterialService(repo repository.MaterialRepository, txRepo repository.TransactionalRepository) *MaterialService {
	return &MaterialService{
		repo:   repo,
		txRepo: txRepo,
	}
}

// CreateMaterialInput carries the fields a generator submits when listing a
// material. Optional fields are pointers; absent stays absent.
type CreateMaterialInput struct {
	Type        string
	Quantity    string
	Weight      *float64
	Description string
	Latitude    *float64
	Longitude   *float64
}

// CreateMaterial lists a new material owned by ownerID with status available.
func (ms *MaterialService) CreateMaterial(ctx context.Context, ownerID uuid.UUID, input CreateMaterialInput) (*model.Material, error) {
	if input.Type == "" || input.Quantity == "" {
		return nil, fmt.Errorf("type and quantity are required: %w", ErrValidation)
	}

	material := &model.Material{
		OwnerID:     ownerID,
		Type:        input.Type,
		Quantity:    input.Quantity,
		Weight:      normalizeWeight(input.Weight),
		Description: input.Description,
		Status:      model.MaterialStatusAvailable,
	}
	material.Latitude, material.Longitude = normalizeLocation(input.Latitude, input.Longitude)

	created, err := ms.txRepo.CreateMaterialWithEvent(ctx, material, materialEventBuilder(sqs.ActionCreated))
	if err != nil {
		return nil, err
	}

	metrics.MaterialsCreated.Inc()
	return created, nil
}

// GetMaterial retrieves a single material by ID.
func (ms *MaterialService) GetMaterial(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	return ms.repo.FindByID(ctx, id)
}

// ListMaterials retrieves materials matching the query.
func (ms *MaterialService) ListMaterials(ctx context.Context, query repository.Query) ([]*model.Material, error) {
	return ms.repo.List(ctx, query)
}

// Stats returns the dashboard counters. A non-nil collectorID scopes them
// to that collector's materials.
func (ms *MaterialService) Stats(ctx context.Context, collectorID *uuid.UUID) (*model.MaterialStats, error) {
	return ms.repo.Stats(ctx, collectorID)
}

// UpdateMaterialInput carries an owner-side correction. Nil fields are left
// untouched; Status is applied only when the owner includes it explicitly.
// SetLocation marks a location write: with both coordinates it replaces the
// pair, with both nil it clears it.
type UpdateMaterialInput struct {
	Type        *string
	Quantity    *string
	Weight      *float64
	Description *string
	SetLocation bool
	Latitude    *float64
	Longitude   *float64
	Status      *model.MaterialStatus
}

// UpdateMaterial applies an owner-only partial update and bumps updated_at.
func (ms *MaterialService) UpdateMaterial(ctx context.Context, id, actorID uuid.UUID, input UpdateMaterialInput) (*model.Material, error) {
	material, err := ms.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if material.OwnerID != actorID {
		return nil, fmt.Errorf("only the owner may edit a material: %w", ErrForbidden)
	}

	if input.Type != nil {
		if *input.Type == "" {
			return nil, fmt.Errorf("type must not be empty: %w", ErrValidation)
		}
		material.Type = *input.Type
	}
	if input.Quantity != nil {
		if *input.Quantity == "" {
			return nil, fmt.Errorf("quantity must not be empty: %w", ErrValidation)
		}
		material.Quantity = *input.Quantity
	}
	if input.Weight != nil {
		material.Weight = normalizeWeight(input.Weight)
	}
	if input.Description != nil {
		material.Description = *input.Description
	}
	if input.SetLocation {
		if (input.Latitude == nil) != (input.Longitude == nil) {
			return nil, fmt.Errorf("latitude and longitude must both be set or both be null: %w", ErrValidation)
		}
		material.Latitude, material.Longitude = input.Latitude, input.Longitude
	}
	if input.Status != nil {
		if !validStatus(*input.Status) {
			return nil, fmt.Errorf("unknown status %q: %w", *input.Status, ErrValidation)
		}
		material.Status = *input.Status
		// collector_id is null iff status is available
		if material.Status == model.MaterialStatusAvailable {
			material.CollectorID = nil
		} else if material.CollectorID == nil {
			return nil, fmt.Errorf("status %q requires a collector on the record: %w", *input.Status, ErrValidation)
		}
	}

	if err := ms.repo.Update(ctx, material); err != nil {
		return nil, err
	}
	return material, nil
}

// DeleteMaterial removes a material. The owner may always delete; a
// collector may delete only a record they collected.
func (ms *MaterialService) DeleteMaterial(ctx context.Context, id, actorID uuid.UUID) error {
	material, err := ms.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !canDelete(material, actorID) {
		return fmt.Errorf("not allowed to delete this material: %w", ErrForbidden)
	}

	if err := ms.txRepo.DeleteMaterialWithEvent(ctx, material, materialEventBuilder(sqs.ActionDeleted)); err != nil {
		return err
	}

	metrics.MaterialsDeleted.Inc()
	return nil
}

// Reserve claims an available material for the collector. The status guard
// on the conditional write makes concurrent reserve attempts resolve to a
// single winner; losers get ErrConflict.
func (ms *MaterialService) Reserve(ctx context.Context, id, collectorID uuid.UUID) (*model.Material, error) {
	material, err := ms.txRepo.TransitionMaterialWithEvent(ctx, id,
		[]model.MaterialStatus{model.MaterialStatusAvailable},
		model.MaterialStatusReserved, collectorID,
		materialEventBuilder(sqs.ActionReserved))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.TransitionConflicts.Inc()
		}
		return nil, err
	}

	metrics.MaterialsReserved.Inc()
	return material, nil
}

// Collect confirms pickup. Allowed from both available and reserved; a
// collector may skip reservation and collect directly, and collecting a
// reserved material reassigns collector_id to the caller. Only an already
// collected material yields ErrConflict.
func (ms *MaterialService) Collect(ctx context.Context, id, collectorID uuid.UUID) (*model.Material, error) {
	material, err := ms.txRepo.TransitionMaterialWithEvent(ctx, id,
		[]model.MaterialStatus{model.MaterialStatusAvailable, model.MaterialStatusReserved},
		model.MaterialStatusCollected, collectorID,
		materialEventBuilder(sqs.ActionCollected))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.TransitionConflicts.Inc()
		}
		return nil, err
	}

	metrics.MaterialsCollected.Inc()
	return material, nil
}

func canDelete(material *model.Material, actorID uuid.UUID) bool {
	if material.OwnerID == actorID {
		return true
	}
	return material.Status == model.MaterialStatusCollected &&
		material.CollectorID != nil && *material.CollectorID == actorID
}

// normalizeWeight drops values that do not describe a non-negative weight
// instead of erroring.
func normalizeWeight(weight *float64) *float64 {
	if weight == nil || *weight < 0 {
		return nil
	}
	return weight
}

// normalizeLocation stores a coordinate pair only when both halves are
// present; a partial pair is stored as absent.
func normalizeLocation(latitude, longitude *float64) (*float64, *float64) {
	if latitude == nil || longitude == nil {
		return nil, nil
	}
	return latitude, longitude
}

func validStatus(status model.MaterialStatus) bool {
	switch status {
	case model.MaterialStatusAvailable, model.MaterialStatusReserved, model.MaterialStatusCollected:
		return true
	}
	return false
}

// materialEventBuilder returns an EventBuilder that captures the material's
// post-mutation state in an outbox message.
func materialEventBuilder(action string) repository.EventBuilder {
	return func(material *model.Material) (*model.Event, error) {
		msg := sqs.MaterialMessage{
			Action:       action,
			MaterialID:   material.ID.String(),
			MaterialType: material.Type,
			OwnerID:      material.OwnerID.String(),
		}
		if material.CollectorID != nil {
			msg.CollectorID = material.CollectorID.String()
		}

		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal material message: %w", err)
		}

		return &model.Event{
			EventType: "material." + action,
			EventData: data,
			Status:    model.EventStatusPending,
		}, nil
	}
}
