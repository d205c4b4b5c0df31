package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/greentech/marketplace/internal/model"
	"github.com/greentech/marketplace/internal/repository"
)

// TransactionalRepository couples a material mutation with its outbox event
// in a single transaction, so a lifecycle change and the message announcing
// it are committed or rolled back together.
type TransactionalRepository struct {
	db *sql.DB
}

// NewTransactionalRepository creates a new TransactionalRepository.
func NewTransactionalRepository(db *sql.DB) *TransactionalRepository {
	return &TransactionalRepository{db: db}
}

// CreateMaterialWithEvent creates a material and its outbox event in a
// single transaction.
func (tr *TransactionalRepository) CreateMaterialWithEvent(ctx context.Context, material *model.Material, buildEvent repository.EventBuilder) (*model.Material, error) {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	materialRepo := &MaterialRepository{db: tr.db, txn: tx}
	eventRepo := &EventRepository{db: tr.db, txn: tx}

	created, err := materialRepo.Create(ctx, material)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create material: %w", err)
	}

	event, err := buildEvent(created)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to build event: %w", err)
	}
	if _, err = eventRepo.Create(ctx, event); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, nil
}

// TransitionMaterialWithEvent performs the conditional status transition and
// records its outbox event in a single transaction. The atomic guard on the
// UPDATE is what makes concurrent reserve/collect races resolve to at most
// one winner; losers get ErrConflict and nothing is written.
func (tr *TransactionalRepository) TransitionMaterialWithEvent(ctx context.Context, id uuid.UUID, from []model.MaterialStatus, to model.MaterialStatus, collectorID uuid.UUID, buildEvent repository.EventBuilder) (*model.Material, error) {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	materialRepo := &MaterialRepository{db: tr.db, txn: tx}
	eventRepo := &EventRepository{db: tr.db, txn: tx}

	material, err := materialRepo.Transition(ctx, id, from, to, collectorID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	event, err := buildEvent(material)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to build event: %w", err)
	}
	if _, err = eventRepo.Create(ctx, event); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return material, nil
}

// DeleteMaterialWithEvent deletes a material and records a deletion event in
// a single transaction.
func (tr *TransactionalRepository) DeleteMaterialWithEvent(ctx context.Context, material *model.Material, buildEvent repository.EventBuilder) error {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	materialRepo := &MaterialRepository{db: tr.db, txn: tx}
	eventRepo := &EventRepository{db: tr.db, txn: tx}

	if err := materialRepo.DeleteByID(ctx, material.ID); err != nil {
		tx.Rollback()
		return err
	}

	event, err := buildEvent(material)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to build event: %w", err)
	}
	if _, err = eventRepo.Create(ctx, event); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
