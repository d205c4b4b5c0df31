package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/greentech/marketplace/internal/model"
	"github.com/greentech/marketplace/internal/repository"
)

const materialColumns = "id, owner_id, type, quantity, weight, description, latitude, longitude, status, collector_id, created_at, updated_at"

// MaterialRepository implements repository.MaterialRepository on Postgres.
type MaterialRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewMaterialRepository creates a new MaterialRepository instance.
func NewMaterialRepository(db *sql.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *MaterialRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// WithinTransaction executes a function within a database transaction
func (r *MaterialRepository) WithinTransaction(ctx context.Context, fn func(repo repository.MaterialRepository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txRepo := &MaterialRepository{
		db:  r.db,
		txn: tx,
	}

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Create inserts a new material into the database.
func (r *MaterialRepository) Create(ctx context.Context, material *model.Material) (*model.Material, error) {
	if material.ID == uuid.Nil {
		material.InitMeta()
	}

	query := `INSERT INTO materials (` + materialColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		material.ID, material.OwnerID, material.Type, material.Quantity,
		material.Weight, material.Description, material.Latitude, material.Longitude,
		material.Status, material.CollectorID, material.CreatedAt, material.UpdatedAt,
	)
	if err != nil {
		if uniqueErr := asUniqueConstraintError(err); uniqueErr != nil {
			return nil, uniqueErr
		}
		return nil, fmt.Errorf("failed to insert material: %w", err)
	}

	return material, nil
}

// FindByID retrieves a single material by ID.
func (r *MaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	material, err := scanMaterial(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("material not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query material: %w", err)
	}

	return material, nil
}

// List retrieves materials based on the provided query. Results are ordered
// by created_at DESC, id DESC for consistent cursor pagination.
func (r *MaterialRepository) List(ctx context.Context, query repository.Query) ([]*model.Material, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + materialColumns + " FROM materials WHERE 1=1")

	var args []interface{}
	argIndex := 1

	for field, value := range query.Values {
		switch field {
		case repository.OwnerIDField, repository.CollectorIDField:
			id, err := uuid.Parse(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s format: %w", field, err)
			}
			queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", field, argIndex))
			args = append(args, id)
			argIndex++
		case repository.StatusField, repository.TypeField:
			queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", field, argIndex))
			args = append(args, value)
			argIndex++
		case repository.LocationField:
			switch repository.QueryFieldValue(value) {
			case repository.NotEmpty:
				queryBuilder.WriteString(" AND latitude IS NOT NULL AND longitude IS NOT NULL")
			case repository.Empty:
				queryBuilder.WriteString(" AND latitude IS NULL AND longitude IS NULL")
			}
		}
	}

	if query.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (type ILIKE $%d OR quantity ILIKE $%d OR description ILIKE $%d)",
			argIndex, argIndex+1, argIndex+2))
		term := "%" + query.Search + "%"
		args = append(args, term, term, term)
		argIndex += 3
	}

	// Apply pagination
	if query.Paginator != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1))
		args = append(args, query.Paginator.LastCreatedAt, query.Paginator.LastID)
		argIndex += 2
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultPaginationLimit
	}
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argIndex))
	args = append(args, limit)

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query materials: %w", err)
	}
	defer rows.Close()

	var materials []*model.Material
	for rows.Next() {
		material, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		materials = append(materials, material)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return materials, nil
}

// Update persists the mutable fields of an existing material and bumps
// updated_at. Owner and creation metadata are never touched. The write is
// guarded on updated_at matching the loaded record, so an edit racing a
// lifecycle transition fails with ErrConflict instead of reverting it.
func (r *MaterialRepository) Update(ctx context.Context, material *model.Material) error {
	query := `UPDATE materials
	          SET type = $1, quantity = $2, weight = $3, description = $4,
	              latitude = $5, longitude = $6, status = $7, collector_id = $8,
	              updated_at = NOW()
	          WHERE id = $9 AND updated_at = $10
	          RETURNING updated_at`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	err = stmt.QueryRowContext(ctx,
		material.Type, material.Quantity, material.Weight, material.Description,
		material.Latitude, material.Longitude, material.Status, material.CollectorID,
		material.ID, material.UpdatedAt,
	).Scan(&material.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to update material: %w", err)
	}

	// Zero rows means the record is gone or was written since we read it.
	if _, findErr := r.FindByID(ctx, material.ID); findErr != nil {
		return findErr
	}
	return fmt.Errorf("material was modified concurrently: %w", repository.ErrConflict)
}

// Stats aggregates listing counters over all materials, or over one
// collector's materials when collectorID is set.
func (r *MaterialRepository) Stats(ctx context.Context, collectorID *uuid.UUID) (*model.MaterialStats, error) {
	query := `SELECT COUNT(*),
	                 COALESCE(SUM(weight), 0),
	                 COUNT(*) FILTER (WHERE created_at >= date_trunc('day', NOW())),
	                 COUNT(*) FILTER (WHERE created_at >= date_trunc('month', NOW()))
	          FROM materials`

	var args []interface{}
	if collectorID != nil {
		query += ` WHERE collector_id = $1`
		args = append(args, *collectorID)
	}

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare stats statement: %w", err)
	}
	defer stmt.Close()

	stats := &model.MaterialStats{}
	err = stmt.QueryRowContext(ctx, args...).Scan(
		&stats.TotalItems, &stats.TotalWeight, &stats.TodayItems, &stats.MonthItems,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query material stats: %w", err)
	}

	return stats, nil
}

// DeleteByID deletes a material by ID.
func (r *MaterialRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM materials WHERE id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete material: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("material not found: %w", repository.ErrNotFound)
	}

	return nil
}

// Transition performs the atomic check-then-set on status. The UPDATE is
// guarded by the expected prior statuses, so under concurrent callers at
// most one transition out of a given state can win; losers observe zero
// affected rows and get ErrConflict.
func (r *MaterialRepository) Transition(ctx context.Context, id uuid.UUID, from []model.MaterialStatus, to model.MaterialStatus, collectorID uuid.UUID) (*model.Material, error) {
	if len(from) == 0 {
		return nil, errors.New("transition requires at least one source status")
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`UPDATE materials SET status = $1, collector_id = $2, updated_at = NOW() WHERE id = $3 AND status IN (`)

	args := []interface{}{to, collectorID, id}
	for i, status := range from {
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		queryBuilder.WriteString(fmt.Sprintf("$%d", len(args)+1))
		args = append(args, status)
	}
	queryBuilder.WriteString(") RETURNING " + materialColumns)

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare transition statement: %w", err)
	}
	defer stmt.Close()

	material, err := scanMaterial(stmt.QueryRowContext(ctx, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The guarded UPDATE matched nothing: either the id is absent or
			// a competing transition already moved the status.
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, fmt.Errorf("material status changed concurrently: %w", repository.ErrConflict)
		}
		return nil, fmt.Errorf("failed to transition material: %w", err)
	}

	return material, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMaterial(row rowScanner) (*model.Material, error) {
	var material model.Material
	var weight, latitude, longitude sql.NullFloat64
	var description sql.NullString
	var collectorID uuid.NullUUID

	err := row.Scan(
		&material.ID, &material.OwnerID, &material.Type, &material.Quantity,
		&weight, &description, &latitude, &longitude,
		&material.Status, &collectorID, &material.CreatedAt, &material.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if weight.Valid {
		material.Weight = &weight.Float64
	}
	if description.Valid {
		material.Description = description.String
	}
	if latitude.Valid {
		material.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		material.Longitude = &longitude.Float64
	}
	if collectorID.Valid {
		material.CollectorID = &collectorID.UUID
	}

	return &material, nil
}
