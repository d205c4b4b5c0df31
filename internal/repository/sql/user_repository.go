package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/greentech/marketplace/internal/model"
	"github.com/greentech/marketplace/internal/repository"
)

const userColumns = "id, name, email, phone, role, latitude, longitude, created_at, updated_at"

// UserRepository implements repository.UserRepository on Postgres.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a single user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	user, err := scanUser(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return user, nil
}

// ListCollectors retrieves all users with the collector role.
func (r *UserRepository) ListCollectors(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at DESC, id DESC`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, model.UserRoleCollector)
	if err != nil {
		return nil, fmt.Errorf("failed to query collectors: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// UpdateLocation sets or clears a collector's coordinates. Both pointers nil
// clears the location; callers must never pass a partial pair.
func (r *UserRepository) UpdateLocation(ctx context.Context, id uuid.UUID, latitude, longitude *float64) error {
	query := `UPDATE users SET latitude = $1, longitude = $2, updated_at = NOW() WHERE id = $3 AND role = $4`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, latitude, longitude, id, model.UserRoleCollector)
	if err != nil {
		return fmt.Errorf("failed to update user location: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("collector not found: %w", repository.ErrNotFound)
	}

	return nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	var email, phone sql.NullString
	var latitude, longitude sql.NullFloat64

	err := row.Scan(
		&user.ID, &user.Name, &email, &phone, &user.Role,
		&latitude, &longitude, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		user.Email = &email.String
	}
	if phone.Valid {
		user.Phone = &phone.String
	}
	if latitude.Valid {
		user.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		user.Longitude = &longitude.Float64
	}

	return &user, nil
}
