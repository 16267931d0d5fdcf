package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shiftsense/attendance-backend-go/internal/domain/user"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/database"
)

type userDirectory struct {
	db *database.DB
}

func NewUserDirectory(db *database.DB) user.Directory {
	return &userDirectory{db: db}
}

// ResolveBadge implements user.Directory.
func (r *userDirectory) ResolveBadge(ctx context.Context, employeeCode string) (*user.User, error) {
	q := GetQuerier(ctx, r.db)

	var u user.User
	err := q.QueryRow(ctx, `
		SELECT id, employee_code, full_name, active, created_at, updated_at
		FROM users
		WHERE employee_code = $1 AND active
	`, employeeCode).Scan(&u.ID, &u.EmployeeCode, &u.FullName, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // unknown badges are expected noise
		}
		return nil, fmt.Errorf("failed to resolve badge: %w", err)
	}
	return &u, nil
}

// GetByID implements user.Directory.
func (r *userDirectory) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	var u user.User
	err := q.QueryRow(ctx, `
		SELECT id, employee_code, full_name, active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.EmployeeCode, &u.FullName, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return u, nil
}
