package postgresql

import (
	"context"
	"fmt"

	"github.com/shiftsense/attendance-backend-go/internal/domain/schedule"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/database"
)

type shiftRepository struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepository{db: db}
}

// ListForUser implements schedule.ShiftRepository.
func (r *shiftRepository) ListForUser(ctx context.Context, userID string) ([]schedule.ShiftRule, error) {
	return r.list(ctx, `
		SELECT id, user_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM work_shifts
		WHERE user_id = $1
		ORDER BY day_of_week ASC
	`, userID)
}

// ListByWeekday implements schedule.ShiftRepository.
func (r *shiftRepository) ListByWeekday(ctx context.Context, dayOfWeek int) ([]schedule.ShiftRule, error) {
	return r.list(ctx, `
		SELECT id, user_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM work_shifts
		WHERE day_of_week = $1
		ORDER BY start_time ASC
	`, dayOfWeek)
}

func (r *shiftRepository) list(ctx context.Context, query string, arg interface{}) ([]schedule.ShiftRule, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query work shifts: %w", err)
	}
	defer rows.Close()

	var rules []schedule.ShiftRule
	for rows.Next() {
		var rule schedule.ShiftRule
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.DayOfWeek, &rule.StartTime, &rule.EndTime, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work shift: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
