package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftsense/attendance-backend-go/internal/domain/absence"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/database"
)

type absenceRepository struct {
	db *database.DB
}

func NewAbsenceRepository(db *database.DB) absence.AbsenceRepository {
	return &absenceRepository{db: db}
}

// ListDates implements absence.AbsenceRepository.
func (r *absenceRepository) ListDates(ctx context.Context, userIDs []string, shiftDate time.Time) (map[string]struct{}, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT user_id
		FROM absences
		WHERE user_id = ANY($1) AND shift_date = $2
	`, userIDs, shiftDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing absences: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		existing[userID] = struct{}{}
	}
	return existing, rows.Err()
}

// BulkCreate implements absence.AbsenceRepository. ON CONFLICT keeps the
// insert idempotent even when two sweeps race.
func (r *absenceRepository) BulkCreate(ctx context.Context, absences []absence.Absence) (int, error) {
	if len(absences) == 0 {
		return 0, nil
	}
	q := GetQuerier(ctx, r.db)

	inserted := 0
	for _, a := range absences {
		tag, err := q.Exec(ctx, `
			INSERT INTO absences (user_id, shift_date)
			VALUES ($1, $2)
			ON CONFLICT (user_id, shift_date) DO NOTHING
		`, a.UserID, a.ShiftDate)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert absence: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
