package absence

import (
	"context"
	"time"
)

type AbsenceRepository interface {
	// ListDates returns the shift dates already marked absent among the
	// given candidate user ids, for the sweep's pre-insert idempotency check.
	ListDates(ctx context.Context, userIDs []string, shiftDate time.Time) (map[string]struct{}, error)

	// BulkCreate inserts absence markers, silently skipping rows whose
	// (user_id, shift_date) already exists. Safe to retry after a crash.
	BulkCreate(ctx context.Context, absences []Absence) (int, error)
}
