package schedule

import (
	"context"
	"time"
)

// ShiftRepository reads recurring shift assignments. Schedule authoring is
// owned elsewhere; this subsystem only consumes published shifts.
type ShiftRepository interface {
	// ListForUser returns every recurring rule assigned to the user.
	ListForUser(ctx context.Context, userID string) ([]ShiftRule, error)

	// ListByWeekday returns every rule starting on the given ISO weekday,
	// i.e. the "on shift today" set for the absence sweep.
	ListByWeekday(ctx context.Context, dayOfWeek int) ([]ShiftRule, error)
}

// Lookup resolves a user and a candidate instant to the shift window whose
// start lies inside the tolerance band, or nil when no shift matches.
type Lookup interface {
	ShiftWindowFor(ctx context.Context, userID string, at time.Time, tol Tolerance) (*ShiftWindow, error)
}
