package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftsense/attendance-backend-go/internal/domain/schedule"
)

type lookupService struct {
	shiftRepo schedule.ShiftRepository
	loc       *time.Location
}

// NewScheduleLookup resolves shift windows from recurring weekly rules in
// the business time zone.
func NewScheduleLookup(shiftRepo schedule.ShiftRepository, loc *time.Location) schedule.Lookup {
	return &lookupService{shiftRepo: shiftRepo, loc: loc}
}

// ShiftWindowFor implements schedule.Lookup.
func (s *lookupService) ShiftWindowFor(ctx context.Context, userID string, at time.Time, tol schedule.Tolerance) (*schedule.ShiftWindow, error) {
	rules, err := s.shiftRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift rules: %w", err)
	}
	return schedule.MatchWindow(rules, at, tol, s.loc), nil
}
