package absence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shiftsense/attendance-backend-go/internal/domain/absence"
	"github.com/shiftsense/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftsense/attendance-backend-go/internal/domain/notification"
	"github.com/shiftsense/attendance-backend-go/internal/domain/schedule"
)

// Summary reports one sweep run.
type Summary struct {
	OnShift int `json:"on_shift"`
	Ended   int `json:"ended_shifts"`
	Marked  int `json:"marked_absent"`
}

type Service struct {
	shiftRepo      schedule.ShiftRepository
	attendanceRepo attendance.AttendanceRepository
	absenceRepo    absence.AbsenceRepository
	notifier       notification.Notifier
	loc            *time.Location
	minWorked      time.Duration

	now func() time.Time
}

func NewAbsenceService(
	shiftRepo schedule.ShiftRepository,
	attendanceRepo attendance.AttendanceRepository,
	absenceRepo absence.AbsenceRepository,
	notifier notification.Notifier,
	loc *time.Location,
	minWorked time.Duration,
) *Service {
	return &Service{
		shiftRepo:      shiftRepo,
		attendanceRepo: attendanceRepo,
		absenceRepo:    absenceRepo,
		notifier:       notifier,
		loc:            loc,
		minWorked:      minWorked,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type endedShift struct {
	userID string
	window schedule.ShiftWindow
}

// RunSweep marks users absent for today's ended shifts when their summed
// worked time falls below the minimum. The periodic job and the on-demand
// administrative trigger both call exactly this method. Marking is
// idempotent, so an aborted sweep rerun converges to the same end state.
func (s *Service) RunSweep(ctx context.Context) (Summary, error) {
	now := s.now()
	today := now.In(s.loc)

	// The "on shift today" set: every rule starting on today's weekday.
	rules, err := s.shiftRepo.ListByWeekday(ctx, schedule.ISOWeekday(today))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list shifts for today: %w", err)
	}

	summary := Summary{OnShift: len(rules)}
	if len(rules) == 0 {
		return summary, nil
	}

	// Materialize today's windows, keeping only shifts that already ended.
	// Users whose shift is still running cannot yet be judged absent.
	var ended []endedShift
	var globalFrom, globalTo time.Time
	seen := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		if _, dup := seen[rule.UserID]; dup {
			continue
		}
		seen[rule.UserID] = struct{}{}

		window := rule.WindowOn(today, s.loc)
		if window.End.After(now) {
			continue
		}
		ended = append(ended, endedShift{userID: rule.UserID, window: window})

		if globalFrom.IsZero() || window.Start.Before(globalFrom) {
			globalFrom = window.Start
		}
		if window.End.After(globalTo) {
			globalTo = window.End
		}
	}
	summary.Ended = len(ended)
	if len(ended) == 0 {
		return summary, nil
	}

	// One batched fetch across the global window, correlated in memory.
	intervals, err := s.attendanceRepo.ListWorkedIntervals(ctx, globalFrom, globalTo)
	if err != nil {
		return summary, fmt.Errorf("failed to list worked intervals: %w", err)
	}

	workedByUser := make(map[string]time.Duration, len(intervals))
	for _, iv := range intervals {
		workedByUser[iv.UserID] += iv.Duration(now)
	}

	var candidates []absence.Absence
	var candidateIDs []string
	for _, shift := range ended {
		// Exactly the minimum counts as present; only strictly less is absent.
		if workedByUser[shift.userID] >= s.minWorked {
			continue
		}
		candidates = append(candidates, absence.Absence{
			UserID:    shift.userID,
			ShiftDate: shift.window.ShiftDate(s.loc),
		})
		candidateIDs = append(candidateIDs, shift.userID)
	}
	if len(candidates) == 0 {
		return summary, nil
	}

	// Pre-insert idempotency check; the unique constraint backstops races.
	shiftDate := candidates[0].ShiftDate
	existing, err := s.absenceRepo.ListDates(ctx, candidateIDs, shiftDate)
	if err != nil {
		return summary, fmt.Errorf("failed to check existing absences: %w", err)
	}

	toInsert := candidates[:0]
	for _, candidate := range candidates {
		if _, already := existing[candidate.UserID]; already {
			continue
		}
		toInsert = append(toInsert, candidate)
	}
	if len(toInsert) == 0 {
		return summary, nil
	}

	inserted, err := s.absenceRepo.BulkCreate(ctx, toInsert)
	if err != nil {
		return summary, fmt.Errorf("failed to insert absences: %w", err)
	}
	summary.Marked = inserted

	if inserted > 0 {
		slog.Info("Absence sweep marked users absent", "count", inserted, "shift_date", shiftDate.Format("2006-01-02"))
		s.notifier.Notify(ctx, notification.CreateNotificationRequest{
			Type:    notification.TypeAbsenceSweep,
			Title:   "Employees marked absent",
			Message: fmt.Sprintf("%d employees were marked absent for %s", inserted, shiftDate.Format("2006-01-02")),
			Data: map[string]interface{}{
				"count":      inserted,
				"shift_date": shiftDate.Format("2006-01-02"),
			},
		})
	}

	return summary, nil
}
