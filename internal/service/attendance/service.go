package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/shiftsense/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftsense/attendance-backend-go/internal/domain/notification"
	"github.com/shiftsense/attendance-backend-go/internal/domain/schedule"
	"github.com/shiftsense/attendance-backend-go/internal/domain/user"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	lookup         schedule.Lookup
	directory      user.Directory
	notifier       notification.Notifier
	loc            *time.Location
	tolerance      schedule.Tolerance

	now func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	lookup schedule.Lookup,
	directory user.Directory,
	notifier notification.Notifier,
	loc *time.Location,
	tolerance schedule.Tolerance,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		lookup:         lookup,
		directory:      directory,
		notifier:       notifier,
		loc:            loc,
		tolerance:      tolerance,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func userIDFromClaims(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id claim is missing or invalid")
	}
	return userID, nil
}

// TimeIn implements attendance.AttendanceService. Creation is unique per
// (user, shift date): losing a creation race is not an error, the caller gets
// the record the winner created plus a diagnostic on the ops channel.
func (a *AttendanceServiceImpl) TimeIn(ctx context.Context) (attendance.AttendanceResponse, error) {
	userID, err := userIDFromClaims(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	u, err := a.directory.GetByID(ctx, userID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	record, err := a.CreateRecord(ctx, u, a.now(), a.tolerance)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return attendance.ToResponse(*record), nil
}

// CreateRecord runs the time-in flow for the given instant and tolerance
// band. It is shared by the manual flow and the device ingestion pipeline,
// which differ only in tolerance configuration.
func (a *AttendanceServiceImpl) CreateRecord(ctx context.Context, u user.User, at time.Time, tol schedule.Tolerance) (*attendance.Attendance, error) {
	window, err := a.lookup.ShiftWindowFor(ctx, u.ID, at, tol)
	if err != nil {
		return nil, fmt.Errorf("failed to look up shift window: %w", err)
	}
	if window == nil {
		a.notifier.Notify(ctx, notification.CreateNotificationRequest{
			Type:    notification.TypeScheduleMiss,
			Title:   "Time-in without matching schedule",
			Message: fmt.Sprintf("%s attempted time-in at %s but no shift start fell inside the tolerance band", u.FullName, at.Format(time.RFC3339)),
			Data: map[string]interface{}{
				"user_id":       u.ID,
				"employee_code": u.EmployeeCode,
				"attempted_at":  at.Format(time.RFC3339),
			},
		})
		return nil, attendance.ErrNoMatchingSchedule
	}

	lateMinutes := 0
	if at.After(window.Start) {
		lateMinutes = int(at.Sub(window.Start).Minutes())
	}

	timeIn := at
	record := attendance.Attendance{
		UserID:       u.ID,
		EmployeeCode: u.EmployeeCode,
		ShiftDate:    window.ShiftDate(a.loc),
		ShiftStart:   window.Start.UTC(),
		ShiftEnd:     window.End.UTC(),
		TimeIn:       &timeIn,
		Status:       attendance.StatusWorking,
		LateMinutes:  lateMinutes,
	}

	created, err := a.attendanceRepo.Create(ctx, record)
	if err != nil {
		if errors.Is(err, attendance.ErrDuplicateAttendance) {
			// Lost the creation race; return the record that won.
			existing, getErr := a.attendanceRepo.GetByUserAndDate(ctx, u.ID, record.ShiftDate)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load existing attendance after duplicate: %w", getErr)
			}
			if existing == nil {
				return nil, attendance.ErrAttendanceNotFound
			}
			slog.Info("Duplicate time-in resolved to existing record",
				"user_id", u.ID, "shift_date", record.ShiftDate.Format("2006-01-02"), "attendance_id", existing.ID)
			a.notifier.Notify(ctx, notification.CreateNotificationRequest{
				Type:    notification.TypeDuplicateTimeIn,
				Title:   "Duplicate time-in",
				Message: fmt.Sprintf("%s timed in twice for %s; kept the first record", u.FullName, record.ShiftDate.Format("2006-01-02")),
				Data: map[string]interface{}{
					"user_id":       u.ID,
					"attendance_id": existing.ID,
				},
			})
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return &created, nil
}

// BreakIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) BreakIn(ctx context.Context) (attendance.AttendanceResponse, error) {
	return a.transition(ctx, func(record *attendance.Attendance, at time.Time) error {
		return a.attendanceRepo.OpenBreak(ctx, record.ID, at)
	})
}

// BreakOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) BreakOut(ctx context.Context) (attendance.AttendanceResponse, error) {
	return a.transition(ctx, func(record *attendance.Attendance, at time.Time) error {
		return a.attendanceRepo.CloseBreak(ctx, record.ID, at)
	})
}

// TimeOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) TimeOut(ctx context.Context) (attendance.AttendanceResponse, error) {
	return a.transition(ctx, func(record *attendance.Attendance, at time.Time) error {
		return a.attendanceRepo.Close(ctx, record.ID, at)
	})
}

// transition resolves the caller's active record and applies a guarded store
// operation to it. The store re-checks the status guard atomically, so a
// racing device event cannot be overwritten by a stale read here.
func (a *AttendanceServiceImpl) transition(ctx context.Context, apply func(record *attendance.Attendance, at time.Time) error) (attendance.AttendanceResponse, error) {
	userID, err := userIDFromClaims(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now()
	record, err := a.attendanceRepo.GetActiveForUser(ctx, userID, now)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to resolve active attendance: %w", err)
	}
	if record == nil {
		return attendance.AttendanceResponse{}, attendance.ErrNotTimedIn
	}
	if record.Closed() {
		return attendance.AttendanceResponse{}, attendance.ErrInvalidTransition
	}

	if err := apply(record, now); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	updated, err := a.attendanceRepo.GetByID(ctx, record.ID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to reload attendance: %w", err)
	}
	return attendance.ToResponse(updated), nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.ListFilter) (attendance.ListAttendanceResponse, error) {
	userID, err := userIDFromClaims(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	if filter.Limit == 0 {
		filter.Limit = 20
	}
	if filter.Page == 0 {
		filter.Page = 1
	}

	records, total, err := a.attendanceRepo.ListForUser(ctx, userID, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, attendance.ToResponse(record))
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		Attendances: responses,
	}, nil
}
