package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access for attendance records. The store
// linearizes same-key operations: creation races surface as
// ErrDuplicateAttendance, and every transition method applies its status
// guard atomically in SQL so a stale reader cannot overwrite a concurrent
// transition. Guard misses return ErrInvalidTransition.
type AttendanceRepository interface {
	// Create inserts a new record with status working. A concurrent insert
	// for the same (user_id, shift_date) yields ErrDuplicateAttendance.
	Create(ctx context.Context, att Attendance) (Attendance, error)

	// GetByID retrieves a record with its breaks.
	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetByUserAndDate returns the record for the shift date, or nil.
	GetByUserAndDate(ctx context.Context, userID string, shiftDate time.Time) (*Attendance, error)

	// GetActiveForUser returns the record whose shift window contains now,
	// falling back to the user's most recently created record; nil if the
	// user has no records at all.
	GetActiveForUser(ctx context.Context, userID string, now time.Time) (*Attendance, error)

	// OpenBreak appends an open break and moves the record to on_break.
	// Guarded on status = working.
	OpenBreak(ctx context.Context, attendanceID string, at time.Time) error

	// CloseBreak closes the open break, recomputes total_break_ms and moves
	// the record back to working. Guarded on status = on_break.
	CloseBreak(ctx context.Context, attendanceID string, at time.Time) error

	// DeleteOpenBreak removes the open break's start marker without closing
	// it and moves the record back to working. Guarded on status = on_break.
	DeleteOpenBreak(ctx context.Context, attendanceID string) error

	// Close times the record out: any open break is closed at the same
	// instant, worked minutes are derived, and status becomes out_of_office.
	// Guarded on status != out_of_office.
	Close(ctx context.Context, attendanceID string, at time.Time) error

	// ListForUser retrieves a user's records with paging.
	ListForUser(ctx context.Context, userID string, filter ListFilter) ([]Attendance, int64, error)

	// ListWorkedIntervals fetches every [time_in, time_out] span overlapping
	// the window in one query, for in-memory correlation by the absence job.
	ListWorkedIntervals(ctx context.Context, from, to time.Time) ([]WorkedInterval, error)

	// View queries for the change propagation layer.
	ListOnBreak(ctx context.Context, updatedSince time.Time) ([]Attendance, error)
	ListOverBreakLimit(ctx context.Context, openedBefore time.Time) ([]Attendance, error)
	ListWorking(ctx context.Context, updatedSince time.Time) ([]Attendance, error)
}
