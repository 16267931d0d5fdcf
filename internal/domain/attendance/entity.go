package attendance

import (
	"time"
)

// Status is the live work state of an attendance record.
type Status string

const (
	StatusWorking     Status = "working"
	StatusOnBreak     Status = "on_break"
	StatusOutOfOffice Status = "out_of_office" // terminal
)

// Attendance is one record per user per shift date. Instants are stored in
// UTC; ShiftDate is the local calendar day the assigned shift starts on.
type Attendance struct {
	ID           string
	UserID       string
	EmployeeCode string
	ShiftDate    time.Time
	ShiftStart   time.Time
	ShiftEnd     time.Time
	TimeIn       *time.Time
	TimeOut      *time.Time
	Status       Status
	Breaks       []Break
	TotalBreakMs int64
	LateMinutes  int
	WorkedMins   *int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// DTO
	UserName *string
}

// Break is a bounded sub-interval of working time. An open break has no End.
type Break struct {
	ID           string
	AttendanceID string
	Start        time.Time
	End          *time.Time
	DurationMs   *int64
	CreatedAt    time.Time
}

// OpenBreak returns the record's open break, or nil. A well-formed record
// has at most one and only while Status is on_break.
func (a *Attendance) OpenBreak() *Break {
	for i := range a.Breaks {
		if a.Breaks[i].End == nil {
			return &a.Breaks[i]
		}
	}
	return nil
}

// Closed reports whether the record is terminal: once timed out no further
// transitions are accepted.
func (a *Attendance) Closed() bool {
	return a.Status == StatusOutOfOffice || a.TimeOut != nil
}

// ActiveAt reports whether the record's shift window contains t.
func (a *Attendance) ActiveAt(t time.Time) bool {
	return !t.Before(a.ShiftStart) && !t.After(a.ShiftEnd)
}

// SumClosedBreaks recomputes the total break duration from the closed breaks.
// total_break_ms is always derived this way, never mutated independently.
func SumClosedBreaks(breaks []Break) int64 {
	var total int64
	for _, b := range breaks {
		if b.End != nil && b.DurationMs != nil {
			total += *b.DurationMs
		}
	}
	return total
}

// WorkedInterval is a single [TimeIn, TimeOut-or-now] span used by the
// absence sweep's batched correlation.
type WorkedInterval struct {
	UserID    string
	ShiftDate time.Time
	TimeIn    time.Time
	TimeOut   *time.Time
}

// Duration returns the interval length, with open intervals running until now.
func (w WorkedInterval) Duration(now time.Time) time.Duration {
	end := now
	if w.TimeOut != nil {
		end = *w.TimeOut
	}
	if end.Before(w.TimeIn) {
		return 0
	}
	return end.Sub(w.TimeIn)
}
