package attendance

import "errors"

// Attendance domain errors
var (
	// ErrNoMatchingSchedule means no shift start fell inside the time-in
	// tolerance window. Fatal for the triggering attempt, never retried.
	ErrNoMatchingSchedule = errors.New("no schedule matches the requested time")

	// ErrDuplicateAttendance is a diagnostic, not a failure: a concurrent
	// time-in already created the record and callers get the existing one.
	ErrDuplicateAttendance = errors.New("attendance already exists for this shift date")

	// ErrInvalidTransition covers guarded transitions whose precondition no
	// longer holds (break-out with no open break, activity after time-out).
	ErrInvalidTransition = errors.New("invalid attendance transition")

	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrNotTimedIn         = errors.New("you have not timed in yet")
)
