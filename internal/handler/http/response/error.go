package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shiftsense/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftsense/attendance-backend-go/internal/domain/user"
)

// HandleError maps domain errors to HTTP responses. Anything unrecognized is
// logged and hidden behind a generic 500.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendance.ErrNoMatchingSchedule):
		UnprocessableEntity(w, "NO_MATCHING_SCHEDULE", "No scheduled shift starts near this time")

	case errors.Is(err, attendance.ErrNotTimedIn):
		BadRequest(w, "No active attendance record; time in first", nil)

	case errors.Is(err, attendance.ErrInvalidTransition):
		Conflict(w, "Attendance record does not allow this transition")

	case errors.Is(err, attendance.ErrDuplicateAttendance):
		Conflict(w, "Attendance already recorded for this shift date")

	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")

	default:
		slog.Error("Unhandled error in HTTP handler", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
