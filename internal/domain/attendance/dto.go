package attendance

import (
	"time"
)

// ListFilter filters a user's own attendance listing.
type ListFilter struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Status    *string `json:"status"`
	SortOrder string  `json:"sort_order"`
	Page      int     `json:"page"`
	Limit     int     `json:"limit"`
}

type BreakResponse struct {
	Start      string  `json:"start"`
	End        *string `json:"end,omitempty"`
	DurationMs *int64  `json:"duration_ms,omitempty"`
}

type AttendanceResponse struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	EmployeeCode string          `json:"employee_code"`
	UserName     *string         `json:"user_name,omitempty"`
	ShiftDate    string          `json:"shift_date"`
	ShiftStart   string          `json:"shift_start"`
	ShiftEnd     string          `json:"shift_end"`
	TimeIn       *string         `json:"time_in"`
	TimeOut      *string         `json:"time_out"`
	Status       Status          `json:"status"`
	Breaks       []BreakResponse `json:"breaks"`
	TotalBreakMs int64           `json:"total_break_ms"`
	LateMinutes  int             `json:"late_minutes"`
	WorkedMins   *int            `json:"worked_minutes,omitempty"`
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	Attendances []AttendanceResponse `json:"attendances"`
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}

// ToResponse maps a record to its API shape.
func ToResponse(att Attendance) AttendanceResponse {
	breaks := make([]BreakResponse, 0, len(att.Breaks))
	for _, b := range att.Breaks {
		breaks = append(breaks, BreakResponse{
			Start:      b.Start.Format(time.RFC3339),
			End:        timePtrToString(b.End),
			DurationMs: b.DurationMs,
		})
	}

	return AttendanceResponse{
		ID:           att.ID,
		UserID:       att.UserID,
		EmployeeCode: att.EmployeeCode,
		UserName:     att.UserName,
		ShiftDate:    att.ShiftDate.Format("2006-01-02"),
		ShiftStart:   att.ShiftStart.Format(time.RFC3339),
		ShiftEnd:     att.ShiftEnd.Format(time.RFC3339),
		TimeIn:       timePtrToString(att.TimeIn),
		TimeOut:      timePtrToString(att.TimeOut),
		Status:       att.Status,
		Breaks:       breaks,
		TotalBreakMs: att.TotalBreakMs,
		LateMinutes:  att.LateMinutes,
		WorkedMins:   att.WorkedMins,
	}
}
