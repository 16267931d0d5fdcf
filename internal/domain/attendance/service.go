package attendance

import (
	"context"
)

// AttendanceService is the manual (web) surface of the state machine, keyed
// by the authenticated user in ctx.
type AttendanceService interface {
	TimeIn(ctx context.Context) (AttendanceResponse, error)
	TimeOut(ctx context.Context) (AttendanceResponse, error)
	BreakIn(ctx context.Context) (AttendanceResponse, error)
	BreakOut(ctx context.Context) (AttendanceResponse, error)
	GetMyAttendance(ctx context.Context, filter ListFilter) (ListAttendanceResponse, error)
}
