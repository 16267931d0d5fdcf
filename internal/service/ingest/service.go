package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shiftsense/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftsense/attendance-backend-go/internal/domain/device"
	"github.com/shiftsense/attendance-backend-go/internal/domain/notification"
	"github.com/shiftsense/attendance-backend-go/internal/domain/schedule"
	"github.com/shiftsense/attendance-backend-go/internal/domain/user"
)

// RecordCreator is the time-in flow shared with the manual service: an event
// for a user with no record at all is a time-in attempt regardless of which
// device produced it.
type RecordCreator interface {
	CreateRecord(ctx context.Context, u user.User, at time.Time, tol schedule.Tolerance) (*attendance.Attendance, error)
}

// Outcome describes what the pipeline did with one event.
type Outcome struct {
	Accepted bool   `json:"accepted"`
	Action   string `json:"action"`
	Reason   string `json:"reason,omitempty"`
}

// Summary is the always-acknowledged response of the ingestion endpoint.
type Summary struct {
	Received  int       `json:"received"`
	Accepted  int       `json:"accepted"`
	Discarded int       `json:"discarded"`
	Outcomes  []Outcome `json:"outcomes"`
}

type Service struct {
	roles          device.RoleMap
	directory      user.Directory
	attendanceRepo attendance.AttendanceRepository
	creator        RecordCreator
	notifier       notification.Notifier
	tolerance      schedule.Tolerance
}

func NewIngestService(
	roles device.RoleMap,
	directory user.Directory,
	attendanceRepo attendance.AttendanceRepository,
	creator RecordCreator,
	notifier notification.Notifier,
	tolerance schedule.Tolerance,
) *Service {
	return &Service{
		roles:          roles,
		directory:      directory,
		attendanceRepo: attendanceRepo,
		creator:        creator,
		notifier:       notifier,
		tolerance:      tolerance,
	}
}

// Process runs every event through the pipeline. One malformed or unmatched
// event never aborts processing of the rest; the endpoint always acks.
func (s *Service) Process(ctx context.Context, events []device.RawEvent) Summary {
	summary := Summary{Received: len(events), Outcomes: make([]Outcome, 0, len(events))}
	for _, raw := range events {
		outcome := s.processOne(ctx, raw)
		if outcome.Accepted {
			summary.Accepted++
		} else {
			summary.Discarded++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}
	return summary
}

func (s *Service) processOne(ctx context.Context, raw device.RawEvent) (outcome Outcome) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Panic while processing device event", "device", raw.DeviceAddress, "panic", p)
			outcome = discard("internal error")
		}
	}()

	event, err := raw.Normalize(s.roles)
	if err != nil {
		slog.Debug("Discarding device event", "device", raw.DeviceAddress, "reason", err)
		return discard(err.Error())
	}

	u, err := s.directory.ResolveBadge(ctx, event.EmployeeCode)
	if err != nil {
		slog.Error("Failed to resolve badge", "employee_code", event.EmployeeCode, "error", err)
		return discard("identity lookup failed")
	}
	if u == nil {
		// Unregistered badges are expected noise
		slog.Debug("Unknown badge", "employee_code", event.EmployeeCode, "device", event.DeviceAddress)
		return discard("unresolved identity")
	}

	record, err := s.attendanceRepo.GetActiveForUser(ctx, u.ID, event.At)
	if err != nil {
		slog.Error("Failed to resolve active record", "user_id", u.ID, "error", err)
		return discard("record lookup failed")
	}

	// A terminal record whose shift already ended cannot accept any further
	// transition, so for this event the user effectively has no active record:
	// a badge on the next working day starts a fresh time-in attempt.
	if record == nil || (record.Closed() && event.At.After(record.ShiftEnd)) {
		return s.timeIn(ctx, *u, event)
	}

	// Activity after the shift ended forces checkout, whatever the event was.
	if event.At.After(record.ShiftEnd) {
		return s.autoTimeOut(ctx, *u, record, event)
	}

	return s.applyTransition(ctx, *u, record, event)
}

func (s *Service) timeIn(ctx context.Context, u user.User, event device.Event) Outcome {
	record, err := s.creator.CreateRecord(ctx, u, event.At, s.tolerance)
	if err != nil {
		// CreateRecord already notified the ops channel for schedule misses.
		slog.Info("Device time-in discarded", "user_id", u.ID, "device", event.DeviceAddress, "error", err)
		return discard("time-in failed: " + err.Error())
	}
	slog.Info("Device time-in", "user_id", u.ID, "attendance_id", record.ID, "device", event.DeviceAddress)
	return accept("time_in")
}

func (s *Service) autoTimeOut(ctx context.Context, u user.User, record *attendance.Attendance, event device.Event) Outcome {
	if err := s.attendanceRepo.Close(ctx, record.ID, event.At); err != nil {
		slog.Info("Shift-end auto checkout rejected", "attendance_id", record.ID, "error", err)
		return discard("auto time-out rejected")
	}
	slog.Info("Shift-end auto checkout", "user_id", u.ID, "attendance_id", record.ID, "at", event.At)
	s.notifier.Notify(ctx, notification.CreateNotificationRequest{
		Type:    notification.TypeAutoTimeOut,
		Title:   "Automatic time-out",
		Message: fmt.Sprintf("%s was timed out automatically after the shift ended", u.FullName),
		Data: map[string]interface{}{
			"user_id":       u.ID,
			"attendance_id": record.ID,
			"timed_out_at":  event.At.Format(time.RFC3339),
		},
	})
	return accept("time_out")
}

func (s *Service) applyTransition(ctx context.Context, u user.User, record *attendance.Attendance, event device.Event) Outcome {
	action, ok := attendance.DeviceAction(record.Status, event.Kind)
	if !ok {
		return discard("no transition for status " + string(record.Status))
	}

	logDecision := func(accepted bool, reason string) {
		slog.Info("Device event decision",
			"user_id", u.ID,
			"attendance_id", record.ID,
			"device", event.DeviceAddress,
			"kind", event.Kind,
			"status", record.Status,
			"action", action.String(),
			"accepted", accepted,
			"reason", reason,
		)
	}

	var err error
	switch action {
	case attendance.ActionIgnore:
		// Entry badge while already working: spurious duplicate.
		logDecision(false, "spurious duplicate")
		return discard("spurious duplicate")

	case attendance.ActionBreakIn:
		if !record.ActiveAt(event.At) {
			logDecision(false, "pre-shift noise")
			return discard("pre-shift noise")
		}
		err = s.attendanceRepo.OpenBreak(ctx, record.ID, event.At)

	case attendance.ActionBreakOut:
		err = s.attendanceRepo.CloseBreak(ctx, record.ID, event.At)

	case attendance.ActionUndoBreak:
		// Exit badge while on break: the earlier break-open was accidental,
		// drop its start marker rather than closing the break.
		err = s.attendanceRepo.DeleteOpenBreak(ctx, record.ID)
	}

	if err != nil {
		// Losing a guard race to a concurrent writer is a discard, not a crash.
		logDecision(false, err.Error())
		return discard(action.String() + " rejected")
	}

	logDecision(true, "")
	if action == attendance.ActionUndoBreak {
		return accept("undo_break")
	}
	return accept(action.String())
}

func accept(action string) Outcome {
	return Outcome{Accepted: true, Action: action}
}

func discard(reason string) Outcome {
	return Outcome{Accepted: false, Action: "discard", Reason: reason}
}
