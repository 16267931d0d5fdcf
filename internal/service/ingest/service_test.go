package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftsense/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftsense/attendance-backend-go/internal/domain/device"
	"github.com/shiftsense/attendance-backend-go/internal/domain/notification"
	"github.com/shiftsense/attendance-backend-go/internal/domain/schedule"
	"github.com/shiftsense/attendance-backend-go/internal/domain/user"
)

const (
	entryAddr = "aa:bb:cc:01"
	exitAddr  = "aa:bb:cc:02"
)

var (
	shiftStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	shiftEnd   = time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
)

type fakeAttendanceRepo struct {
	attendance.AttendanceRepository

	active *attendance.Attendance

	openBreakErr  error
	closeBreakErr error
	closeErr      error

	openedBreaks  int
	closedBreaks  int
	deletedBreaks int
	closed        int
}

func (f *fakeAttendanceRepo) GetActiveForUser(ctx context.Context, userID string, now time.Time) (*attendance.Attendance, error) {
	return f.active, nil
}

func (f *fakeAttendanceRepo) OpenBreak(ctx context.Context, attendanceID string, at time.Time) error {
	if f.openBreakErr != nil {
		return f.openBreakErr
	}
	f.openedBreaks++
	return nil
}

func (f *fakeAttendanceRepo) CloseBreak(ctx context.Context, attendanceID string, at time.Time) error {
	if f.closeBreakErr != nil {
		return f.closeBreakErr
	}
	f.closedBreaks++
	return nil
}

func (f *fakeAttendanceRepo) DeleteOpenBreak(ctx context.Context, attendanceID string) error {
	f.deletedBreaks++
	return nil
}

func (f *fakeAttendanceRepo) Close(ctx context.Context, attendanceID string, at time.Time) error {
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed++
	return nil
}

type fakeDirectory struct {
	users map[string]*user.User
}

func (f *fakeDirectory) ResolveBadge(ctx context.Context, employeeCode string) (*user.User, error) {
	return f.users[employeeCode], nil
}

func (f *fakeDirectory) GetByID(ctx context.Context, id string) (user.User, error) {
	return user.User{}, user.ErrUserNotFound
}

type fakeCreator struct {
	created int
	err     error
}

func (f *fakeCreator) CreateRecord(ctx context.Context, u user.User, at time.Time, tol schedule.Tolerance) (*attendance.Attendance, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created++
	return &attendance.Attendance{ID: "att-1", UserID: u.ID, Status: attendance.StatusWorking}, nil
}

func newTestService(repo *fakeAttendanceRepo, creator *fakeCreator) *Service {
	roles := device.NewRoleMap([]string{entryAddr}, []string{exitAddr}, nil)
	directory := &fakeDirectory{users: map[string]*user.User{
		"E001": {ID: "u1", EmployeeCode: "E001", FullName: "Test User", Active: true},
	}}
	return NewIngestService(roles, directory, repo, creator, notification.NopNotifier{}, schedule.Tolerance{
		Late:       4 * time.Hour,
		EarlyGrace: 4 * time.Hour,
	})
}

func rawEvent(addr string, at time.Time) device.RawEvent {
	return device.RawEvent{
		EmployeeCode:  "E001",
		DeviceAddress: addr,
		Timestamp:     at,
		Verified:      true,
	}
}

func workingRecord() *attendance.Attendance {
	in := shiftStart
	return &attendance.Attendance{
		ID:         "att-1",
		UserID:     "u1",
		ShiftStart: shiftStart,
		ShiftEnd:   shiftEnd,
		TimeIn:     &in,
		Status:     attendance.StatusWorking,
	}
}

func onBreakRecord() *attendance.Attendance {
	record := workingRecord()
	record.Status = attendance.StatusOnBreak
	record.Breaks = []attendance.Break{{ID: "b1", AttendanceID: record.ID, Start: shiftStart.Add(2 * time.Hour)}}
	return record
}

func TestProcess_NoRecordTriggersTimeIn(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	creator := &fakeCreator{}
	svc := newTestService(repo, creator)

	// An exit badge with no record is still a time-in attempt.
	summary := svc.Process(context.Background(), []device.RawEvent{
		rawEvent(exitAddr, shiftStart.Add(5*time.Minute)),
	})

	assert.Equal(t, 1, summary.Accepted)
	assert.Equal(t, 1, creator.created)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, "time_in", summary.Outcomes[0].Action)
}

func TestProcess_TimeInWithoutScheduleDiscards(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	creator := &fakeCreator{err: attendance.ErrNoMatchingSchedule}
	svc := newTestService(repo, creator)

	summary := svc.Process(context.Background(), []device.RawEvent{
		rawEvent(entryAddr, shiftStart),
	})

	assert.Equal(t, 1, summary.Discarded)
	assert.Equal(t, 0, creator.created)
}

func TestProcess_EntryWhileWorkingIsSpurious(t *testing.T) {
	repo := &fakeAttendanceRepo{active: workingRecord()}
	svc := newTestService(repo, &fakeCreator{})

	summary := svc.Process(context.Background(), []device.RawEvent{
		rawEvent(entryAddr, shiftStart.Add(time.Hour)),
	})

	assert.Equal(t, 1, summary.Discarded)
	assert.Equal(t, "spurious duplicate", summary.Outcomes[0].Reason)
	assert.Equal(t, 0, repo.openedBreaks)
}

func TestProcess_ExitWhileWorkingOpensBreak(t *testing.T) {
	repo := &fakeAttendanceRepo{active: workingRecord()}
	svc := newTestService(repo, &fakeCreator{})

	summary := svc.Process(context.Background(), []device.RawEvent{
		rawEvent(exitAddr, shiftStart.Add(2*time.Hour)),
	})

	assert.Equal(t, 1, summary.Accepted)
	assert.Equal(t, "break_in", summary.Outcomes[0].Action)
	assert.Equal(t, 1, repo.openedBreaks)
}

func TestProcess_PreShiftExitIsNoise(t *testing.T) {
	repo := &fakeAttendanceRepo{active: workingRecord()}
	svc := newTestService(repo, &fakeCreator{})

	summary := svc.Process(context.Background(), []device.RawEvent{
		rawEvent(exitAddr, shiftStart.Add(-10*time.Minute)),
	})

	assert.Equal(t, 1, summary.Discarded)
	assert.Equal(t, "pre-shift noise", summary.Outcomes[0].Reason)
	assert.Equal(t, 0, repo.openedBreaks)
}

func TestProcess_EntryWhileOnBreakClosesBreak(t *testing.T) {
	repo := &fakeAttendanceRepo{active: onBreakRecord()}
	svc := newTestService(repo, &fakeCreator{})

	summary := svc.Process(context.Background(), []device.RawEvent{
		rawEvent(entryAddr, shiftStart.Add(150*time.Minute)),
	})

	assert.Equal(t, 1, summary.Accepted)
	assert.Equal(t, "break_out", summary.Outcomes[0].Action)
	assert.Equal(t, 1, repo.closedBreaks)
}

func TestProcess_ExitWhileOnBreakUndoesBreak(t *testing.T) {
	repo := &fakeAttendanceRepo{active: onBreakRecord()}
	svc := newTestService(repo, &fakeCreator{})

	summary := svc.Process(context.Background(), []device.RawEvent{
		rawEvent(exitAddr, shiftStart.Add(150*time.Minute)),
	})

	assert.Equal(t, 1, summary.Accepted)
	assert.Equal(t, "undo_break", summary.Outcomes[0].Action)
	assert.Equal(t, 1, repo.deletedBreaks)
	assert.Equal(t, 0, repo.closedBreaks)
}

func TestProcess_PostShiftEventForcesTimeOut(t *testing.T) {
	// Even an entry badge after the shift ended closes the record.
	repo := &fakeAttendanceRepo{active: onBreakRecord()}
	svc := newTestService(repo, &fakeCreator{})

	summary := svc.Process(context.Background(), []device.RawEvent{
		rawEvent(entryAddr, shiftEnd.Add(30*time.Minute)),
	})

	assert.Equal(t, 1, summary.Accepted)
	assert.Equal(t, "time_out", summary.Outcomes[0].Action)
	assert.Equal(t, 1, repo.closed)
}

func TestProcess_NextDayBadgeAfterClosedShiftStartsNewRecord(t *testing.T) {
	// Yesterday's record is terminal; today's first badge must open a fresh
	// record instead of resolving against the closed one.
	record := workingRecord()
	out := shiftEnd
	record.TimeOut = &out
	record.Status = attendance.StatusOutOfOffice
	repo := &fakeAttendanceRepo{active: record}
	creator := &fakeCreator{}
	svc := newTestService(repo, creator)

	summary := svc.Process(context.Background(), []device.RawEvent{
		rawEvent(entryAddr, shiftEnd.Add(16*time.Hour)),
	})

	assert.Equal(t, 1, summary.Accepted)
	assert.Equal(t, "time_in", summary.Outcomes[0].Action)
	assert.Equal(t, 1, creator.created)
	assert.Equal(t, 0, repo.closed)
}

func TestProcess_ClosedRecordMidShiftDiscards(t *testing.T) {
	// Manually timed out before the shift end: badges until the shift ends
	// have no defined transition and must not reopen anything.
	record := workingRecord()
	out := shiftStart.Add(3 * time.Hour)
	record.TimeOut = &out
	record.Status = attendance.StatusOutOfOffice
	repo := &fakeAttendanceRepo{active: record}
	creator := &fakeCreator{}
	svc := newTestService(repo, creator)

	summary := svc.Process(context.Background(), []device.RawEvent{
		rawEvent(exitAddr, shiftStart.Add(4*time.Hour)),
	})

	assert.Equal(t, 1, summary.Discarded)
	assert.Equal(t, 0, creator.created)
	assert.Equal(t, 0, repo.closed)
}

func TestProcess_UnknownBadgeDiscards(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	svc := newTestService(repo, &fakeCreator{})

	raw := rawEvent(entryAddr, shiftStart)
	raw.EmployeeCode = "NOBODY"
	summary := svc.Process(context.Background(), []device.RawEvent{raw})

	assert.Equal(t, 1, summary.Discarded)
	assert.Equal(t, "unresolved identity", summary.Outcomes[0].Reason)
}

func TestProcess_UnverifiedEventDiscards(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	svc := newTestService(repo, &fakeCreator{})

	raw := rawEvent(entryAddr, shiftStart)
	raw.Verified = false
	summary := svc.Process(context.Background(), []device.RawEvent{raw})

	assert.Equal(t, 1, summary.Discarded)
}

func TestProcess_GuardRaceDiscards(t *testing.T) {
	repo := &fakeAttendanceRepo{
		active:       workingRecord(),
		openBreakErr: attendance.ErrInvalidTransition,
	}
	svc := newTestService(repo, &fakeCreator{})

	summary := svc.Process(context.Background(), []device.RawEvent{
		rawEvent(exitAddr, shiftStart.Add(time.Hour)),
	})

	assert.Equal(t, 1, summary.Discarded)
}

func TestProcess_BatchNeverAborts(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	creator := &fakeCreator{}
	svc := newTestService(repo, creator)

	bad := rawEvent(entryAddr, shiftStart)
	bad.Verified = false
	good := rawEvent(entryAddr, shiftStart.Add(time.Minute))

	summary := svc.Process(context.Background(), []device.RawEvent{bad, good, bad})

	assert.Equal(t, 3, summary.Received)
	assert.Equal(t, 1, summary.Accepted)
	assert.Equal(t, 2, summary.Discarded)
	assert.Len(t, summary.Outcomes, 3)
}
