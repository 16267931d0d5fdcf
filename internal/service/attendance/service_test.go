package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftsense/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftsense/attendance-backend-go/internal/domain/notification"
	"github.com/shiftsense/attendance-backend-go/internal/domain/schedule"
	"github.com/shiftsense/attendance-backend-go/internal/domain/user"
)

var (
	testNow    = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	testWindow = schedule.ShiftWindow{
		Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC),
	}
	testUser = user.User{ID: "u1", EmployeeCode: "E001", FullName: "Test User", Active: true}
)

type fakeRepo struct {
	attendance.AttendanceRepository

	createErr error
	created   *attendance.Attendance
	existing  *attendance.Attendance
	active    *attendance.Attendance

	closeErr error
	closed   int
	opened   int
}

func (f *fakeRepo) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	if f.createErr != nil {
		return attendance.Attendance{}, f.createErr
	}
	att.ID = "att-1"
	f.created = &att
	return att, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	if f.active != nil && f.active.ID == id {
		return *f.active, nil
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (f *fakeRepo) GetByUserAndDate(ctx context.Context, userID string, shiftDate time.Time) (*attendance.Attendance, error) {
	return f.existing, nil
}

func (f *fakeRepo) GetActiveForUser(ctx context.Context, userID string, now time.Time) (*attendance.Attendance, error) {
	return f.active, nil
}

func (f *fakeRepo) OpenBreak(ctx context.Context, attendanceID string, at time.Time) error {
	f.opened++
	return nil
}

func (f *fakeRepo) Close(ctx context.Context, attendanceID string, at time.Time) error {
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed++
	return nil
}

type fakeLookup struct {
	window *schedule.ShiftWindow
}

func (f *fakeLookup) ShiftWindowFor(ctx context.Context, userID string, at time.Time, tol schedule.Tolerance) (*schedule.ShiftWindow, error) {
	return f.window, nil
}

type fakeDirectory struct{}

func (fakeDirectory) ResolveBadge(ctx context.Context, employeeCode string) (*user.User, error) {
	return nil, nil
}

func (fakeDirectory) GetByID(ctx context.Context, id string) (user.User, error) {
	if id == testUser.ID {
		return testUser, nil
	}
	return user.User{}, user.ErrUserNotFound
}

type recorderNotifier struct {
	requests []notification.CreateNotificationRequest
}

func (r *recorderNotifier) Notify(ctx context.Context, req notification.CreateNotificationRequest) {
	r.requests = append(r.requests, req)
}

func newTestService(repo *fakeRepo, lookup *fakeLookup, notifier notification.Notifier) *AttendanceServiceImpl {
	svc := NewAttendanceService(repo, lookup, fakeDirectory{}, notifier, time.UTC, schedule.Tolerance{
		Late:       2 * time.Hour,
		EarlyGrace: 6 * time.Hour,
	})
	svc.now = func() time.Time { return testNow }
	return svc
}

func authedContext(t *testing.T, userID string) context.Context {
	t.Helper()
	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := tokenAuth.Encode(map[string]interface{}{"user_id": userID, "type": "access"})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func TestCreateRecord_OpensWorkingRecord(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeLookup{window: &testWindow}, notification.NopNotifier{})

	record, err := svc.CreateRecord(context.Background(), testUser, testNow, svc.tolerance)
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusWorking, record.Status)
	assert.Equal(t, 30, record.LateMinutes)
	require.NotNil(t, record.TimeIn)
	assert.Equal(t, testNow, *record.TimeIn)
	assert.Equal(t, testWindow.Start, record.ShiftStart)
}

func TestCreateRecord_EarlyArrivalIsNotLate(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeLookup{window: &testWindow}, notification.NopNotifier{})

	at := testWindow.Start.Add(-30 * time.Minute)
	record, err := svc.CreateRecord(context.Background(), testUser, at, svc.tolerance)
	require.NoError(t, err)

	assert.Equal(t, 0, record.LateMinutes)
}

func TestCreateRecord_NoScheduleNotifiesAndFails(t *testing.T) {
	repo := &fakeRepo{}
	notifier := &recorderNotifier{}
	svc := newTestService(repo, &fakeLookup{}, notifier)

	_, err := svc.CreateRecord(context.Background(), testUser, testNow, svc.tolerance)
	assert.ErrorIs(t, err, attendance.ErrNoMatchingSchedule)

	require.Len(t, notifier.requests, 1)
	assert.Equal(t, notification.TypeScheduleMiss, notifier.requests[0].Type)
	assert.Nil(t, repo.created)
}

func TestCreateRecord_DuplicateReturnsExisting(t *testing.T) {
	in := testWindow.Start
	existing := &attendance.Attendance{
		ID:     "att-existing",
		UserID: testUser.ID,
		TimeIn: &in,
		Status: attendance.StatusWorking,
	}
	repo := &fakeRepo{createErr: attendance.ErrDuplicateAttendance, existing: existing}
	notifier := &recorderNotifier{}
	svc := newTestService(repo, &fakeLookup{window: &testWindow}, notifier)

	record, err := svc.CreateRecord(context.Background(), testUser, testNow, svc.tolerance)
	require.NoError(t, err)

	assert.Equal(t, "att-existing", record.ID)
	require.Len(t, notifier.requests, 1)
	assert.Equal(t, notification.TypeDuplicateTimeIn, notifier.requests[0].Type)
}

func TestTimeIn_UsesAuthenticatedUser(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeLookup{window: &testWindow}, notification.NopNotifier{})

	result, err := svc.TimeIn(authedContext(t, testUser.ID))
	require.NoError(t, err)

	assert.Equal(t, testUser.ID, result.UserID)
	assert.Equal(t, string(attendance.StatusWorking), string(result.Status))
}

func TestTimeIn_MissingClaimsFails(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeLookup{window: &testWindow}, notification.NopNotifier{})

	_, err := svc.TimeIn(context.Background())
	assert.Error(t, err)
}

func TestTimeOut_WithoutRecordFails(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeLookup{}, notification.NopNotifier{})

	_, err := svc.TimeOut(authedContext(t, testUser.ID))
	assert.ErrorIs(t, err, attendance.ErrNotTimedIn)
}

func TestTimeOut_ClosedRecordFails(t *testing.T) {
	out := testNow.Add(-time.Hour)
	repo := &fakeRepo{active: &attendance.Attendance{
		ID:      "att-1",
		UserID:  testUser.ID,
		TimeOut: &out,
		Status:  attendance.StatusOutOfOffice,
	}}
	svc := newTestService(repo, &fakeLookup{}, notification.NopNotifier{})

	_, err := svc.TimeOut(authedContext(t, testUser.ID))
	assert.ErrorIs(t, err, attendance.ErrInvalidTransition)
	assert.Equal(t, 0, repo.closed)
}

func TestBreakIn_AppliesToActiveRecord(t *testing.T) {
	in := testWindow.Start
	repo := &fakeRepo{active: &attendance.Attendance{
		ID:         "att-1",
		UserID:     testUser.ID,
		ShiftStart: testWindow.Start,
		ShiftEnd:   testWindow.End,
		TimeIn:     &in,
		Status:     attendance.StatusWorking,
	}}
	svc := newTestService(repo, &fakeLookup{}, notification.NopNotifier{})

	result, err := svc.BreakIn(authedContext(t, testUser.ID))
	require.NoError(t, err)

	assert.Equal(t, 1, repo.opened)
	assert.Equal(t, "att-1", result.ID)
}
