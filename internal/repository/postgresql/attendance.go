package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shiftsense/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/database"
)

const uniqueViolation = "23505"

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	a.id, a.user_id, a.employee_code, a.shift_date, a.shift_start, a.shift_end,
	a.time_in, a.time_out, a.status, a.total_break_ms, a.late_minutes,
	a.worked_minutes, a.created_at, a.updated_at`

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.UserID, &att.EmployeeCode, &att.ShiftDate, &att.ShiftStart, &att.ShiftEnd,
		&att.TimeIn, &att.TimeOut, &att.Status, &att.TotalBreakMs, &att.LateMinutes,
		&att.WorkedMins, &att.CreatedAt, &att.UpdatedAt,
	)
	return att, err
}

// loadBreaks attaches break rows, ordered by start, to each record.
func (a *attendanceRepository) loadBreaks(ctx context.Context, atts []attendance.Attendance) error {
	if len(atts) == 0 {
		return nil
	}
	q := GetQuerier(ctx, a.db)

	ids := make([]string, len(atts))
	index := make(map[string]*attendance.Attendance, len(atts))
	for i := range atts {
		ids[i] = atts[i].ID
		index[atts[i].ID] = &atts[i]
	}

	rows, err := q.Query(ctx, `
		SELECT id, attendance_id, break_start, break_end, duration_ms, created_at
		FROM attendance_breaks
		WHERE attendance_id = ANY($1)
		ORDER BY break_start ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query breaks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b attendance.Break
		if err := rows.Scan(&b.ID, &b.AttendanceID, &b.Start, &b.End, &b.DurationMs, &b.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan break: %w", err)
		}
		if att, ok := index[b.AttendanceID]; ok {
			att.Breaks = append(att.Breaks, b)
		}
	}
	return rows.Err()
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			user_id, employee_code, shift_date, shift_start, shift_end,
			time_in, status, late_minutes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		att.UserID,
		att.EmployeeCode,
		att.ShiftDate,
		att.ShiftStart,
		att.ShiftEnd,
		att.TimeIn,
		att.Status,
		att.LateMinutes,
	).Scan(&att.ID, &att.CreatedAt, &att.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return attendance.Attendance{}, attendance.ErrDuplicateAttendance
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return att, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT` + attendanceColumns + `, u.full_name AS user_name
		FROM attendances a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.id = $1
	`

	var att attendance.Attendance
	err := q.QueryRow(ctx, query, id).Scan(
		&att.ID, &att.UserID, &att.EmployeeCode, &att.ShiftDate, &att.ShiftStart, &att.ShiftEnd,
		&att.TimeIn, &att.TimeOut, &att.Status, &att.TotalBreakMs, &att.LateMinutes,
		&att.WorkedMins, &att.CreatedAt, &att.UpdatedAt,
		&att.UserName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by ID: %w", err)
	}

	atts := []attendance.Attendance{att}
	if err := a.loadBreaks(ctx, atts); err != nil {
		return attendance.Attendance{}, err
	}
	return atts[0], nil
}

// GetByUserAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByUserAndDate(ctx context.Context, userID string, shiftDate time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT` + attendanceColumns + `
		FROM attendances a
		WHERE a.user_id = $1 AND a.shift_date = $2
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, userID, shiftDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by user and date: %w", err)
	}

	atts := []attendance.Attendance{att}
	if err := a.loadBreaks(ctx, atts); err != nil {
		return nil, err
	}
	return &atts[0], nil
}

// GetActiveForUser implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetActiveForUser(ctx context.Context, userID string, now time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	// The record whose shift window contains now wins; otherwise fall back
	// to the most recently created one.
	query := `
		SELECT` + attendanceColumns + `
		FROM attendances a
		WHERE a.user_id = $1
		ORDER BY (a.shift_start <= $2 AND a.shift_end >= $2) DESC, a.created_at DESC
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, userID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active attendance: %w", err)
	}

	atts := []attendance.Attendance{att}
	if err := a.loadBreaks(ctx, atts); err != nil {
		return nil, err
	}
	return &atts[0], nil
}

// OpenBreak implements attendance.AttendanceRepository.
func (a *attendanceRepository) OpenBreak(ctx context.Context, attendanceID string, at time.Time) error {
	return WithTransaction(ctx, a.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, a.db)

		var id string
		err := q.QueryRow(ctx, `
			UPDATE attendances
			SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = $3 AND time_out IS NULL
			RETURNING id
		`, attendanceID, attendance.StatusOnBreak, attendance.StatusWorking).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return attendance.ErrInvalidTransition
			}
			return fmt.Errorf("failed to set on_break status: %w", err)
		}

		if _, err := q.Exec(ctx, `
			INSERT INTO attendance_breaks (attendance_id, break_start)
			VALUES ($1, $2)
		`, attendanceID, at); err != nil {
			return fmt.Errorf("failed to open break: %w", err)
		}
		return nil
	})
}

// CloseBreak implements attendance.AttendanceRepository.
func (a *attendanceRepository) CloseBreak(ctx context.Context, attendanceID string, at time.Time) error {
	return WithTransaction(ctx, a.db, func(ctx context.Context) error {
		if err := closeOpenBreak(ctx, a.db, attendanceID, at, true); err != nil {
			return err
		}

		q := GetQuerier(ctx, a.db)
		var id string
		err := q.QueryRow(ctx, `
			UPDATE attendances
			SET status = $2,
			    total_break_ms = (
			        SELECT COALESCE(SUM(duration_ms), 0)
			        FROM attendance_breaks
			        WHERE attendance_id = $1 AND break_end IS NOT NULL
			    ),
			    updated_at = NOW()
			WHERE id = $1 AND status = $3
			RETURNING id
		`, attendanceID, attendance.StatusWorking, attendance.StatusOnBreak).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return attendance.ErrInvalidTransition
			}
			return fmt.Errorf("failed to set working status: %w", err)
		}
		return nil
	})
}

// closeOpenBreak closes the open break row at the given instant. When
// required is false a missing open break is not an error (time-out path).
func closeOpenBreak(ctx context.Context, db *database.DB, attendanceID string, at time.Time, required bool) error {
	q := GetQuerier(ctx, db)

	tag, err := q.Exec(ctx, `
		UPDATE attendance_breaks
		SET break_end = $2,
		    duration_ms = (EXTRACT(EPOCH FROM ($2::timestamptz - break_start)) * 1000)::bigint
		WHERE attendance_id = $1 AND break_end IS NULL
	`, attendanceID, at)
	if err != nil {
		return fmt.Errorf("failed to close open break: %w", err)
	}
	if required && tag.RowsAffected() == 0 {
		return attendance.ErrInvalidTransition
	}
	return nil
}

// DeleteOpenBreak implements attendance.AttendanceRepository.
//
// This deliberately removes the open break's start marker instead of closing
// it: an exit badge while already on break means the break-open was
// accidental and the employee never left.
func (a *attendanceRepository) DeleteOpenBreak(ctx context.Context, attendanceID string) error {
	return WithTransaction(ctx, a.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, a.db)

		tag, err := q.Exec(ctx, `
			DELETE FROM attendance_breaks
			WHERE attendance_id = $1 AND break_end IS NULL
		`, attendanceID)
		if err != nil {
			return fmt.Errorf("failed to delete open break: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return attendance.ErrInvalidTransition
		}

		var id string
		err = q.QueryRow(ctx, `
			UPDATE attendances
			SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = $3
			RETURNING id
		`, attendanceID, attendance.StatusWorking, attendance.StatusOnBreak).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return attendance.ErrInvalidTransition
			}
			return fmt.Errorf("failed to restore working status: %w", err)
		}
		return nil
	})
}

// Close implements attendance.AttendanceRepository.
func (a *attendanceRepository) Close(ctx context.Context, attendanceID string, at time.Time) error {
	return WithTransaction(ctx, a.db, func(ctx context.Context) error {
		// A break spanning the time-out is closed at the same instant.
		if err := closeOpenBreak(ctx, a.db, attendanceID, at, false); err != nil {
			return err
		}

		q := GetQuerier(ctx, a.db)
		var id string
		err := q.QueryRow(ctx, `
			UPDATE attendances
			SET time_out = $2,
			    status = $3,
			    worked_minutes = (EXTRACT(EPOCH FROM ($2::timestamptz - time_in)) / 60)::int,
			    total_break_ms = (
			        SELECT COALESCE(SUM(duration_ms), 0)
			        FROM attendance_breaks
			        WHERE attendance_id = $1 AND break_end IS NOT NULL
			    ),
			    updated_at = NOW()
			WHERE id = $1 AND status <> $3
			RETURNING id
		`, attendanceID, at, attendance.StatusOutOfOffice).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return attendance.ErrInvalidTransition
			}
			return fmt.Errorf("failed to close attendance: %w", err)
		}
		return nil
	})
}

// ListForUser implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListForUser(ctx context.Context, userID string, filter attendance.ListFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	baseWhere := "a.user_id = $1"
	args := []interface{}{userID}
	argIdx := 2

	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.shift_date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.shift_date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND a.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM attendances a WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page == 0 {
		page = 1
	}
	offset := (page - 1) * limit

	selectQuery := fmt.Sprintf(`
		SELECT%s
		FROM attendances a
		WHERE %s
		ORDER BY a.shift_date %s
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, sortOrder, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := a.loadBreaks(ctx, attendances); err != nil {
		return nil, 0, err
	}

	return attendances, total, nil
}

// ListWorkedIntervals implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListWorkedIntervals(ctx context.Context, from, to time.Time) ([]attendance.WorkedInterval, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, `
		SELECT user_id, shift_date, time_in, time_out
		FROM attendances
		WHERE time_in IS NOT NULL
		  AND time_in < $2
		  AND COALESCE(time_out, NOW()) > $1
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query worked intervals: %w", err)
	}
	defer rows.Close()

	var intervals []attendance.WorkedInterval
	for rows.Next() {
		var iv attendance.WorkedInterval
		if err := rows.Scan(&iv.UserID, &iv.ShiftDate, &iv.TimeIn, &iv.TimeOut); err != nil {
			return nil, fmt.Errorf("failed to scan worked interval: %w", err)
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}

func (a *attendanceRepository) listView(ctx context.Context, query string, arg interface{}) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query view: %w", err)
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		var att attendance.Attendance
		err := rows.Scan(
			&att.ID, &att.UserID, &att.EmployeeCode, &att.ShiftDate, &att.ShiftStart, &att.ShiftEnd,
			&att.TimeIn, &att.TimeOut, &att.Status, &att.TotalBreakMs, &att.LateMinutes,
			&att.WorkedMins, &att.CreatedAt, &att.UpdatedAt,
			&att.UserName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan view row: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := a.loadBreaks(ctx, attendances); err != nil {
		return nil, err
	}
	return attendances, nil
}

// ListOnBreak implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOnBreak(ctx context.Context, updatedSince time.Time) ([]attendance.Attendance, error) {
	return a.listView(ctx, `
		SELECT`+attendanceColumns+`, u.full_name AS user_name
		FROM attendances a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.status = 'on_break' AND a.updated_at >= $1
		ORDER BY a.updated_at DESC
	`, updatedSince)
}

// ListOverBreakLimit implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOverBreakLimit(ctx context.Context, openedBefore time.Time) ([]attendance.Attendance, error) {
	return a.listView(ctx, `
		SELECT`+attendanceColumns+`, u.full_name AS user_name
		FROM attendances a
		JOIN attendance_breaks b ON b.attendance_id = a.id AND b.break_end IS NULL
		LEFT JOIN users u ON u.id = a.user_id
		WHERE b.break_start <= $1
		ORDER BY b.break_start ASC
	`, openedBefore)
}

// ListWorking implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListWorking(ctx context.Context, updatedSince time.Time) ([]attendance.Attendance, error) {
	return a.listView(ctx, `
		SELECT`+attendanceColumns+`, u.full_name AS user_name
		FROM attendances a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.status = 'working' AND a.updated_at >= $1
		ORDER BY a.updated_at DESC
	`, updatedSince)
}
