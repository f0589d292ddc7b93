package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/employee"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/database"
)

type shiftRepository struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepository{db: db}
}

const shiftColumns = `id, name, start_time, end_time, qr_token, created_at, updated_at`

func scanShift(row pgx.Row) (shift.Shift, error) {
	var s shift.Shift
	err := row.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime, &s.QRToken, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func shiftError(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shift.ErrShiftNotFound
	}
	if uniqueViolation(err) == "uk_shifts_name" {
		return shift.ErrShiftNameExists
	}
	return fmt.Errorf("failed to %s shift: %w", action, err)
}

// Create implements shift.ShiftRepository.
func (r *shiftRepository) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shifts (name, start_time, end_time, qr_token)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + shiftColumns

	created, err := scanShift(q.QueryRow(ctx, query, s.Name, s.StartTime, s.EndTime, s.QRToken))
	if err != nil {
		return shift.Shift{}, shiftError(err, "create")
	}
	return created, nil
}

// GetByID implements shift.ShiftRepository.
func (r *shiftRepository) GetByID(ctx context.Context, id string) (shift.Shift, error) {
	if !validID(id) {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	q := GetQuerier(ctx, r.db)

	s, err := scanShift(q.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id))
	if err != nil {
		return shift.Shift{}, shiftError(err, "get")
	}
	return s, nil
}

// GetByQRToken implements shift.ShiftRepository.
func (r *shiftRepository) GetByQRToken(ctx context.Context, token string) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanShift(q.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE qr_token = $1`, token))
	if err != nil {
		return shift.Shift{}, shiftError(err, "get")
	}
	return s, nil
}

// List implements shift.ShiftRepository.
func (r *shiftRepository) List(ctx context.Context) ([]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+shiftColumns+` FROM shifts ORDER BY start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []shift.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// Update implements shift.ShiftRepository.
func (r *shiftRepository) Update(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts
		SET name = $1, start_time = $2, end_time = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + shiftColumns

	updated, err := scanShift(q.QueryRow(ctx, query, s.Name, s.StartTime, s.EndTime, s.ID))
	if err != nil {
		return shift.Shift{}, shiftError(err, "update")
	}
	return updated, nil
}

// Delete implements shift.ShiftRepository. Shifts referenced by attendance
// records cannot be deleted.
func (r *shiftRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return shift.ErrShiftNotFound
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		if foreignKeyViolation(err) {
			return shift.ErrShiftInUse
		}
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}
	return nil
}

// ========== WEEKLY ASSIGNMENTS ==========

type assignmentRepository struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) shift.AssignmentRepository {
	return &assignmentRepository{db: db}
}

// Create implements shift.AssignmentRepository.
func (r *assignmentRepository) Create(ctx context.Context, a shift.WeeklyAssignment) (shift.WeeklyAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH inserted AS (
			INSERT INTO weekly_assignments (employee_id, shift_id, weekday)
			VALUES ($1, $2, $3)
			RETURNING id, employee_id, shift_id, weekday, created_at
		)
		SELECT i.id, i.employee_id, i.shift_id, i.weekday, i.created_at,
			   TRIM(e.first_name || ' ' || e.last_name), s.name
		FROM inserted i
		JOIN employees e ON e.id = i.employee_id
		JOIN shifts s ON s.id = i.shift_id
	`
	created, err := scanAssignment(q.QueryRow(ctx, query, a.EmployeeID, a.ShiftID, int16(a.Weekday)))
	if err != nil {
		if uniqueViolation(err) == "uk_weekly_assignments" {
			return shift.WeeklyAssignment{}, shift.ErrAssignmentExists
		}
		if foreignKeyViolation(err) {
			return shift.WeeklyAssignment{}, employee.ErrEmployeeNotFound
		}
		return shift.WeeklyAssignment{}, fmt.Errorf("failed to create weekly assignment: %w", err)
	}
	return created, nil
}

func scanAssignment(row pgx.Row) (shift.WeeklyAssignment, error) {
	var a shift.WeeklyAssignment
	var weekday int16
	err := row.Scan(&a.ID, &a.EmployeeID, &a.ShiftID, &weekday, &a.CreatedAt, &a.EmployeeName, &a.ShiftName)
	a.Weekday = shift.Weekday(weekday)
	return a, err
}

// List implements shift.AssignmentRepository.
func (r *assignmentRepository) List(ctx context.Context, filter shift.AssignmentFilter) ([]shift.WeeklyAssignment, error) {
	q := GetQuerier(ctx, r.db)

	builder := psql.
		Select("a.id", "a.employee_id", "a.shift_id", "a.weekday", "a.created_at",
			"TRIM(e.first_name || ' ' || e.last_name)", "s.name").
		From("weekly_assignments a").
		Join("employees e ON e.id = a.employee_id").
		Join("shifts s ON s.id = a.shift_id").
		OrderBy("a.weekday", "s.start_time", "e.code", "a.id")
	if filter.EmployeeID != nil {
		builder = builder.Where(sq.Eq{"a.employee_id": *filter.EmployeeID})
	}
	if filter.ShiftID != nil {
		builder = builder.Where(sq.Eq{"a.shift_id": *filter.ShiftID})
	}
	if filter.Weekday != nil {
		builder = builder.Where(sq.Eq{"a.weekday": int16(*filter.Weekday)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build assignment list query: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly assignments: %w", err)
	}
	defer rows.Close()

	var assignments []shift.WeeklyAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekly assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// Delete implements shift.AssignmentRepository.
func (r *assignmentRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return shift.ErrAssignmentNotFound
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM weekly_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete weekly assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrAssignmentNotFound
	}
	return nil
}

// ========== EXCEPTIONS ==========

type exceptionRepository struct {
	db *database.DB
}

func NewExceptionRepository(db *database.DB) shift.ExceptionRepository {
	return &exceptionRepository{db: db}
}

var exceptionSelect = psql.
	Select("x.id", "x.employee_id", "x.type", "x.date", "x.weekday", "x.start_time", "x.end_time",
		"x.is_added", "x.reason", "x.created_at", "TRIM(e.first_name || ' ' || e.last_name)").
	From("shift_exceptions x").
	Join("employees e ON e.id = x.employee_id")

func scanException(row pgx.Row) (shift.ShiftException, error) {
	var x shift.ShiftException
	var weekday *int16
	err := row.Scan(&x.ID, &x.EmployeeID, &x.Type, &x.Date, &weekday, &x.StartTime, &x.EndTime,
		&x.IsAdded, &x.Reason, &x.CreatedAt, &x.EmployeeName)
	if weekday != nil {
		w := shift.Weekday(*weekday)
		x.Weekday = &w
	}
	return x, err
}

func (r *exceptionRepository) query(ctx context.Context, builder sq.SelectBuilder) ([]shift.ShiftException, error) {
	q := GetQuerier(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build exception query: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []shift.ShiftException
	for rows.Next() {
		x, err := scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift exception: %w", err)
		}
		exceptions = append(exceptions, x)
	}
	return exceptions, rows.Err()
}

// Create implements shift.ExceptionRepository.
func (r *exceptionRepository) Create(ctx context.Context, x shift.ShiftException) (shift.ShiftException, error) {
	q := GetQuerier(ctx, r.db)

	var weekday *int16
	if x.Weekday != nil {
		w := int16(*x.Weekday)
		weekday = &w
	}

	query := `
		INSERT INTO shift_exceptions (employee_id, type, date, weekday, start_time, end_time, is_added, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query, x.EmployeeID, x.Type, x.Date, weekday, x.StartTime, x.EndTime, x.IsAdded, x.Reason).
		Scan(&x.ID, &x.CreatedAt)
	if err != nil {
		if foreignKeyViolation(err) {
			return shift.ShiftException{}, employee.ErrEmployeeNotFound
		}
		return shift.ShiftException{}, fmt.Errorf("failed to create shift exception: %w", err)
	}
	return r.GetByID(ctx, x.ID)
}

// GetByID implements shift.ExceptionRepository.
func (r *exceptionRepository) GetByID(ctx context.Context, id string) (shift.ShiftException, error) {
	if !validID(id) {
		return shift.ShiftException{}, shift.ErrExceptionNotFound
	}
	exceptions, err := r.query(ctx, exceptionSelect.Where(sq.Eq{"x.id": id}))
	if err != nil {
		return shift.ShiftException{}, err
	}
	if len(exceptions) == 0 {
		return shift.ShiftException{}, shift.ErrExceptionNotFound
	}
	return exceptions[0], nil
}

// List implements shift.ExceptionRepository.
func (r *exceptionRepository) List(ctx context.Context, filter shift.ExceptionFilter) ([]shift.ShiftException, error) {
	builder := exceptionSelect.OrderBy("x.created_at DESC", "x.id")
	if filter.EmployeeID != nil {
		builder = builder.Where(sq.Eq{"x.employee_id": *filter.EmployeeID})
	}
	if filter.Type != nil {
		builder = builder.Where(sq.Eq{"x.type": *filter.Type})
	}
	return r.query(ctx, builder)
}

// ListActive implements shift.ExceptionRepository.
func (r *exceptionRepository) ListActive(ctx context.Context, from, to time.Time) ([]shift.ShiftException, error) {
	builder := exceptionSelect.
		Where(sq.Or{
			sq.And{
				sq.Eq{"x.type": shift.ExceptionOnce},
				sq.GtOrEq{"x.date": from.Format("2006-01-02")},
				sq.LtOrEq{"x.date": to.Format("2006-01-02")},
			},
			sq.Eq{"x.type": shift.ExceptionPermanent},
		}).
		OrderBy("x.start_time", "x.id")
	return r.query(ctx, builder)
}

// Delete implements shift.ExceptionRepository.
func (r *exceptionRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return shift.ErrExceptionNotFound
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM shift_exceptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift exception: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrExceptionNotFound
	}
	return nil
}
