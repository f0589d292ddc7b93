package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/attendance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

var attendanceColumns = []string{
	"a.id", "a.token", "a.employee_id", "a.shift_id", "a.assignment_id", "a.exception_id", "a.work_date",
	"a.check_in", "a.check_out", "a.latitude", "a.longitude", "a.distance_meters", "a.site_name", "a.within_advisory", "a.location_note",
	"a.face_image_path", "a.face_verified", "a.matched_profile_id", "a.method", "a.manual_by", "a.note",
	"a.created_at", "a.updated_at",
	"TRIM(e.first_name || ' ' || e.last_name)", "e.code", "s.name", "s.start_time", "s.end_time",
}

var attendanceSelect = psql.
	Select(attendanceColumns...).
	From("attendance_records a").
	Join("employees e ON e.id = a.employee_id").
	Join("shifts s ON s.id = a.shift_id")

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var a attendance.Attendance
	err := row.Scan(
		&a.ID, &a.Token, &a.EmployeeID, &a.ShiftID, &a.AssignmentID, &a.ExceptionID, &a.WorkDate,
		&a.CheckIn, &a.CheckOut, &a.Latitude, &a.Longitude, &a.DistanceMeters, &a.SiteName, &a.WithinAdvisory, &a.LocationNote,
		&a.FaceImagePath, &a.FaceVerified, &a.MatchedProfileID, &a.Method, &a.ManualBy, &a.Note,
		&a.CreatedAt, &a.UpdatedAt,
		&a.EmployeeName, &a.EmployeeCode, &a.ShiftName, &a.ShiftStart, &a.ShiftEnd,
	)
	return a, err
}

func (r *attendanceRepository) selectOne(ctx context.Context, builder sq.SelectBuilder) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to build attendance query: %w", err)
	}
	a, err := scanAttendance(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return a, nil
}

func (r *attendanceRepository) selectMany(ctx context.Context, builder sq.SelectBuilder) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build attendance query: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// GetOrCreateForUpdate implements attendance.AttendanceRepository. The unique
// (employee_id, shift_id, work_date) constraint makes concurrent first
// toggles converge on one row; the row lock serialises the rest.
func (r *attendanceRepository) GetOrCreateForUpdate(ctx context.Context, seed attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	insert := `
		INSERT INTO attendance_records (token, employee_id, shift_id, assignment_id, exception_id, work_date, method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id, shift_id, work_date) DO NOTHING
	`
	if _, err := q.Exec(ctx, insert,
		seed.Token, seed.EmployeeID, seed.ShiftID, seed.AssignmentID, seed.ExceptionID, seed.WorkDate, seed.Method,
	); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return r.selectOne(ctx, attendanceSelect.
		Where(sq.Eq{"a.employee_id": seed.EmployeeID, "a.shift_id": seed.ShiftID}).
		Where(sq.Eq{"a.work_date": seed.WorkDate.Format("2006-01-02")}).
		Suffix("FOR UPDATE OF a"))
}

// GetByToken implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByToken(ctx context.Context, token string) (attendance.Attendance, error) {
	if !validID(token) {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return r.selectOne(ctx, attendanceSelect.Where(sq.Eq{"a.token": token}))
}

// Update implements attendance.AttendanceRepository.
func (r *attendanceRepository) Update(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_records
		SET check_in = $1, check_out = $2, latitude = $3, longitude = $4, distance_meters = $5,
			location_note = $6, face_image_path = $7, face_verified = $8, matched_profile_id = $9,
			method = $10, manual_by = $11, note = $12, assignment_id = $13, exception_id = $14,
			site_name = $16, within_advisory = $17, updated_at = NOW()
		WHERE id = $15
	`
	tag, err := q.Exec(ctx, query,
		a.CheckIn, a.CheckOut, a.Latitude, a.Longitude, a.DistanceMeters,
		a.LocationNote, a.FaceImagePath, a.FaceVerified, a.MatchedProfileID,
		a.Method, a.ManualBy, a.Note, a.AssignmentID, a.ExceptionID,
		a.ID, a.SiteName, a.WithinAdvisory,
	)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}

	return r.selectOne(ctx, attendanceSelect.Where(sq.Eq{"a.id": a.ID}))
}

// List implements attendance.AttendanceRepository.
func (r *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := sq.And{}
	if filter.EmployeeID != nil {
		where = append(where, sq.Eq{"a.employee_id": *filter.EmployeeID})
	}
	if filter.ShiftID != nil {
		where = append(where, sq.Eq{"a.shift_id": *filter.ShiftID})
	}
	if filter.StartDate != nil {
		where = append(where, sq.GtOrEq{"a.work_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		where = append(where, sq.LtOrEq{"a.work_date": *filter.EndDate})
	}
	if filter.Method != nil {
		where = append(where, sq.Eq{"a.method": *filter.Method})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From("attendance_records a").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build attendance count query: %w", err)
	}
	var total int64
	if err := q.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance: %w", err)
	}

	order := "DESC"
	if filter.SortOrder == "asc" {
		order = "ASC"
	}
	records, err := r.selectMany(ctx, attendanceSelect.
		Where(where).
		OrderBy("a.work_date "+order, "s.start_time "+order, "e.code ASC").
		Limit(uint64(filter.Limit)).
		Offset(uint64((filter.Page-1)*filter.Limit)))
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	return r.selectMany(ctx, attendanceSelect.
		Where(sq.Eq{"a.employee_id": employeeID}).
		Where(sq.GtOrEq{"a.work_date": from.Format("2006-01-02")}).
		Where(sq.LtOrEq{"a.work_date": to.Format("2006-01-02")}).
		OrderBy("a.check_in ASC NULLS LAST", "a.id ASC"))
}

// ========== IDEMPOTENCY ==========

type idempotencyRepository struct {
	db *database.DB
}

func NewIdempotencyRepository(db *database.DB) attendance.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

// Get implements attendance.IdempotencyRepository.
func (r *idempotencyRepository) Get(ctx context.Context, userID, key, endpoint string) (attendance.IdempotencyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT user_id, key, endpoint, request_hash, response_json, created_at
		FROM idempotency_keys
		WHERE user_id = $1 AND key = $2 AND endpoint = $3 AND response_json IS NOT NULL
	`
	var rec attendance.IdempotencyRecord
	err := q.QueryRow(ctx, query, userID, key, endpoint).Scan(
		&rec.UserID, &rec.Key, &rec.Endpoint, &rec.RequestHash, &rec.ResponseJSON, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.IdempotencyRecord{}, attendance.ErrIdempotencyNotFound
		}
		return attendance.IdempotencyRecord{}, fmt.Errorf("failed to get idempotency key: %w", err)
	}
	return rec, nil
}

// Reserve implements attendance.IdempotencyRepository. The insert waits on
// the primary key while another transaction holds the same key.
func (r *idempotencyRepository) Reserve(ctx context.Context, rec attendance.IdempotencyRecord) (attendance.IdempotencyRecord, bool, error) {
	q := GetQuerier(ctx, r.db)

	insert := `
		INSERT INTO idempotency_keys (user_id, key, endpoint, request_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key, endpoint) DO NOTHING
	`
	tag, err := q.Exec(ctx, insert, rec.UserID, rec.Key, rec.Endpoint, rec.RequestHash)
	if err != nil {
		return attendance.IdempotencyRecord{}, false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return attendance.IdempotencyRecord{}, false, nil
	}

	var stored attendance.IdempotencyRecord
	err = q.QueryRow(ctx, `
		SELECT user_id, key, endpoint, request_hash, response_json, created_at
		FROM idempotency_keys
		WHERE user_id = $1 AND key = $2 AND endpoint = $3
		FOR UPDATE
	`, rec.UserID, rec.Key, rec.Endpoint).Scan(
		&stored.UserID, &stored.Key, &stored.Endpoint, &stored.RequestHash, &stored.ResponseJSON, &stored.CreatedAt,
	)
	if err != nil {
		return attendance.IdempotencyRecord{}, false, fmt.Errorf("failed to load idempotency key: %w", err)
	}
	if stored.RequestHash != rec.RequestHash {
		return attendance.IdempotencyRecord{}, false, attendance.ErrIdempotencyConflict
	}
	return stored, len(stored.ResponseJSON) > 0, nil
}

// Complete implements attendance.IdempotencyRepository.
func (r *idempotencyRepository) Complete(ctx context.Context, rec attendance.IdempotencyRecord) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE idempotency_keys SET response_json = $4
		WHERE user_id = $1 AND key = $2 AND endpoint = $3 AND request_hash = $5
	`, rec.UserID, rec.Key, rec.Endpoint, string(rec.ResponseJSON), rec.RequestHash)
	if err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrIdempotencyConflict
	}
	return nil
}
