package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/employee"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/payroll"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/database"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

var summarySelect = psql.
	Select("p.id", "p.employee_id", "p.start_date", "p.end_date", "p.hourly_rate", "p.total_hours",
		"p.base_pay", "p.bonus", "p.advance", "p.deduction", "p.net_pay", "p.status", "p.notes",
		"p.created_by", "p.approved_by", "p.approved_at", "p.paid_at", "p.created_at", "p.updated_at",
		"TRIM(e.first_name || ' ' || e.last_name)", "e.code").
	From("payroll_summaries p").
	Join("employees e ON e.id = p.employee_id")

func scanSummary(row pgx.Row) (payroll.Summary, error) {
	var s payroll.Summary
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.StartDate, &s.EndDate, &s.HourlyRate, &s.TotalHours,
		&s.BasePay, &s.Bonus, &s.Advance, &s.Deduction, &s.NetPay, &s.Status, &s.Notes,
		&s.CreatedBy, &s.ApprovedBy, &s.ApprovedAt, &s.PaidAt, &s.CreatedAt, &s.UpdatedAt,
		&s.EmployeeName, &s.EmployeeCode,
	)
	return s, err
}

func (r *payrollRepository) selectSummary(ctx context.Context, builder sq.SelectBuilder) (payroll.Summary, error) {
	q := GetQuerier(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return payroll.Summary{}, fmt.Errorf("failed to build payroll query: %w", err)
	}
	s, err := scanSummary(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Summary{}, payroll.ErrPayrollNotFound
		}
		return payroll.Summary{}, fmt.Errorf("failed to get payroll: %w", err)
	}
	return s, nil
}

// ========== SUMMARIES ==========

// Create implements payroll.PayrollRepository.
func (r *payrollRepository) Create(ctx context.Context, s payroll.Summary) (payroll.Summary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_summaries (
			employee_id, start_date, end_date, hourly_rate, total_hours, base_pay,
			bonus, advance, deduction, net_pay, status, notes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	var id string
	err := q.QueryRow(ctx, query,
		s.EmployeeID, s.StartDate, s.EndDate, s.HourlyRate, s.TotalHours, s.BasePay,
		s.Bonus, s.Advance, s.Deduction, s.NetPay, s.Status, s.Notes, s.CreatedBy,
	).Scan(&id)
	if err != nil {
		if uniqueViolation(err) == "uk_payroll_period" {
			return payroll.Summary{}, payroll.ErrPayrollExists
		}
		if foreignKeyViolation(err) {
			return payroll.Summary{}, employee.ErrEmployeeNotFound
		}
		return payroll.Summary{}, fmt.Errorf("failed to create payroll: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.Summary, error) {
	if !validID(id) {
		return payroll.Summary{}, payroll.ErrPayrollNotFound
	}
	return r.selectSummary(ctx, summarySelect.Where(sq.Eq{"p.id": id}))
}

// GetForUpdate implements payroll.PayrollRepository.
func (r *payrollRepository) GetForUpdate(ctx context.Context, id string) (payroll.Summary, error) {
	if !validID(id) {
		return payroll.Summary{}, payroll.ErrPayrollNotFound
	}
	return r.selectSummary(ctx, summarySelect.Where(sq.Eq{"p.id": id}).Suffix("FOR UPDATE OF p"))
}

// UpdateAmounts implements payroll.PayrollRepository.
func (r *payrollRepository) UpdateAmounts(ctx context.Context, s payroll.Summary) (payroll.Summary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_summaries
		SET hourly_rate = $1, total_hours = $2, base_pay = $3, bonus = $4, advance = $5,
			deduction = $6, net_pay = $7, notes = $8, status = $9, updated_at = NOW()
		WHERE id = $10
	`
	tag, err := q.Exec(ctx, query,
		s.HourlyRate, s.TotalHours, s.BasePay, s.Bonus, s.Advance,
		s.Deduction, s.NetPay, s.Notes, s.Status, s.ID,
	)
	if err != nil {
		return payroll.Summary{}, fmt.Errorf("failed to update payroll amounts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.Summary{}, payroll.ErrPayrollNotFound
	}
	return r.GetByID(ctx, s.ID)
}

// TransitionStatus implements payroll.PayrollRepository as a compare-and-set
// on the current status.
func (r *payrollRepository) TransitionStatus(ctx context.Context, id string, from []payroll.Status, to payroll.Status, actor *string, at time.Time) (payroll.Summary, bool, error) {
	if !validID(id) {
		return payroll.Summary{}, false, payroll.ErrPayrollNotFound
	}
	q := GetQuerier(ctx, r.db)

	fromValues := make([]string, len(from))
	for i, s := range from {
		fromValues[i] = string(s)
	}

	builder := psql.Update("payroll_summaries").
		Set("status", string(to)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": fromValues}).
		Suffix("RETURNING id")
	switch to {
	case payroll.StatusApproved:
		builder = builder.Set("approved_by", actor).Set("approved_at", at)
	case payroll.StatusPaid:
		builder = builder.Set("paid_at", at)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return payroll.Summary{}, false, fmt.Errorf("failed to build payroll transition: %w", err)
	}

	var updatedID string
	if err := q.QueryRow(ctx, query, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Summary{}, false, nil
		}
		return payroll.Summary{}, false, fmt.Errorf("failed to transition payroll status: %w", err)
	}

	s, err := r.GetByID(ctx, updatedID)
	if err != nil {
		return payroll.Summary{}, false, err
	}
	return s, true, nil
}

// Delete implements payroll.PayrollRepository. Details go with the summary.
func (r *payrollRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return payroll.ErrPayrollNotFound
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM payroll_summaries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payroll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollNotFound
	}
	return nil
}

// List implements payroll.PayrollRepository.
func (r *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.Summary, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := sq.And{}
	if filter.EmployeeID != nil {
		where = append(where, sq.Eq{"p.employee_id": *filter.EmployeeID})
	}
	if filter.Status != nil {
		where = append(where, sq.Eq{"p.status": *filter.Status})
	}
	// Periods overlapping [StartDate, EndDate].
	if filter.StartDate != nil {
		where = append(where, sq.GtOrEq{"p.end_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		where = append(where, sq.LtOrEq{"p.start_date": *filter.EndDate})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("payroll_summaries p").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build payroll count query: %w", err)
	}
	var total int64
	if err := q.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payrolls: %w", err)
	}

	order := "DESC"
	if filter.SortOrder == "asc" {
		order = "ASC"
	}
	query, args, err := summarySelect.
		Where(where).
		OrderBy("p.start_date "+order, "e.code ASC", "p.id ASC").
		Limit(uint64(filter.Limit)).
		Offset(uint64((filter.Page - 1) * filter.Limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build payroll list query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payrolls: %w", err)
	}
	defer rows.Close()

	var summaries []payroll.Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list payrolls: %w", err)
	}
	return summaries, total, nil
}

// ========== DETAILS ==========

// ListDetails implements payroll.PayrollRepository.
func (r *payrollRepository) ListDetails(ctx context.Context, summaryID string) ([]payroll.Detail, error) {
	if !validID(summaryID) {
		return nil, payroll.ErrPayrollNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, summary_id, attendance_id, work_date, check_in, check_out, hours_worked, status, note, created_at
		FROM payroll_details
		WHERE summary_id = $1
		ORDER BY work_date, check_in NULLS LAST, id
	`
	rows, err := q.Query(ctx, query, summaryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll details: %w", err)
	}
	defer rows.Close()

	var details []payroll.Detail
	for rows.Next() {
		var d payroll.Detail
		if err := rows.Scan(&d.ID, &d.SummaryID, &d.AttendanceID, &d.WorkDate, &d.CheckIn, &d.CheckOut,
			&d.HoursWorked, &d.Status, &d.Note, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payroll detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// DeleteDetails implements payroll.PayrollRepository.
func (r *payrollRepository) DeleteDetails(ctx context.Context, summaryID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM payroll_details WHERE summary_id = $1`, summaryID); err != nil {
		return fmt.Errorf("failed to delete payroll details: %w", err)
	}
	return nil
}

// InsertDetails implements payroll.PayrollRepository with one multi-row insert.
func (r *payrollRepository) InsertDetails(ctx context.Context, details []payroll.Detail) error {
	if len(details) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	builder := psql.Insert("payroll_details").
		Columns("summary_id", "attendance_id", "work_date", "check_in", "check_out", "hours_worked", "status", "note")
	for _, d := range details {
		builder = builder.Values(d.SummaryID, d.AttendanceID, d.WorkDate, d.CheckIn, d.CheckOut, d.HoursWorked, string(d.Status), d.Note)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build payroll detail insert: %w", err)
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert payroll details: %w", err)
	}
	return nil
}
