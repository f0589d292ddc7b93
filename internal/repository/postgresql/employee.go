package postgresql

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/employee"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `id, code, first_name, last_name, status, hourly_rate, created_at, updated_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(&e.ID, &e.Code, &e.FirstName, &e.LastName, &e.Status, &e.HourlyRate, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *employeeRepositoryImpl) getOne(ctx context.Context, column, value string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanEmployee(q.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE `+column+` = $1`, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by %s: %w", column, err)
	}
	return e, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	if !validID(id) {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return r.getOne(ctx, "id", id)
}

// GetByCode implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByCode(ctx context.Context, code string) (employee.Employee, error) {
	return r.getOne(ctx, "code", code)
}

// Create implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (code, first_name, last_name, status, hourly_rate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + employeeColumns

	created, err := scanEmployee(q.QueryRow(ctx, query,
		newEmployee.Code, newEmployee.FirstName, newEmployee.LastName, newEmployee.Status, newEmployee.HourlyRate,
	))
	if err != nil {
		if uniqueViolation(err) == "uk_employees_code" {
			return employee.Employee{}, employee.ErrEmployeeCodeExists
		}
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return created, nil
}

// Update implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Update(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET first_name = $1, last_name = $2, status = $3, hourly_rate = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING ` + employeeColumns

	updated, err := scanEmployee(q.QueryRow(ctx, query, e.FirstName, e.LastName, e.Status, e.HourlyRate, e.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to update employee: %w", err)
	}
	return updated, nil
}

// List implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	builder := psql.Select(employeeColumns).From("employees").OrderBy("code ASC")
	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + *filter.Search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"code": pattern},
			sq.Expr("(first_name || ' ' || last_name) ILIKE ?", pattern),
		})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build employee list query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// NextCode implements employee.EmployeeRepository. Codes are DC followed by six digits.
func (r *employeeRepositoryImpl) NextCode(ctx context.Context) (string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(MAX(CAST(SUBSTRING(code FROM 3) AS INTEGER)), 0) + 1
		FROM employees
		WHERE code ~ '^DC[0-9]{6}$'
	`
	var next int
	if err := q.QueryRow(ctx, query).Scan(&next); err != nil {
		return "", fmt.Errorf("failed to compute next employee code: %w", err)
	}
	return fmt.Sprintf("DC%06d", next), nil
}

// ========== FACE PROFILES ==========

type faceProfileRepositoryImpl struct {
	db *database.DB
}

func NewFaceProfileRepository(db *database.DB) employee.FaceProfileRepository {
	return &faceProfileRepositoryImpl{db: db}
}

// Create implements employee.FaceProfileRepository.
func (r *faceProfileRepositoryImpl) Create(ctx context.Context, profile employee.FaceProfile) (employee.FaceProfile, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO face_profiles (employee_id, embedding, image_path)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query, profile.EmployeeID, profile.Embedding, profile.ImagePath).Scan(&profile.ID, &profile.CreatedAt)
	if err != nil {
		if foreignKeyViolation(err) {
			return employee.FaceProfile{}, employee.ErrEmployeeNotFound
		}
		return employee.FaceProfile{}, fmt.Errorf("failed to create face profile: %w", err)
	}
	return profile, nil
}

// ListByEmployee implements employee.FaceProfileRepository.
func (r *faceProfileRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]employee.FaceProfile, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, embedding, image_path, created_at
		FROM face_profiles
		WHERE employee_id = $1
		ORDER BY created_at, id
	`
	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list face profiles: %w", err)
	}
	defer rows.Close()

	var profiles []employee.FaceProfile
	for rows.Next() {
		var p employee.FaceProfile
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.Embedding, &p.ImagePath, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan face profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// DeleteByEmployee implements employee.FaceProfileRepository. It returns the
// image paths of the removed profiles.
func (r *faceProfileRepositoryImpl) DeleteByEmployee(ctx context.Context, employeeID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `DELETE FROM face_profiles WHERE employee_id = $1 RETURNING image_path`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete face profiles: %w", err)
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to delete face profiles: %w", err)
	}
	return paths, nil
}

// CountByEmployee implements employee.FaceProfileRepository.
func (r *faceProfileRepositoryImpl) CountByEmployee(ctx context.Context, employeeID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM face_profiles WHERE employee_id = $1`, employeeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count face profiles: %w", err)
	}
	return count, nil
}
