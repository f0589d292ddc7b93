package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/finance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/database"
)

type financeRepository struct {
	db *database.DB
}

func NewFinanceRepository(db *database.DB) finance.FinanceRepository {
	return &financeRepository{db: db}
}

// ========== CATEGORIES ==========

const categoryColumns = `id, name, description, is_active, created_at, updated_at`

func scanCategory(row pgx.Row) (finance.Category, error) {
	var c finance.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *financeRepository) CreateCategory(ctx context.Context, c finance.Category) (finance.Category, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO expense_categories (name, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING ` + categoryColumns

	created, err := scanCategory(q.QueryRow(ctx, query, c.Name, c.Description, c.IsActive))
	if err != nil {
		if uniqueViolation(err) == "uk_expense_categories_name" {
			return finance.Category{}, finance.ErrCategoryNameExists
		}
		return finance.Category{}, fmt.Errorf("failed to create expense category: %w", err)
	}
	return created, nil
}

func (r *financeRepository) GetCategory(ctx context.Context, id string) (finance.Category, error) {
	if !validID(id) {
		return finance.Category{}, finance.ErrCategoryNotFound
	}
	q := GetQuerier(ctx, r.db)

	c, err := scanCategory(q.QueryRow(ctx, `SELECT `+categoryColumns+` FROM expense_categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return finance.Category{}, finance.ErrCategoryNotFound
		}
		return finance.Category{}, fmt.Errorf("failed to get expense category: %w", err)
	}
	return c, nil
}

func (r *financeRepository) ListCategories(ctx context.Context, activeOnly bool) ([]finance.Category, error) {
	q := GetQuerier(ctx, r.db)

	builder := psql.Select(categoryColumns).From("expense_categories").OrderBy("name")
	if activeOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build category query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense categories: %w", err)
	}
	defer rows.Close()

	var categories []finance.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *financeRepository) DeactivateCategory(ctx context.Context, id string) error {
	if !validID(id) {
		return finance.ErrCategoryNotFound
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE expense_categories SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate expense category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return finance.ErrCategoryNotFound
	}
	return nil
}

// ========== EXPENSES ==========

var expenseSelect = psql.
	Select("x.id", "x.category_id", "x.description", "x.amount", "x.expense_date", "x.status",
		"x.created_by", "x.approved_by", "x.note", "x.created_at", "x.updated_at", "c.name").
	From("expenses x").
	LeftJoin("expense_categories c ON c.id = x.category_id")

func scanExpense(row pgx.Row) (finance.Expense, error) {
	var e finance.Expense
	err := row.Scan(&e.ID, &e.CategoryID, &e.Description, &e.Amount, &e.ExpenseDate, &e.Status,
		&e.CreatedBy, &e.ApprovedBy, &e.Note, &e.CreatedAt, &e.UpdatedAt, &e.CategoryName)
	return e, err
}

func (r *financeRepository) CreateExpense(ctx context.Context, e finance.Expense) (finance.Expense, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO expenses (category_id, description, amount, expense_date, status, created_by, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id string
	err := q.QueryRow(ctx, query, e.CategoryID, e.Description, e.Amount, e.ExpenseDate, e.Status, e.CreatedBy, e.Note).Scan(&id)
	if err != nil {
		if foreignKeyViolation(err) {
			return finance.Expense{}, finance.ErrCategoryNotFound
		}
		return finance.Expense{}, fmt.Errorf("failed to create expense: %w", err)
	}
	return r.GetExpense(ctx, id)
}

func (r *financeRepository) GetExpense(ctx context.Context, id string) (finance.Expense, error) {
	if !validID(id) {
		return finance.Expense{}, finance.ErrExpenseNotFound
	}
	q := GetQuerier(ctx, r.db)

	query, args, err := expenseSelect.Where(sq.Eq{"x.id": id}).ToSql()
	if err != nil {
		return finance.Expense{}, fmt.Errorf("failed to build expense query: %w", err)
	}
	e, err := scanExpense(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return finance.Expense{}, finance.ErrExpenseNotFound
		}
		return finance.Expense{}, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

func (r *financeRepository) ListExpenses(ctx context.Context, filter finance.ExpenseFilter) ([]finance.Expense, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := sq.And{}
	if filter.CategoryID != nil {
		where = append(where, sq.Eq{"x.category_id": *filter.CategoryID})
	}
	if filter.Status != nil {
		where = append(where, sq.Eq{"x.status": *filter.Status})
	}
	if filter.StartDate != nil {
		where = append(where, sq.GtOrEq{"x.expense_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		where = append(where, sq.LtOrEq{"x.expense_date": *filter.EndDate})
	}

	total, err := r.count(ctx, "expenses x", where)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := expenseSelect.
		Where(where).
		OrderBy("x.expense_date DESC", "x.created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64((filter.Page - 1) * filter.Limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build expense list query: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []finance.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, total, nil
}

func (r *financeRepository) DecideExpense(ctx context.Context, id string, status finance.ExpenseStatus, approverID string) (finance.Expense, bool, error) {
	if !validID(id) {
		return finance.Expense{}, false, finance.ErrExpenseNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE expenses
		SET status = $1, approved_by = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'pending'
	`
	tag, err := q.Exec(ctx, query, status, approverID, id)
	if err != nil {
		return finance.Expense{}, false, fmt.Errorf("failed to decide expense: %w", err)
	}

	e, err := r.GetExpense(ctx, id)
	if err != nil {
		return finance.Expense{}, false, err
	}
	return e, tag.RowsAffected() == 1, nil
}

func (r *financeRepository) DeletePendingExpense(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, finance.ErrExpenseNotFound
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete expense: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ========== REVENUE ==========

const revenueColumns = `id, source, description, amount, revenue_date, category, created_by, note, created_at, updated_at`

func scanRevenue(row pgx.Row) (finance.Revenue, error) {
	var rv finance.Revenue
	err := row.Scan(&rv.ID, &rv.Source, &rv.Description, &rv.Amount, &rv.RevenueDate, &rv.Category,
		&rv.CreatedBy, &rv.Note, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

func (r *financeRepository) CreateRevenue(ctx context.Context, rv finance.Revenue) (finance.Revenue, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO revenues (source, description, amount, revenue_date, category, created_by, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + revenueColumns

	created, err := scanRevenue(q.QueryRow(ctx, query, rv.Source, rv.Description, rv.Amount, rv.RevenueDate, rv.Category, rv.CreatedBy, rv.Note))
	if err != nil {
		return finance.Revenue{}, fmt.Errorf("failed to create revenue: %w", err)
	}
	return created, nil
}

func (r *financeRepository) ListRevenues(ctx context.Context, filter finance.RevenueFilter) ([]finance.Revenue, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := sq.And{}
	if filter.Category != nil {
		where = append(where, sq.Eq{"category": *filter.Category})
	}
	if filter.StartDate != nil {
		where = append(where, sq.GtOrEq{"revenue_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		where = append(where, sq.LtOrEq{"revenue_date": *filter.EndDate})
	}

	total, err := r.count(ctx, "revenues", where)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := psql.Select(revenueColumns).
		From("revenues").
		Where(where).
		OrderBy("revenue_date DESC", "created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64((filter.Page - 1) * filter.Limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build revenue list query: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list revenues: %w", err)
	}
	defer rows.Close()

	var revenues []finance.Revenue
	for rows.Next() {
		rv, err := scanRevenue(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan revenue: %w", err)
		}
		revenues = append(revenues, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list revenues: %w", err)
	}
	return revenues, total, nil
}

func (r *financeRepository) DeleteRevenue(ctx context.Context, id string) error {
	if !validID(id) {
		return finance.ErrRevenueNotFound
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM revenues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete revenue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return finance.ErrRevenueNotFound
	}
	return nil
}

// ========== SUMMARY ==========

// Totals sums revenue, approved expenses and payroll paid for periods ending in [from, to].
func (r *financeRepository) Totals(ctx context.Context, from, to time.Time) (finance.Totals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			(SELECT COALESCE(SUM(amount), 0) FROM revenues
			  WHERE revenue_date BETWEEN $1 AND $2),
			(SELECT COALESCE(SUM(amount), 0) FROM expenses
			  WHERE status = 'approved' AND expense_date BETWEEN $1 AND $2),
			(SELECT COALESCE(SUM(net_pay), 0) FROM payroll_summaries
			  WHERE status = 'paid' AND end_date BETWEEN $1 AND $2)
	`
	var t finance.Totals
	err := q.QueryRow(ctx, query, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Scan(&t.Revenue, &t.ApprovedExpense, &t.PayrollPaid)
	if err != nil {
		return finance.Totals{}, fmt.Errorf("failed to compute finance totals: %w", err)
	}
	return t, nil
}

func (r *financeRepository) count(ctx context.Context, from string, where sq.Sqlizer) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query, args, err := psql.Select("COUNT(*)").From(from).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := q.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", from, err)
	}
	return total, nil
}
