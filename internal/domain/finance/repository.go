package finance

import (
	"context"
	"time"
)

type FinanceRepository interface {
	// Categories
	CreateCategory(ctx context.Context, c Category) (Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]Category, error)
	DeactivateCategory(ctx context.Context, id string) error

	// Expenses
	CreateExpense(ctx context.Context, e Expense) (Expense, error)
	GetExpense(ctx context.Context, id string) (Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]Expense, int64, error)

	// DecideExpense moves a pending expense to status. ok is false when the
	// expense exists but is no longer pending.
	DecideExpense(ctx context.Context, id string, status ExpenseStatus, approverID string) (e Expense, ok bool, err error)

	// DeletePendingExpense removes the expense only while it is pending.
	DeletePendingExpense(ctx context.Context, id string) (ok bool, err error)

	// Revenue
	CreateRevenue(ctx context.Context, r Revenue) (Revenue, error)
	ListRevenues(ctx context.Context, filter RevenueFilter) ([]Revenue, int64, error)
	DeleteRevenue(ctx context.Context, id string) error

	// Totals aggregates revenue, approved expenses and paid payroll in [from, to]
	Totals(ctx context.Context, from, to time.Time) (Totals, error)
}
