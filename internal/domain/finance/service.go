package finance

import "context"

type FinanceService interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (CategoryResponse, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]CategoryResponse, error)
	DeactivateCategory(ctx context.Context, id string) error

	CreateExpense(ctx context.Context, req CreateExpenseRequest) (ExpenseResponse, error)
	ApproveExpense(ctx context.Context, id string) (ExpenseResponse, error)
	RejectExpense(ctx context.Context, id string) (ExpenseResponse, error)
	DeleteExpense(ctx context.Context, id string) error
	ListExpenses(ctx context.Context, filter ExpenseFilter) (ListExpenseResponse, error)

	CreateRevenue(ctx context.Context, req CreateRevenueRequest) (RevenueResponse, error)
	ListRevenues(ctx context.Context, filter RevenueFilter) (ListRevenueResponse, error)
	DeleteRevenue(ctx context.Context, id string) error

	// Summary is recomputed from the ledger on every call
	Summary(ctx context.Context, req SummaryRequest) (SummaryResponse, error)
}
