package finance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/finance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/jwt"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/validator"
)

type FinanceServiceImpl struct {
	finance.FinanceRepository
	location *time.Location
}

func NewFinanceService(financeRepo finance.FinanceRepository, location *time.Location) finance.FinanceService {
	if location == nil {
		location = time.UTC
	}
	return &FinanceServiceImpl{
		FinanceRepository: financeRepo,
		location:          location,
	}
}

func (s *FinanceServiceImpl) parseDate(value string) time.Time {
	t, _ := time.ParseInLocation("2006-01-02", value, s.location)
	return t
}

func showing(page, limit int, total int64) (int, string) {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	if total == 0 {
		return totalPages, "0 of 0"
	}
	return totalPages, fmt.Sprintf("%d-%d of %d", (page-1)*limit+1, min(page*limit, int(total)), total)
}

// ========== CATEGORIES ==========

func (s *FinanceServiceImpl) CreateCategory(ctx context.Context, req finance.CreateCategoryRequest) (finance.CategoryResponse, error) {
	if err := req.Validate(); err != nil {
		return finance.CategoryResponse{}, err
	}

	created, err := s.FinanceRepository.CreateCategory(ctx, finance.Category{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	})
	if err != nil {
		return finance.CategoryResponse{}, err
	}
	return mapCategory(created), nil
}

func (s *FinanceServiceImpl) ListCategories(ctx context.Context, activeOnly bool) ([]finance.CategoryResponse, error) {
	categories, err := s.FinanceRepository.ListCategories(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	out := make([]finance.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, mapCategory(c))
	}
	return out, nil
}

func (s *FinanceServiceImpl) DeactivateCategory(ctx context.Context, id string) error {
	return s.FinanceRepository.DeactivateCategory(ctx, id)
}

// ========== EXPENSES ==========

func (s *FinanceServiceImpl) CreateExpense(ctx context.Context, req finance.CreateExpenseRequest) (finance.ExpenseResponse, error) {
	if err := req.Validate(); err != nil {
		return finance.ExpenseResponse{}, err
	}
	principal, err := jwt.PrincipalFromContext(ctx)
	if err != nil {
		return finance.ExpenseResponse{}, err
	}

	if req.CategoryID != nil {
		category, err := s.FinanceRepository.GetCategory(ctx, *req.CategoryID)
		if err != nil {
			return finance.ExpenseResponse{}, err
		}
		if !category.IsActive {
			return finance.ExpenseResponse{}, finance.ErrCategoryInactive
		}
	}

	amount, _ := validator.IsValidAmount(req.Amount)
	created, err := s.FinanceRepository.CreateExpense(ctx, finance.Expense{
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Amount:      amount,
		ExpenseDate: s.parseDate(req.ExpenseDate),
		Status:      finance.ExpensePending,
		CreatedBy:   &principal.UserID,
		Note:        req.Note,
	})
	if err != nil {
		return finance.ExpenseResponse{}, err
	}
	return mapExpense(created), nil
}

func (s *FinanceServiceImpl) ApproveExpense(ctx context.Context, id string) (finance.ExpenseResponse, error) {
	return s.decideExpense(ctx, id, finance.ExpenseApproved)
}

func (s *FinanceServiceImpl) RejectExpense(ctx context.Context, id string) (finance.ExpenseResponse, error) {
	return s.decideExpense(ctx, id, finance.ExpenseRejected)
}

func (s *FinanceServiceImpl) decideExpense(ctx context.Context, id string, status finance.ExpenseStatus) (finance.ExpenseResponse, error) {
	principal, err := jwt.PrincipalFromContext(ctx)
	if err != nil {
		return finance.ExpenseResponse{}, err
	}

	expense, ok, err := s.FinanceRepository.DecideExpense(ctx, id, status, principal.UserID)
	if err != nil {
		return finance.ExpenseResponse{}, err
	}
	if !ok {
		return finance.ExpenseResponse{}, finance.ErrExpenseNotPending
	}
	return mapExpense(expense), nil
}

func (s *FinanceServiceImpl) DeleteExpense(ctx context.Context, id string) error {
	ok, err := s.FinanceRepository.DeletePendingExpense(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.FinanceRepository.GetExpense(ctx, id); err != nil {
			return err
		}
		return finance.ErrExpenseNotPending
	}
	return nil
}

func (s *FinanceServiceImpl) ListExpenses(ctx context.Context, filter finance.ExpenseFilter) (finance.ListExpenseResponse, error) {
	if err := filter.Validate(); err != nil {
		return finance.ListExpenseResponse{}, err
	}

	expenses, total, err := s.FinanceRepository.ListExpenses(ctx, filter)
	if err != nil {
		return finance.ListExpenseResponse{}, fmt.Errorf("failed to list expenses: %w", err)
	}

	responses := make([]finance.ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		responses = append(responses, mapExpense(e))
	}
	totalPages, show := showing(filter.Page, filter.Limit, total)

	return finance.ListExpenseResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    show,
		Expenses:   responses,
	}, nil
}

// ========== REVENUE ==========

func (s *FinanceServiceImpl) CreateRevenue(ctx context.Context, req finance.CreateRevenueRequest) (finance.RevenueResponse, error) {
	if err := req.Validate(); err != nil {
		return finance.RevenueResponse{}, err
	}
	principal, err := jwt.PrincipalFromContext(ctx)
	if err != nil {
		return finance.RevenueResponse{}, err
	}

	amount, _ := validator.IsValidAmount(req.Amount)
	created, err := s.FinanceRepository.CreateRevenue(ctx, finance.Revenue{
		Source:      req.Source,
		Description: req.Description,
		Amount:      amount,
		RevenueDate: s.parseDate(req.RevenueDate),
		Category:    finance.RevenueCategory(req.Category),
		CreatedBy:   &principal.UserID,
		Note:        req.Note,
	})
	if err != nil {
		return finance.RevenueResponse{}, err
	}
	return mapRevenue(created), nil
}

func (s *FinanceServiceImpl) ListRevenues(ctx context.Context, filter finance.RevenueFilter) (finance.ListRevenueResponse, error) {
	if err := filter.Validate(); err != nil {
		return finance.ListRevenueResponse{}, err
	}

	revenues, total, err := s.FinanceRepository.ListRevenues(ctx, filter)
	if err != nil {
		return finance.ListRevenueResponse{}, fmt.Errorf("failed to list revenues: %w", err)
	}

	responses := make([]finance.RevenueResponse, 0, len(revenues))
	for _, r := range revenues {
		responses = append(responses, mapRevenue(r))
	}
	totalPages, show := showing(filter.Page, filter.Limit, total)

	return finance.ListRevenueResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    show,
		Revenues:   responses,
	}, nil
}

func (s *FinanceServiceImpl) DeleteRevenue(ctx context.Context, id string) error {
	return s.FinanceRepository.DeleteRevenue(ctx, id)
}

// ========== SUMMARY ==========

func (s *FinanceServiceImpl) Summary(ctx context.Context, req finance.SummaryRequest) (finance.SummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return finance.SummaryResponse{}, err
	}

	totals, err := s.FinanceRepository.Totals(ctx, s.parseDate(req.StartDate), s.parseDate(req.EndDate))
	if err != nil {
		return finance.SummaryResponse{}, fmt.Errorf("failed to compute finance summary: %w", err)
	}

	return finance.SummaryResponse{
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RevenueTotal:         totals.Revenue.StringFixed(2),
		ApprovedExpenseTotal: totals.ApprovedExpense.StringFixed(2),
		PayrollPaidTotal:     totals.PayrollPaid.StringFixed(2),
		Profit:               totals.Profit().StringFixed(2),
	}, nil
}

// ========== MAPPERS ==========

func mapCategory(c finance.Category) finance.CategoryResponse {
	return finance.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
	}
}

func mapExpense(e finance.Expense) finance.ExpenseResponse {
	return finance.ExpenseResponse{
		ID:           e.ID,
		CategoryID:   e.CategoryID,
		CategoryName: e.CategoryName,
		Description:  e.Description,
		Amount:       e.Amount.StringFixed(2),
		ExpenseDate:  e.ExpenseDate.Format("2006-01-02"),
		Status:       string(e.Status),
		CreatedBy:    e.CreatedBy,
		ApprovedBy:   e.ApprovedBy,
		Note:         e.Note,
	}
}

func mapRevenue(r finance.Revenue) finance.RevenueResponse {
	return finance.RevenueResponse{
		ID:          r.ID,
		Source:      r.Source,
		Description: r.Description,
		Amount:      r.Amount.StringFixed(2),
		RevenueDate: r.RevenueDate.Format("2006-01-02"),
		Category:    string(r.Category),
		CreatedBy:   r.CreatedBy,
		Note:        r.Note,
	}
}
