package finance

import (
	"strings"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/validator"
)

// ========== CATEGORY DTOs ==========

type CreateCategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (r *CreateCategoryRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	} else if len(r.Name) > 100 {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name must not exceed 100 characters"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
}

// ========== EXPENSE DTOs ==========

type CreateExpenseRequest struct {
	CategoryID  *string `json:"category_id,omitempty"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	ExpenseDate string  `json:"expense_date"` // YYYY-MM-DD
	Note        *string `json:"note,omitempty"`
}

func (r *CreateExpenseRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.CategoryID != nil && !validator.IsValidUUID(*r.CategoryID) {
		errs = append(errs, validator.ValidationError{Field: "category_id", Message: "category_id must be a valid UUID"})
	}
	r.Description = strings.TrimSpace(r.Description)
	if validator.IsEmpty(r.Description) {
		errs = append(errs, validator.ValidationError{Field: "description", Message: "description is required"})
	} else if len(r.Description) > 255 {
		errs = append(errs, validator.ValidationError{Field: "description", Message: "description must not exceed 255 characters"})
	}
	if amount, ok := validator.IsValidAmount(r.Amount); !ok || amount.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "amount must be a positive number"})
	}
	if _, ok := validator.IsValidDate(r.ExpenseDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "expense_date", Message: "expense_date must be in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ExpenseResponse struct {
	ID           string  `json:"id"`
	CategoryID   *string `json:"category_id,omitempty"`
	CategoryName *string `json:"category_name,omitempty"`
	Description  string  `json:"description"`
	Amount       string  `json:"amount"`
	ExpenseDate  string  `json:"expense_date"`
	Status       string  `json:"status"`
	CreatedBy    *string `json:"created_by,omitempty"`
	ApprovedBy   *string `json:"approved_by,omitempty"`
	Note         *string `json:"note,omitempty"`
}

type ExpenseFilter struct {
	CategoryID *string `json:"category_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ExpenseFilter) Validate() error {
	errs := validatePage(&f.Page, &f.Limit)

	if f.CategoryID != nil && !validator.IsValidUUID(*f.CategoryID) {
		errs = append(errs, validator.ValidationError{Field: "category_id", Message: "category_id must be a valid UUID"})
	}
	if f.Status != nil && !validator.IsInSlice(*f.Status, []string{string(ExpensePending), string(ExpenseApproved), string(ExpenseRejected)}) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "status must be one of: pending, approved, rejected"})
	}
	errs = validateDates(errs, f.StartDate, f.EndDate)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListExpenseResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Showing    string            `json:"showing"`
	Expenses   []ExpenseResponse `json:"expenses"`
}

// ========== REVENUE DTOs ==========

type CreateRevenueRequest struct {
	Source      string  `json:"source"`
	Description *string `json:"description,omitempty"`
	Amount      string  `json:"amount"`
	RevenueDate string  `json:"revenue_date"` // YYYY-MM-DD
	Category    string  `json:"category"`
	Note        *string `json:"note,omitempty"`
}

func (r *CreateRevenueRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Source = strings.TrimSpace(r.Source)
	if validator.IsEmpty(r.Source) {
		errs = append(errs, validator.ValidationError{Field: "source", Message: "source is required"})
	} else if len(r.Source) > 255 {
		errs = append(errs, validator.ValidationError{Field: "source", Message: "source must not exceed 255 characters"})
	}
	if amount, ok := validator.IsValidAmount(r.Amount); !ok || amount.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "amount must be a positive number"})
	}
	if _, ok := validator.IsValidDate(r.RevenueDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "revenue_date", Message: "revenue_date must be in YYYY-MM-DD format"})
	}
	if r.Category == "" {
		r.Category = string(RevenueSales)
	}
	if !validator.IsInSlice(r.Category, RevenueCategoryValues) {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "category must be one of: sales, service, other"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RevenueResponse struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Description *string `json:"description,omitempty"`
	Amount      string  `json:"amount"`
	RevenueDate string  `json:"revenue_date"`
	Category    string  `json:"category"`
	CreatedBy   *string `json:"created_by,omitempty"`
	Note        *string `json:"note,omitempty"`
}

type RevenueFilter struct {
	Category  *string `json:"category,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *RevenueFilter) Validate() error {
	errs := validatePage(&f.Page, &f.Limit)

	if f.Category != nil && !validator.IsInSlice(*f.Category, RevenueCategoryValues) {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "category must be one of: sales, service, other"})
	}
	errs = validateDates(errs, f.StartDate, f.EndDate)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListRevenueResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Showing    string            `json:"showing"`
	Revenues   []RevenueResponse `json:"revenues"`
}

// ========== SUMMARY DTOs ==========

type SummaryRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r *SummaryRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, _, ok := validator.IsValidDateRange(r.StartDate, r.EndDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "start_date and end_date must be YYYY-MM-DD with start_date not after end_date"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SummaryResponse struct {
	StartDate            string `json:"start_date"`
	EndDate              string `json:"end_date"`
	RevenueTotal         string `json:"revenue_total"`
	ApprovedExpenseTotal string `json:"approved_expense_total"`
	PayrollPaidTotal     string `json:"payroll_paid_total"`
	Profit               string `json:"profit"`
}

// ========== HELPERS ==========

func validatePage(page, limit *int) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if *page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive number"})
	}
	if *page == 0 {
		*page = 1
	}
	if *limit < 0 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a positive number"})
	}
	if *limit == 0 {
		*limit = 20
	}
	if *limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 100"})
	}
	return errs
}

func validateDates(errs validator.ValidationErrors, start, end *string) validator.ValidationErrors {
	if start != nil {
		if _, ok := validator.IsValidDate(*start); !ok {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
		}
	}
	if end != nil {
		if _, ok := validator.IsValidDate(*end); !ok {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
		}
	}
	return errs
}
