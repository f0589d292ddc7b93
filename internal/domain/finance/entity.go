package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string
	Name        string
	Description *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "pending"
	ExpenseApproved ExpenseStatus = "approved"
	ExpenseRejected ExpenseStatus = "rejected"
)

type Expense struct {
	ID          string
	CategoryID  *string
	Description string
	Amount      decimal.Decimal
	ExpenseDate time.Time
	Status      ExpenseStatus
	CreatedBy   *string
	ApprovedBy  *string
	Note        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined
	CategoryName *string
}

type RevenueCategory string

const (
	RevenueSales   RevenueCategory = "sales"
	RevenueService RevenueCategory = "service"
	RevenueOther   RevenueCategory = "other"
)

var RevenueCategoryValues = []string{string(RevenueSales), string(RevenueService), string(RevenueOther)}

type Revenue struct {
	ID          string
	Source      string
	Description *string
	Amount      decimal.Decimal
	RevenueDate time.Time
	Category    RevenueCategory
	CreatedBy   *string
	Note        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Totals are the period aggregates read from the ledger and paid payroll.
type Totals struct {
	Revenue         decimal.Decimal
	ApprovedExpense decimal.Decimal
	PayrollPaid     decimal.Decimal
}

func (t Totals) Profit() decimal.Decimal {
	return t.Revenue.Sub(t.ApprovedExpense).Sub(t.PayrollPaid)
}
