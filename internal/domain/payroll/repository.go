package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll summaries and details.
type PayrollRepository interface {
	// Create inserts a summary; a duplicate (employee, start, end) gives ErrPayrollExists
	Create(ctx context.Context, s Summary) (Summary, error)
	GetByID(ctx context.Context, id string) (Summary, error)

	// GetForUpdate locks the summary row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id string) (Summary, error)

	// UpdateAmounts writes rate, totals, adjustments, notes and status
	UpdateAmounts(ctx context.Context, s Summary) (Summary, error)

	// TransitionStatus moves the summary to `to` only if its current status is
	// one of `from`. ok is false when no row matched.
	TransitionStatus(ctx context.Context, id string, from []Status, to Status, actor *string, at time.Time) (s Summary, ok bool, err error)

	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter PayrollFilter) ([]Summary, int64, error)

	// Details
	ListDetails(ctx context.Context, summaryID string) ([]Detail, error)
	DeleteDetails(ctx context.Context, summaryID string) error
	InsertDetails(ctx context.Context, details []Detail) error
}
