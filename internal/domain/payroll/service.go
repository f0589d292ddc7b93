package payroll

import "context"

type PayrollService interface {
	// Create opens a summary for a period and fills it from attendance
	Create(ctx context.Context, req CreatePayrollRequest) (PayrollResponse, error)
	Get(ctx context.Context, id string) (PayrollResponse, error)
	List(ctx context.Context, filter PayrollFilter) (ListPayrollResponse, error)
	Update(ctx context.Context, req UpdatePayrollRequest) (PayrollResponse, error)
	Delete(ctx context.Context, id string) error

	// GenerateDetails rebuilds the detail lines from attendance and recalculates
	GenerateDetails(ctx context.Context, id string) (PayrollResponse, error)

	// CalculateSalary recomputes totals over the current detail lines
	CalculateSalary(ctx context.Context, id string) (PayrollResponse, error)

	MarkAbsent(ctx context.Context, req MarkAbsentRequest) (PayrollResponse, error)

	// Status transitions
	Approve(ctx context.Context, id string) (PayrollResponse, error)
	MarkPaid(ctx context.Context, id string) (PayrollResponse, error)
	Cancel(ctx context.Context, id string) (PayrollResponse, error)

	// Payslip renders the summary as a PDF document
	Payslip(ctx context.Context, id string) (filename string, pdf []byte, err error)
}
