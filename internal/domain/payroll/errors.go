package payroll

import "errors"

var (
	ErrPayrollNotFound         = errors.New("payroll not found")
	ErrPayrollExists           = errors.New("payroll already exists for this employee and period")
	ErrLockedPayroll           = errors.New("payroll is approved or paid and cannot be changed")
	ErrInvalidStatusTransition = errors.New("invalid payroll status transition")
	ErrDateOutsidePeriod       = errors.New("date is outside the payroll period")
)
