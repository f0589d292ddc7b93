package payroll

import (
	"strings"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// AmountOrZero parses an already validated amount; blank means zero.
func AmountOrZero(s string) decimal.Decimal {
	d, ok := validator.IsValidAmount(s)
	if !ok {
		return decimal.Zero
	}
	return d
}

func validateAmount(errs validator.ValidationErrors, field, value string) validator.ValidationErrors {
	if strings.TrimSpace(value) == "" {
		return errs
	}
	if _, ok := validator.IsValidAmount(value); !ok {
		errs = append(errs, validator.ValidationError{Field: field, Message: field + " must be a non-negative amount"})
	}
	return errs
}

// ========== SUMMARY DTOs ==========

type CreatePayrollRequest struct {
	EmployeeID string  `json:"employee_id"`
	StartDate  string  `json:"start_date"` // YYYY-MM-DD
	EndDate    string  `json:"end_date"`   // YYYY-MM-DD
	HourlyRate string  `json:"hourly_rate,omitempty"`
	Bonus      string  `json:"bonus,omitempty"`
	Advance    string  `json:"advance,omitempty"`
	Deduction  string  `json:"deduction,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

func (r *CreatePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id must be a valid UUID"})
	}
	if _, _, ok := validator.IsValidDateRange(r.StartDate, r.EndDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "start_date and end_date must be YYYY-MM-DD with start_date not after end_date"})
	}
	errs = validateAmount(errs, "hourly_rate", r.HourlyRate)
	errs = validateAmount(errs, "bonus", r.Bonus)
	errs = validateAmount(errs, "advance", r.Advance)
	errs = validateAmount(errs, "deduction", r.Deduction)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdatePayrollRequest struct {
	ID         string  `json:"-"`
	HourlyRate *string `json:"hourly_rate,omitempty"`
	Bonus      *string `json:"bonus,omitempty"`
	Advance    *string `json:"advance,omitempty"`
	Deduction  *string `json:"deduction,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	Status     *string `json:"status,omitempty"` // draft or pending
}

func (r *UpdatePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	for field, value := range map[string]*string{
		"hourly_rate": r.HourlyRate,
		"bonus":       r.Bonus,
		"advance":     r.Advance,
		"deduction":   r.Deduction,
	} {
		if value == nil {
			continue
		}
		if _, ok := validator.IsValidAmount(*value); !ok {
			errs = append(errs, validator.ValidationError{Field: field, Message: field + " must be a non-negative amount"})
		}
	}
	if r.Status != nil && !validator.IsInSlice(*r.Status, []string{string(StatusDraft), string(StatusPending)}) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "status must be one of: draft, pending"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type MarkAbsentRequest struct {
	SummaryID string `json:"-"`
	Date      string `json:"date"` // YYYY-MM-DD
	Note      string `json:"note"`
}

func (r *MarkAbsentRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	r.Note = strings.TrimSpace(r.Note)
	if len(r.Note) > 500 {
		errs = append(errs, validator.ValidationError{Field: "note", Message: "note must not exceed 500 characters"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DetailResponse struct {
	ID           string  `json:"id"`
	AttendanceID *string `json:"attendance_id,omitempty"`
	WorkDate     string  `json:"work_date"`
	CheckInTime  *string `json:"check_in_time,omitempty"`
	CheckOutTime *string `json:"check_out_time,omitempty"`
	HoursWorked  string  `json:"hours_worked"`
	Status       string  `json:"status"`
	Note         *string `json:"note,omitempty"`
}

type PayrollResponse struct {
	ID           string           `json:"id"`
	EmployeeID   string           `json:"employee_id"`
	EmployeeName string           `json:"employee_name"`
	EmployeeCode string           `json:"employee_code"`
	StartDate    string           `json:"start_date"`
	EndDate      string           `json:"end_date"`
	HourlyRate   string           `json:"hourly_rate"`
	TotalHours   string           `json:"total_hours"`
	BasePay      string           `json:"base_pay"`
	Bonus        string           `json:"bonus"`
	Advance      string           `json:"advance"`
	Deduction    string           `json:"deduction"`
	NetPay       string           `json:"net_pay"`
	Status       string           `json:"status"`
	Notes        *string          `json:"notes,omitempty"`
	CreatedBy    *string          `json:"created_by,omitempty"`
	ApprovedBy   *string          `json:"approved_by,omitempty"`
	ApprovedAt   *string          `json:"approved_at,omitempty"`
	PaidAt       *string          `json:"paid_at,omitempty"`
	Details      []DetailResponse `json:"details,omitempty"`
}

type PayrollFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // period ends on or after
	EndDate    *string `json:"end_date,omitempty"`   // period starts on or before

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	SortOrder string `json:"sort_order"`
}

func (f *PayrollFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive number"})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a positive number"})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 100"})
	}

	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id must be a valid UUID"})
	}
	if f.Status != nil && !validator.IsInSlice(*f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "status must be one of: " + strings.Join(StatusValues, ", ")})
	}
	if f.StartDate != nil {
		if _, ok := validator.IsValidDate(*f.StartDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
		}
	}
	if f.EndDate != nil {
		if _, ok := validator.IsValidDate(*f.EndDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
		}
	}

	if f.SortOrder != "" {
		f.SortOrder = strings.ToLower(f.SortOrder)
		if !validator.IsInSlice(f.SortOrder, []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{Field: "sort_order", Message: "sort_order must be one of: asc, desc"})
		}
	} else {
		f.SortOrder = "desc"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListPayrollResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Showing    string            `json:"showing"`
	Payrolls   []PayrollResponse `json:"payrolls"`
}
