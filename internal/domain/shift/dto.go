package shift

import (
	"strings"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/validator"
)

// ========================================
// SHIFT DTOs
// ========================================

type CreateShiftRequest struct {
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (r *CreateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	errs = append(errs, validateWindow(r.StartTime, r.EndTime)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateShiftRequest struct {
	ID           string  `json:"-"`
	Name         *string `json:"name"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	RegenerateQR bool    `json:"regenerate_qr"`
}

func (r *UpdateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "id is required"})
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name cannot be empty"})
	}
	if (r.StartTime == nil) != (r.EndTime == nil) {
		errs = append(errs, validator.ValidationError{Field: "start_time", Message: "start_time and end_time must be updated together"})
	} else if r.StartTime != nil {
		errs = append(errs, validateWindow(*r.StartTime, *r.EndTime)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ShiftResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	QRToken    string `json:"qr_token"`
	CheckInURL string `json:"check_in_url"`
}

// ========================================
// WEEKLY ASSIGNMENT DTOs
// ========================================

type CreateAssignmentRequest struct {
	EmployeeID string `json:"employee_id"`
	ShiftID    string `json:"shift_id"`
	Weekday    *int   `json:"weekday"`
}

func (r *CreateAssignmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id must be a valid UUID"})
	}
	if !validator.IsValidUUID(r.ShiftID) {
		errs = append(errs, validator.ValidationError{Field: "shift_id", Message: "shift_id must be a valid UUID"})
	}
	if r.Weekday == nil || !Weekday(*r.Weekday).Valid() {
		errs = append(errs, validator.ValidationError{Field: "weekday", Message: "weekday must be between 0 (Monday) and 6 (Sunday)"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AssignmentFilter struct {
	EmployeeID *string
	ShiftID    *string
	Weekday    *Weekday
}

func (f AssignmentFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id must be a valid UUID"})
	}
	if f.ShiftID != nil && !validator.IsValidUUID(*f.ShiftID) {
		errs = append(errs, validator.ValidationError{Field: "shift_id", Message: "shift_id must be a valid UUID"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AssignmentResponse struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	ShiftID      string `json:"shift_id"`
	ShiftName    string `json:"shift_name"`
	Weekday      int    `json:"weekday"`
}

// ========================================
// SHIFT EXCEPTION DTOs
// ========================================

type CreateExceptionRequest struct {
	EmployeeID string  `json:"employee_id"`
	Type       string  `json:"type"`
	Date       *string `json:"date"`
	Weekday    *int    `json:"weekday"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	IsAdded    bool    `json:"is_added"`
	Reason     string  `json:"reason"`
}

func (r *CreateExceptionRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id must be a valid UUID"})
	}

	switch ExceptionType(r.Type) {
	case ExceptionOnce:
		if r.Date == nil {
			errs = append(errs, validator.ValidationError{Field: "date", Message: "date is required for a once exception"})
		} else if _, ok := validator.IsValidDate(*r.Date); !ok {
			errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
		}
		if r.Weekday != nil {
			errs = append(errs, validator.ValidationError{Field: "weekday", Message: "weekday must be empty for a once exception"})
		}
	case ExceptionPermanent:
		if r.Weekday == nil || !Weekday(*r.Weekday).Valid() {
			errs = append(errs, validator.ValidationError{Field: "weekday", Message: "weekday must be between 0 (Monday) and 6 (Sunday)"})
		}
		if r.Date != nil {
			errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be empty for a permanent exception"})
		}
	default:
		errs = append(errs, validator.ValidationError{Field: "type", Message: "type must be one of: " + strings.Join(ExceptionTypeValues, ", ")})
	}

	errs = append(errs, validateWindow(r.StartTime, r.EndTime)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ExceptionFilter struct {
	EmployeeID *string
	Type       *ExceptionType
}

func (f ExceptionFilter) Validate() error {
	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		return validator.ValidationErrors{{Field: "employee_id", Message: "employee_id must be a valid UUID"}}
	}
	return nil
}

type ExceptionResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Type         string  `json:"type"`
	Date         *string `json:"date,omitempty"`
	Weekday      *int    `json:"weekday,omitempty"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	IsAdded      bool    `json:"is_added"`
	Reason       string  `json:"reason"`
}

func validateWindow(start, end string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	s, err := ParseClock(start)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "start_time", Message: "start_time must be in HH:MM format"})
	}
	e, err2 := ParseClock(end)
	if err2 != nil {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: "end_time must be in HH:MM format"})
	}
	if err == nil && err2 == nil && s >= e {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: "end_time must be after start_time"})
	}
	return errs
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}
