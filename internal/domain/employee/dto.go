package employee

import (
	"strings"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	Code       string `json:"code,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	HourlyRate string `json:"hourly_rate"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)

	if r.Code != "" && !validator.IsValidEmployeeCode(r.Code) {
		errs = append(errs, validator.ValidationError{
			Field:   "code",
			Message: "code must be DC followed by 6 digits",
		})
	}
	if validator.IsEmpty(r.FirstName) {
		errs = append(errs, validator.ValidationError{
			Field:   "first_name",
			Message: "first_name is required",
		})
	}
	if len(r.FirstName) > 100 || len(r.LastName) > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "names must not exceed 100 characters",
		})
	}
	if _, ok := validator.IsValidAmount(r.HourlyRate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "hourly_rate",
			Message: "hourly_rate must be a non-negative amount",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateEmployeeRequest struct {
	ID         string  `json:"-"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Status     *string `json:"status,omitempty"`
	HourlyRate *string `json:"hourly_rate,omitempty"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if r.FirstName != nil && validator.IsEmpty(*r.FirstName) {
		errs = append(errs, validator.ValidationError{
			Field:   "first_name",
			Message: "first_name must not be empty",
		})
	}
	if r.Status != nil && !validator.IsInSlice(*r.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: active, inactive, on_hold",
		})
	}
	if r.HourlyRate != nil {
		if _, ok := validator.IsValidAmount(*r.HourlyRate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "hourly_rate",
				Message: "hourly_rate must be a non-negative amount",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeFilter struct {
	Search *string
	Status *Status
}

type EmployeeResponse struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	FullName   string `json:"full_name"`
	Status     string `json:"status"`
	HourlyRate string `json:"hourly_rate"`
	FaceCount  *int   `json:"face_count,omitempty"`
}

type EnrollFaceRequest struct {
	EmployeeID string
	Image      []byte
	Mode       string
	Confirm    bool
}

func (r *EnrollFaceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if len(r.Image) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "image",
			Message: "image is required",
		})
	}
	if r.Mode == "" {
		r.Mode = string(EnrollAppend)
	}
	if !validator.IsInSlice(r.Mode, []string{string(EnrollAppend), string(EnrollReplace)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "mode",
			Message: "mode must be one of: append, replace",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type FaceSummaryResponse struct {
	EmployeeID string   `json:"employee_id"`
	Count      int      `json:"count"`
	EnrolledAt []string `json:"enrolled_at"`
}
