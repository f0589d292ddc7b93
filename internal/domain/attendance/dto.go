package attendance

import (
	"strings"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/validator"
)

// ========================================
// TOGGLE DTOs
// ========================================

// ToggleRequest carries the raw boundary inputs of a check-in/check-out.
// Coordinates stay as text so parsing failures can be reported precisely.
type ToggleRequest struct {
	Action         string
	Latitude       string
	Longitude      string
	LocationNote   string
	ShiftID        *string
	QRToken        *string
	FaceImage      []byte
	IdempotencyKey string
}

type ToggleResponse struct {
	Action         string   `json:"action"`
	RecordToken    string   `json:"record_token"`
	RecordURL      string   `json:"record_url"`
	ShiftID        string   `json:"shift_id"`
	ShiftName      string   `json:"shift_name"`
	WorkDate       string   `json:"work_date"`
	CheckInTime    *string  `json:"check_in_time,omitempty"`
	CheckOutTime   *string  `json:"check_out_time,omitempty"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	SiteName       string   `json:"site_name,omitempty"`
	EventNote      string   `json:"event_note"`
	Note           *string  `json:"note,omitempty"`
	IsLate         bool     `json:"is_late"`
	LeftEarly      bool     `json:"left_early"`
	WrongLocation  bool     `json:"wrong_location"`
}

// ========================================
// MANUAL ENTRY DTOs
// ========================================

type ManualEntryRequest struct {
	EmployeeID string `json:"employee_id"`
	ShiftID    string `json:"shift_id"`
	Note       string `json:"note"`
}

func (r *ManualEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}
	if !validator.IsValidUUID(r.ShiftID) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_id",
			Message: "shift_id must be a valid UUID",
		})
	}
	r.Note = strings.TrimSpace(r.Note)
	if len(r.Note) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "note",
			Message: "note must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// READ DTOs
// ========================================

type AttendanceResponse struct {
	ID             string   `json:"id"`
	Token          string   `json:"token"`
	RecordURL      string   `json:"record_url"`
	EmployeeID     string   `json:"employee_id"`
	EmployeeName   string   `json:"employee_name"`
	EmployeeCode   string   `json:"employee_code"`
	ShiftID        string   `json:"shift_id"`
	ShiftName      string   `json:"shift_name"`
	ShiftStart     string   `json:"shift_start"`
	ShiftEnd       string   `json:"shift_end"`
	WorkDate       string   `json:"work_date"`
	CheckInTime    *string  `json:"check_in_time,omitempty"`
	CheckOutTime   *string  `json:"check_out_time,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	SiteName       *string  `json:"site_name,omitempty"`
	LocationNote   *string  `json:"location_note,omitempty"`
	FaceImageURL   *string  `json:"face_image_url,omitempty"`
	FaceVerified   bool     `json:"face_verified"`
	Method         string   `json:"method"`
	Note           *string  `json:"note,omitempty"`
	IsLate         bool     `json:"is_late"`
	LeftEarly      bool     `json:"left_early"`
	WorkedHours    *float64 `json:"worked_hours,omitempty"`
}

type QRLandingResponse struct {
	ShiftID     string `json:"shift_id"`
	ShiftName   string `json:"shift_name"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	ToggleURL   string `json:"toggle_url"`
	IsActiveNow bool   `json:"is_active_now"`
}

// History status filters
const (
	HistoryStatusLate       = "late"
	HistoryStatusEarly      = "early"
	HistoryStatusOnTime     = "on_time"
	HistoryStatusIncomplete = "incomplete"
)

// Advisory location classification for history rows
const (
	LocationCorrect = "correct"
	LocationWrong   = "wrong"
	LocationUnknown = "unknown"
)

type HistoryFilter struct {
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`
}

func (f *HistoryFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}
	if len(errs) == 0 && f.StartDate != nil && f.EndDate != nil && *f.StartDate != "" && *f.EndDate != "" {
		if _, _, ok := validator.IsValidDateRange(*f.StartDate, *f.EndDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		}
	}

	if f.Status != nil && *f.Status != "" {
		validStatuses := []string{HistoryStatusLate, HistoryStatusEarly, HistoryStatusOnTime, HistoryStatusIncomplete}
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: late, early, on_time, incomplete",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type HistoryRow struct {
	AttendanceResponse
	LocationStatus string `json:"location_status"`
}

type HistoryStats struct {
	TotalDays       int     `json:"total_days"`
	TotalWorkHours  float64 `json:"total_work_hours"`
	AvgWorkHours    float64 `json:"avg_work_hours"`
	TotalLateCount  int     `json:"total_late_count"`
	TotalEarlyCount int     `json:"total_early_count"`
}

type HistoryResponse struct {
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Records   []HistoryRow `json:"records"`
	Stats     HistoryStats `json:"stats"`
}

type AttendanceFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	ShiftID    *string `json:"shift_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Method     *string `json:"method,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}
	if f.ShiftID != nil && !validator.IsValidUUID(*f.ShiftID) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_id",
			Message: "shift_id must be a valid UUID",
		})
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.Method != nil {
		if !validator.IsInSlice(*f.Method, []string{string(MethodAuto), string(MethodManual)}) {
			errs = append(errs, validator.ValidationError{
				Field:   "method",
				Message: "method must be one of: auto, manual",
			})
		}
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
		f.SortOrder = strings.ToLower(f.SortOrder)
	} else {
		f.SortOrder = "desc" // Default descending (newest first)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}
