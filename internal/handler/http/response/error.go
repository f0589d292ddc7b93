package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/attendance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/auth"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/employee"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/finance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/payroll"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/user"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/facematch"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/geo"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/validator"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/service/file"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrNotAuthenticated),
		errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrNotLinkedToEmployee),
		errors.Is(err, user.ErrAdminAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUsernameExists),
		errors.Is(err, user.ErrEmployeeAlreadyLinked):
		Conflict(w, err.Error())

	// Attendance input
	case errors.Is(err, attendance.ErrMissingGPS),
		errors.Is(err, attendance.ErrInvalidGPS),
		errors.Is(err, attendance.ErrMissingFaceImage),
		errors.Is(err, attendance.ErrNoEnrolledFace),
		errors.Is(err, attendance.ErrInvalidAction),
		errors.Is(err, facematch.ErrNoFaceDetected),
		errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, geo.ErrOutOfRange),
		errors.Is(err, file.ErrInvalidImage):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrFaceMismatch),
		errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, err.Error())
	case errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrNotCheckedInYet),
		errors.Is(err, attendance.ErrIdempotencyConflict):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, facematch.ErrServiceUnavailable):
		slog.Error("face match service unavailable", "error", err)
		ServiceUnavailable(w, "Face verification is temporarily unavailable")

	// Shifts
	case errors.Is(err, shift.ErrNoShiftActive):
		NotFound(w, "No shift active")
	case errors.Is(err, shift.ErrShiftNotFound),
		errors.Is(err, shift.ErrAssignmentNotFound),
		errors.Is(err, shift.ErrExceptionNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, shift.ErrShiftNameExists),
		errors.Is(err, shift.ErrShiftInUse),
		errors.Is(err, shift.ErrAssignmentExists):
		Conflict(w, err.Error())

	// Employees
	case errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, employee.ErrFaceProfileNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, employee.ErrEmployeeCodeExists),
		errors.Is(err, employee.ErrConfirmationRequired):
		Conflict(w, err.Error())
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, err.Error())

	// Payroll
	case errors.Is(err, payroll.ErrPayrollNotFound):
		NotFound(w, "Payroll not found")
	case errors.Is(err, payroll.ErrPayrollExists),
		errors.Is(err, payroll.ErrLockedPayroll),
		errors.Is(err, payroll.ErrInvalidStatusTransition):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrDateOutsidePeriod):
		BadRequest(w, err.Error(), nil)

	// Finance
	case errors.Is(err, finance.ErrCategoryNotFound),
		errors.Is(err, finance.ErrExpenseNotFound),
		errors.Is(err, finance.ErrRevenueNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, finance.ErrCategoryNameExists),
		errors.Is(err, finance.ErrExpenseNotPending):
		Conflict(w, err.Error())
	case errors.Is(err, finance.ErrCategoryInactive):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
