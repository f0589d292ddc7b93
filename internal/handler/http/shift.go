package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/handler/http/response"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/validator"
)

type ShiftHandler interface {
	Current(w http.ResponseWriter, r *http.Request)
	Schedule(w http.ResponseWriter, r *http.Request)

	// Shift definitions
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	// Weekly assignments
	CreateAssignment(w http.ResponseWriter, r *http.Request)
	ListAssignments(w http.ResponseWriter, r *http.Request)
	DeleteAssignment(w http.ResponseWriter, r *http.Request)

	// Exceptions
	CreateException(w http.ResponseWriter, r *http.Request)
	ListExceptions(w http.ResponseWriter, r *http.Request)
	DeleteException(w http.ResponseWriter, r *http.Request)
}

type shiftHandlerImpl struct {
	shiftService shift.ShiftService
	now          func() time.Time
}

func NewShiftHandler(shiftService shift.ShiftService) ShiftHandler {
	return &shiftHandlerImpl{
		shiftService: shiftService,
		now:          time.Now,
	}
}

// Current implements ShiftHandler.
func (h *shiftHandlerImpl) Current(w http.ResponseWriter, r *http.Request) {
	result, err := h.shiftService.ActiveShift(r.Context(), h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Schedule implements ShiftHandler.
func (h *shiftHandlerImpl) Schedule(w http.ResponseWriter, r *http.Request) {
	date := h.now()
	if value := r.URL.Query().Get("date"); value != "" {
		parsed, ok := validator.IsValidDate(value)
		if !ok {
			response.HandleError(w, validator.ValidationErrors{{Field: "date", Message: "date must be in YYYY-MM-DD format"}})
			return
		}
		// Noon keeps the calendar day under any zone offset.
		date = parsed.Add(12 * time.Hour)
	}

	result, err := h.shiftService.WeekSchedule(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Create implements ShiftHandler.
func (h *shiftHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req shift.CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode shift", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.shiftService.CreateShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Shift created", result)
}

// List implements ShiftHandler.
func (h *shiftHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.shiftService.ListShifts(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Get implements ShiftHandler.
func (h *shiftHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.shiftService.GetShift(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Update implements ShiftHandler.
func (h *shiftHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req shift.UpdateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode shift update", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.shiftService.UpdateShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift updated", result)
}

// Delete implements ShiftHandler.
func (h *shiftHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.shiftService.DeleteShift(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift deleted", nil)
}

// CreateAssignment implements ShiftHandler.
func (h *shiftHandlerImpl) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req shift.CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode assignment", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.shiftService.CreateAssignment(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Assignment created", result)
}

// ListAssignments implements ShiftHandler.
func (h *shiftHandlerImpl) ListAssignments(w http.ResponseWriter, r *http.Request) {
	filter := shift.AssignmentFilter{
		EmployeeID: optionalQuery(r, "employee_id"),
		ShiftID:    optionalQuery(r, "shift_id"),
	}
	if value := r.URL.Query().Get("weekday"); value != "" {
		day, err := strconv.Atoi(value)
		if err != nil || !shift.Weekday(day).Valid() {
			response.HandleError(w, validator.ValidationErrors{{Field: "weekday", Message: "weekday must be between 0 (Monday) and 6 (Sunday)"}})
			return
		}
		weekday := shift.Weekday(day)
		filter.Weekday = &weekday
	}

	result, err := h.shiftService.ListAssignments(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DeleteAssignment implements ShiftHandler.
func (h *shiftHandlerImpl) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	if err := h.shiftService.DeleteAssignment(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Assignment deleted", nil)
}

// CreateException implements ShiftHandler.
func (h *shiftHandlerImpl) CreateException(w http.ResponseWriter, r *http.Request) {
	var req shift.CreateExceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode exception", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.shiftService.CreateException(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Exception created", result)
}

// ListExceptions implements ShiftHandler.
func (h *shiftHandlerImpl) ListExceptions(w http.ResponseWriter, r *http.Request) {
	filter := shift.ExceptionFilter{
		EmployeeID: optionalQuery(r, "employee_id"),
	}
	if value := optionalQuery(r, "type"); value != nil {
		exceptionType := shift.ExceptionType(*value)
		filter.Type = &exceptionType
	}

	result, err := h.shiftService.ListExceptions(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DeleteException implements ShiftHandler.
func (h *shiftHandlerImpl) DeleteException(w http.ResponseWriter, r *http.Request) {
	if err := h.shiftService.DeleteException(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Exception deleted", nil)
}
