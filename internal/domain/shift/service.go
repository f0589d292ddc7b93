package shift

import (
	"context"
	"time"
)

type ShiftService interface {
	CreateShift(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)
	UpdateShift(ctx context.Context, req UpdateShiftRequest) (ShiftResponse, error)
	DeleteShift(ctx context.Context, id string) error
	GetShift(ctx context.Context, id string) (ShiftResponse, error)
	ListShifts(ctx context.Context) ([]ShiftResponse, error)

	// FindShift and FindByQRToken return the entity for use by other services.
	FindShift(ctx context.Context, id string) (Shift, error)
	FindByQRToken(ctx context.Context, token string) (Shift, error)

	// CurrentShift returns the shift whose window contains at's time of day.
	CurrentShift(ctx context.Context, at time.Time) (Shift, error)
	ActiveShift(ctx context.Context, at time.Time) (ShiftResponse, error)

	// Justify finds the assignment and added exception that schedule
	// employeeID into s on date.
	Justify(ctx context.Context, employeeID string, s Shift, date time.Time) (Justification, error)

	// WeekSchedule materialises the grid for the week containing date.
	WeekSchedule(ctx context.Context, date time.Time) (WeekSchedule, error)

	CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (AssignmentResponse, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]AssignmentResponse, error)
	DeleteAssignment(ctx context.Context, id string) error

	CreateException(ctx context.Context, req CreateExceptionRequest) (ExceptionResponse, error)
	ListExceptions(ctx context.Context, filter ExceptionFilter) ([]ExceptionResponse, error)
	DeleteException(ctx context.Context, id string) error
}
