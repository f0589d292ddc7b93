package employee

import (
	"context"
)

// EmployeeService defines business logic for employee operations
type EmployeeService interface {
	// GetEmployee retrieves a single employee by ID
	GetEmployee(ctx context.Context, id string) (EmployeeResponse, error)

	// CreateEmployee creates a new employee, generating a code when none is given
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)

	// UpdateEmployee updates name, status or hourly rate
	UpdateEmployee(ctx context.Context, req UpdateEmployeeRequest) (EmployeeResponse, error)

	// ListEmployees lists employees with filters
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]EmployeeResponse, error)

	// EnrollFace registers a face profile from an uploaded photo
	EnrollFace(ctx context.Context, req EnrollFaceRequest) (FaceSummaryResponse, error)

	// ListFaces reports enrolled profiles without their embeddings
	ListFaces(ctx context.Context, employeeID string) (FaceSummaryResponse, error)
}
