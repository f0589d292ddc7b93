package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByCode(ctx context.Context, code string) (Employee, error)
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	Update(ctx context.Context, e Employee) (Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
	NextCode(ctx context.Context) (string, error)
}

type FaceProfileRepository interface {
	Create(ctx context.Context, profile FaceProfile) (FaceProfile, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]FaceProfile, error)
	DeleteByEmployee(ctx context.Context, employeeID string) ([]string, error)
	CountByEmployee(ctx context.Context, employeeID string) (int, error)
}
