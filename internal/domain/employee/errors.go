package employee

import "errors"

var (
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrEmployeeCodeExists   = errors.New("employee code already exists")
	ErrEmployeeInactive     = errors.New("employee is not active")
	ErrConfirmationRequired = errors.New("replacing existing face profiles requires confirmation")
	ErrFaceProfileNotFound  = errors.New("face profile not found")
)
