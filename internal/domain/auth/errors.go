package auth

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrNotAuthenticated    = errors.New("authentication required")
	ErrNotLinkedToEmployee = errors.New("account is not linked to an employee")
)
