package user

import "time"

type Role string

const (
	RoleAdmin Role = "admin" // Café owner or shift lead
	RoleStaff Role = "staff" // Barista, server, etc.
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	EmployeeID   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin checks if user can manage the café
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsLinked checks if user belongs to an employee record
func (u *User) IsLinked() bool {
	return u.EmployeeID != nil && *u.EmployeeID != ""
}
