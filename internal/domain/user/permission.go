package user

type Permission string

const (
	// Attendance
	PermissionAttendanceToggle  Permission = "attendance.toggle"
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceManual  Permission = "attendance.manual"

	// Shifts
	PermissionShiftView   Permission = "shift.view"
	PermissionShiftManage Permission = "shift.manage"

	// Employees
	PermissionEmployeeManage Permission = "employee.manage"

	// Money
	PermissionPayrollManage Permission = "payroll.manage"
	PermissionFinanceManage Permission = "finance.manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceToggle,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceManual,
		PermissionShiftView,
		PermissionShiftManage,
		PermissionEmployeeManage,
		PermissionPayrollManage,
		PermissionFinanceManage,
	},
	RoleStaff: {
		PermissionAttendanceToggle,
		PermissionAttendanceViewOwn,
		PermissionShiftView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}
