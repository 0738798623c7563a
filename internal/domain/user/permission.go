package user

type Permission string

const (
	// Payroll
	PermissionPayrollViewOwn Permission = "payroll.view_own"
	PermissionPayrollViewAll Permission = "payroll.view_all"
	PermissionPayrollManage  Permission = "payroll.manage"
	PermissionPayrollApprove Permission = "payroll.approve"

	// Holidays
	PermissionHolidayView Permission = "holiday.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionPayrollViewOwn,
		PermissionPayrollViewAll,
		PermissionPayrollManage,
		PermissionPayrollApprove,
		PermissionHolidayView,
	},
	RoleManager: {
		PermissionPayrollViewOwn,
		PermissionPayrollViewAll,
		PermissionPayrollManage,
		PermissionHolidayView,
	},
	RoleEmployee: {
		PermissionPayrollViewOwn,
		PermissionHolidayView,
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

// CanViewEmployeePay is the "manager or self" check for a single employee's pay data.
func CanViewEmployeePay(p Principal, employeeID string) bool {
	if HasPermission(p.Role, PermissionPayrollViewAll) {
		return true
	}
	if !HasPermission(p.Role, PermissionPayrollViewOwn) {
		return false
	}
	return p.EmployeeID != nil && *p.EmployeeID == employeeID
}
