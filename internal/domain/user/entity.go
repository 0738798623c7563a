package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Runs and approves payroll
	RoleEmployee Role = "employee" // Regular employee, sees own pay only
)

// Principal is the authenticated caller extracted from the access token
type Principal struct {
	UserID     string
	EmployeeID *string
	Role       Role
}
