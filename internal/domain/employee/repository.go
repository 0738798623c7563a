package employee

import (
	"context"
	"time"
)

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)

	// FindActive returns employees with no termination date or one strictly after asOf
	FindActive(ctx context.Context, asOf time.Time) ([]Employee, error)
}
