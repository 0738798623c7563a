package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the payroll view of an employee record
type Employee struct {
	ID              string
	FirstName       string
	LastName        string
	HireDate        time.Time
	TerminationDate *time.Time
	HourlyRate      *decimal.Decimal
	OvertimeEnabled bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActiveOn reports whether the employee has no termination date or one
// strictly after asOf.
func (e Employee) IsActiveOn(asOf time.Time) bool {
	return e.TerminationDate == nil || e.TerminationDate.After(asOf)
}

// HasHourlyRate reports whether a usable rate is configured.
func (e Employee) HasHourlyRate() bool {
	return e.HourlyRate != nil && !e.HourlyRate.IsZero()
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
