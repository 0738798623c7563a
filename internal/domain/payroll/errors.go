package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrPayPeriodNotFound      = errors.New("pay period not found")
	ErrPayCalculationNotFound = errors.New("pay calculation not found")
	ErrPayrollRunInProgress   = errors.New("payroll calculation already running for this pay period")
	ErrPayCalculationExists   = errors.New("pay calculation already exists for this employee and pay period")
	ErrPayPeriodOverlap       = errors.New("pay period overlaps an existing pay period")
)

// NotFoundError names the resource that could not be found.
// It unwraps to the matching sentinel so errors.Is keeps working.
type NotFoundError struct {
	Resource string
	ID       string
	err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.err
}

func NewPayPeriodNotFound(id string) error {
	return &NotFoundError{Resource: "pay period", ID: id, err: ErrPayPeriodNotFound}
}

func NewPayCalculationNotFound(id string) error {
	return &NotFoundError{Resource: "pay calculation", ID: id, err: ErrPayCalculationNotFound}
}
