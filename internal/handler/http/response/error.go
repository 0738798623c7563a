package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var notFound *payroll.NotFoundError
	if errors.As(err, &notFound) {
		NotFound(w, notFound.Error())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayPeriodNotFound):
		NotFound(w, "Pay period not found")
	case errors.Is(err, payroll.ErrPayCalculationNotFound):
		NotFound(w, "Pay calculation not found")
	case errors.Is(err, payroll.ErrPayrollRunInProgress):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrPayCalculationExists):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrPayPeriodOverlap):
		Conflict(w, err.Error())

	// Collaborator errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, holiday.ErrInvalidDateRange):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
