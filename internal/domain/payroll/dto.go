package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== PAY PERIOD DTOs ==========

type CreatePayPeriodRequest struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Type      string  `json:"type"`
	Status    *string `json:"status,omitempty"`
}

func (r *CreatePayPeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(r.StartDate)
	if validator.IsEmpty(r.StartDate) {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "is required"})
	} else if !startOK {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be in YYYY-MM-DD format"})
	}

	end, endOK := validator.IsValidDate(r.EndDate)
	if validator.IsEmpty(r.EndDate) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "is required"})
	} else if !endOK {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be in YYYY-MM-DD format"})
	}

	if startOK && endOK && !start.Before(end) {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be before end_date"})
	}

	if !validator.IsInSlice(r.Type, PayPeriodTypeValues) {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be one of SEMI_MONTHLY, BI_WEEKLY, MONTHLY"})
	}

	if r.Status != nil && !validator.IsInSlice(*r.Status, PayPeriodStatusValues) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be one of DRAFT, PROCESSING, COMPLETED, PAID"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdatePayPeriodRequest carries a partial update. Status is not editable here,
// it only moves through the payroll run and mark-as-paid transitions.
type UpdatePayPeriodRequest struct {
	ID        string  `json:"-"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	Type      *string `json:"type,omitempty"`
}

func (r *UpdatePayPeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.StartDate != nil {
		if _, ok := validator.IsValidDate(*r.StartDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be in YYYY-MM-DD format"})
		}
	}
	if r.EndDate != nil {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be in YYYY-MM-DD format"})
		}
	}
	if r.Type != nil && !validator.IsInSlice(*r.Type, PayPeriodTypeValues) {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be one of SEMI_MONTHLY, BI_WEEKLY, MONTHLY"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ChangesLockedFields reports whether the update touches dates or type.
func (r *UpdatePayPeriodRequest) ChangesLockedFields() bool {
	return r.StartDate != nil || r.EndDate != nil || r.Type != nil
}

type PayPeriodFilter struct {
	Status *string
}

type PayPeriodResponse struct {
	ID               string `json:"id"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	CalculationCount int    `json:"calculation_count"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// ========== CALCULATION DTOs ==========

type CalculatePayrollResponse struct {
	PayPeriodID   string `json:"pay_period_id"`
	EmployeeCount int    `json:"employee_count"`
}

type PayCalculationResponse struct {
	ID             string               `json:"id"`
	PayPeriodID    string               `json:"pay_period_id"`
	EmployeeID     string               `json:"employee_id"`
	EmployeeName   string               `json:"employee_name"`
	RegularHours   decimal.Decimal      `json:"regular_hours"`
	OvertimeHours  decimal.Decimal      `json:"overtime_hours"`
	HolidayHours   decimal.Decimal      `json:"holiday_hours"`
	HourlyRate     decimal.Decimal      `json:"hourly_rate"`
	AdjustmentsSum decimal.Decimal      `json:"adjustments_sum"`
	GrossPay       decimal.Decimal      `json:"gross_pay"`
	Adjustments    []AdjustmentResponse `json:"adjustments,omitempty"`
}

// ========== ADJUSTMENT DTOs ==========

type AddAdjustmentRequest struct {
	PayCalculationID string          `json:"-"`
	CreatedBy        string          `json:"-"`
	Amount           decimal.Decimal `json:"amount"`
	Reason           string          `json:"reason"`
}

func (r *AddAdjustmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.PayCalculationID) {
		errs = append(errs, validator.ValidationError{Field: "pay_calculation_id", Message: "is required"})
	}
	switch {
	case r.Amount.IsZero():
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must not be zero"})
	case !r.Amount.Equal(r.Amount.Round(2)):
		// Stored as NUMERIC(14,2)
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must have at most 2 decimal places"})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "is required"})
	}
	if validator.IsEmpty(r.CreatedBy) {
		errs = append(errs, validator.ValidationError{Field: "created_by", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AdjustmentResponse struct {
	ID               string          `json:"id"`
	PayCalculationID string          `json:"pay_calculation_id"`
	Amount           decimal.Decimal `json:"amount"`
	Reason           string          `json:"reason"`
	CreatedBy        string          `json:"created_by"`
	CreatedAt        string          `json:"created_at"`
	GrossPay         decimal.Decimal `json:"gross_pay"`
}

// ========== EXPORT DTOs ==========

// ExportRow is one flat line of a pay period export. Amounts are fixed to 2 decimals.
type ExportRow struct {
	RowNumber      int    `json:"row_number"`
	LastName       string `json:"last_name"`
	FirstName      string `json:"first_name"`
	RegularHours   string `json:"regular_hours"`
	OvertimeHours  string `json:"overtime_hours"`
	HolidayHours   string `json:"holiday_hours"`
	TotalHours     string `json:"total_hours"`
	PayRate        string `json:"pay_rate"`
	AdjustmentsSum string `json:"adjustments_sum"`
	GrossPay       string `json:"gross_pay"`
}

type ExportResponse struct {
	PayPeriodID string      `json:"pay_period_id"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	Rows        []ExportRow `json:"rows"`
}

// ParseDate parses a validated YYYY-MM-DD string as a UTC date.
func ParseDate(s string) time.Time {
	t, _ := validator.IsValidDate(s)
	return t
}
