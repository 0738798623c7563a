package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayPeriodType enum. Informational only, it never changes how hours are calculated.
type PayPeriodType string

const (
	PayPeriodTypeSemiMonthly PayPeriodType = "SEMI_MONTHLY"
	PayPeriodTypeBiWeekly    PayPeriodType = "BI_WEEKLY"
	PayPeriodTypeMonthly     PayPeriodType = "MONTHLY"
)

var PayPeriodTypeValues = []string{
	string(PayPeriodTypeSemiMonthly),
	string(PayPeriodTypeBiWeekly),
	string(PayPeriodTypeMonthly),
}

// PayPeriodStatus enum
type PayPeriodStatus string

const (
	PayPeriodStatusDraft      PayPeriodStatus = "DRAFT"
	PayPeriodStatusProcessing PayPeriodStatus = "PROCESSING"
	PayPeriodStatusCompleted  PayPeriodStatus = "COMPLETED"
	PayPeriodStatusPaid       PayPeriodStatus = "PAID"
)

var PayPeriodStatusValues = []string{
	string(PayPeriodStatusDraft),
	string(PayPeriodStatusProcessing),
	string(PayPeriodStatusCompleted),
	string(PayPeriodStatusPaid),
}

// PayPeriod - Date range that hours are aggregated over in one payroll run
type PayPeriod struct {
	ID        string
	StartDate time.Time
	EndDate   time.Time
	Type      PayPeriodType
	Status    PayPeriodStatus
	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	CalculationCount int
}

// Overlaps reports whether the two inclusive ranges share at least one day.
// Touching boundaries count as an overlap.
func (p PayPeriod) Overlaps(start, end time.Time) bool {
	startsInside := !start.Before(p.StartDate) && !start.After(p.EndDate)
	endsInside := !end.Before(p.StartDate) && !end.After(p.EndDate)
	contains := !start.After(p.StartDate) && !end.Before(p.EndDate)
	return startsInside || endsInside || contains
}

// PayCalculation - Hours and gross pay of one employee within one pay period.
// OvertimeHours are premium-adjusted hour equivalents (already multiplied by 1.5 or 2).
type PayCalculation struct {
	ID            string
	PayPeriodID   string
	EmployeeID    string
	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal
	HolidayHours  decimal.Decimal
	HourlyRate    decimal.Decimal
	GrossPay      decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Joined fields
	FirstName      *string
	LastName       *string
	AdjustmentsSum decimal.Decimal
}

// TotalHours is the plain sum of the three hour buckets.
func (c PayCalculation) TotalHours() decimal.Decimal {
	return c.RegularHours.Add(c.OvertimeHours).Add(c.HolidayHours)
}

// PayAdjustment - Manual signed correction to a calculation's gross pay. Immutable.
type PayAdjustment struct {
	ID               string
	PayCalculationID string
	Amount           decimal.Decimal
	Reason           string
	CreatedBy        string
	CreatedAt        time.Time
}
