package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PayPeriodRepository defines data access methods for pay periods.
type PayPeriodRepository interface {
	Create(ctx context.Context, period PayPeriod) (PayPeriod, error)

	// GetByID returns the period with CalculationCount populated
	GetByID(ctx context.Context, id string) (PayPeriod, error)
	List(ctx context.Context, filter PayPeriodFilter) ([]PayPeriod, error)

	// FindOverlapping returns periods whose inclusive range touches [start, end].
	// excludeID is skipped when non-empty so an update does not collide with itself.
	FindOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]PayPeriod, error)

	Update(ctx context.Context, period PayPeriod) error
	UpdateStatus(ctx context.Context, id string, status PayPeriodStatus) error
	Delete(ctx context.Context, id string) error
}

// PayCalculationRepository defines data access methods for calculations and their adjustments.
type PayCalculationRepository interface {
	Create(ctx context.Context, calc PayCalculation) (PayCalculation, error)
	GetByID(ctx context.Context, id string) (PayCalculation, error)
	ExistsForEmployee(ctx context.Context, payPeriodID, employeeID string) (bool, error)

	// ListByPayPeriod returns calculations with joined employee names and adjustment sums
	ListByPayPeriod(ctx context.Context, payPeriodID string) ([]PayCalculation, error)

	CreateAdjustment(ctx context.Context, adj PayAdjustment) (PayAdjustment, error)
	ListAdjustments(ctx context.Context, payCalculationID string) ([]PayAdjustment, error)

	// IncrementGrossPay adds amount to gross_pay atomically and returns the new value
	IncrementGrossPay(ctx context.Context, payCalculationID string, amount decimal.Decimal) (decimal.Decimal, error)
}

// TxManager runs fn inside a single storage transaction carried by ctx.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunLocker provides mutual exclusion for payroll runs keyed by pay period id.
// ok is false when another holder already owns the key.
type RunLocker interface {
	TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
}

// MetricsRecorder receives payroll run and adjustment signals.
type MetricsRecorder interface {
	ObserveRun(outcome string, duration time.Duration, employees int)
	IncAdjustment()
}

const (
	RunOutcomeCompleted = "completed"
	RunOutcomeFailed    = "failed"
)
