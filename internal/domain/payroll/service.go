package payroll

import "context"

// PayPeriodService manages the pay period lifecycle outside of payroll runs
type PayPeriodService interface {
	Create(ctx context.Context, req CreatePayPeriodRequest) (PayPeriodResponse, error)
	Get(ctx context.Context, id string) (PayPeriodResponse, error)
	List(ctx context.Context, filter PayPeriodFilter) ([]PayPeriodResponse, error)
	Update(ctx context.Context, req UpdatePayPeriodRequest) (PayPeriodResponse, error)
	Delete(ctx context.Context, id string) error
}

// PayrollService runs calculations, applies adjustments and exposes results
type PayrollService interface {
	// CalculatePayroll computes one calculation per eligible employee and
	// moves the period DRAFT -> PROCESSING -> COMPLETED (back to DRAFT on failure)
	CalculatePayroll(ctx context.Context, payPeriodID string) (CalculatePayrollResponse, error)

	// MarkAsPaid moves a COMPLETED period to PAID
	MarkAsPaid(ctx context.Context, payPeriodID string) (PayPeriodResponse, error)

	AddAdjustment(ctx context.Context, req AddAdjustmentRequest) (AdjustmentResponse, error)

	ListCalculations(ctx context.Context, payPeriodID string) ([]PayCalculationResponse, error)
	GetCalculation(ctx context.Context, id string) (PayCalculationResponse, error)

	Export(ctx context.Context, payPeriodID string) (ExportResponse, error)

	// RecoverStalledRuns reverts PROCESSING periods that no live run holds
	// and returns how many were reverted
	RecoverStalledRuns(ctx context.Context) (int, error)
}
