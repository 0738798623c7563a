package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/timeclock"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	periodRepo    payroll.PayPeriodRepository
	calcRepo      payroll.PayCalculationRepository
	employeeRepo  employee.EmployeeRepository
	timeClockRepo timeclock.TimeClockRepository
	calculator    *Calculator
	txManager     payroll.TxManager
	runLocker     payroll.RunLocker
	publisher     notification.Publisher
	metrics       payroll.MetricsRecorder
}

func NewPayrollService(
	periodRepo payroll.PayPeriodRepository,
	calcRepo payroll.PayCalculationRepository,
	employeeRepo employee.EmployeeRepository,
	timeClockRepo timeclock.TimeClockRepository,
	calculator *Calculator,
	txManager payroll.TxManager,
	runLocker payroll.RunLocker,
	publisher notification.Publisher,
	metrics payroll.MetricsRecorder,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		periodRepo:    periodRepo,
		calcRepo:      calcRepo,
		employeeRepo:  employeeRepo,
		timeClockRepo: timeClockRepo,
		calculator:    calculator,
		txManager:     txManager,
		runLocker:     runLocker,
		publisher:     publisher,
		metrics:       metrics,
	}
}

func runLockKey(payPeriodID string) string {
	return "payroll_run:" + payPeriodID
}

// ========== PAYROLL RUN ==========

func (s *PayrollServiceImpl) CalculatePayroll(ctx context.Context, payPeriodID string) (payroll.CalculatePayrollResponse, error) {
	unlock, ok, err := s.runLocker.TryLock(ctx, runLockKey(payPeriodID))
	if err != nil {
		return payroll.CalculatePayrollResponse{}, fmt.Errorf("failed to acquire payroll run lock: %w", err)
	}
	if !ok {
		return payroll.CalculatePayrollResponse{}, payroll.ErrPayrollRunInProgress
	}
	defer unlock()

	period, err := s.periodRepo.GetByID(ctx, payPeriodID)
	if err != nil {
		return payroll.CalculatePayrollResponse{}, err
	}

	switch period.Status {
	case payroll.PayPeriodStatusPaid:
		return payroll.CalculatePayrollResponse{}, validator.Single("status", "pay period is already paid")
	case payroll.PayPeriodStatusProcessing:
		// Left behind by a crashed run; the lock proves nobody else is working on it.
		slog.Warn("Resuming pay period stuck in PROCESSING", "pay_period_id", payPeriodID)
	}

	employees, err := s.employeeRepo.FindActive(ctx, period.EndDate)
	if err != nil {
		return payroll.CalculatePayrollResponse{}, fmt.Errorf("failed to get active employees: %w", err)
	}

	if err := s.periodRepo.UpdateStatus(ctx, period.ID, payroll.PayPeriodStatusProcessing); err != nil {
		return payroll.CalculatePayrollResponse{}, fmt.Errorf("failed to mark pay period as processing: %w", err)
	}

	started := time.Now()
	slog.Info("Payroll run started", "pay_period_id", period.ID, "employee_candidates", len(employees))

	processed := 0
	for _, emp := range employees {
		created, err := s.calculateEmployee(ctx, period, emp)
		if err != nil {
			s.rollbackRun(ctx, period, emp.ID, err, processed, started)
			return payroll.CalculatePayrollResponse{}, err
		}
		if created {
			processed++
		}
	}

	if err := s.periodRepo.UpdateStatus(ctx, period.ID, payroll.PayPeriodStatusCompleted); err != nil {
		s.rollbackRun(ctx, period, "", err, processed, started)
		return payroll.CalculatePayrollResponse{}, fmt.Errorf("failed to mark pay period as completed: %w", err)
	}

	s.metrics.ObserveRun(payroll.RunOutcomeCompleted, time.Since(started), processed)
	slog.Info("Payroll run completed", "pay_period_id", period.ID, "employee_count", processed, "duration", time.Since(started))

	s.publisher.Publish(ctx, notification.Event{
		Type:    notification.TypePayrollCalculated,
		Title:   "Payroll calculated",
		Message: fmt.Sprintf("Payroll for %s to %s calculated for %d employees", formatDate(period.StartDate), formatDate(period.EndDate), processed),
		Data: map[string]interface{}{
			"pay_period_id":  period.ID,
			"employee_count": processed,
		},
		CreatedAt: time.Now(),
	})

	return payroll.CalculatePayrollResponse{
		PayPeriodID:   period.ID,
		EmployeeCount: processed,
	}, nil
}

// calculateEmployee returns false when the employee is skipped.
func (s *PayrollServiceImpl) calculateEmployee(ctx context.Context, period payroll.PayPeriod, emp employee.Employee) (bool, error) {
	if !emp.HasHourlyRate() {
		return false, nil
	}

	// A previous, interrupted run may already have written this employee
	exists, err := s.calcRepo.ExistsForEmployee(ctx, period.ID, emp.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check existing calculation for employee %s: %w", emp.ID, err)
	}
	if exists {
		return false, nil
	}

	clocks, err := s.timeClockRepo.FindCompleted(ctx, emp.ID, period.StartDate, period.EndDate)
	if err != nil {
		return false, fmt.Errorf("failed to get time clocks for employee %s: %w", emp.ID, err)
	}
	if len(clocks) == 0 {
		return false, nil
	}

	result, err := s.calculator.Calculate(ctx, CalculationInput{
		EmployeeID:      emp.ID,
		TimeClocks:      clocks,
		HourlyRate:      *emp.HourlyRate,
		OvertimeEnabled: emp.OvertimeEnabled,
		PeriodStart:     period.StartDate,
		PeriodEnd:       period.EndDate,
	})
	if err != nil {
		return false, fmt.Errorf("failed to calculate payroll for employee %s: %w", emp.ID, err)
	}

	_, err = s.calcRepo.Create(ctx, payroll.PayCalculation{
		PayPeriodID:   period.ID,
		EmployeeID:    emp.ID,
		RegularHours:  result.RegularHours,
		OvertimeHours: result.OvertimeHours,
		HolidayHours:  result.HolidayHours,
		HourlyRate:    *emp.HourlyRate,
		GrossPay:      result.GrossPay,
	})
	if err != nil {
		if errors.Is(err, payroll.ErrPayCalculationExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create pay calculation for employee %s: %w", emp.ID, err)
	}

	return true, nil
}

// rollbackRun puts the period back to DRAFT. Calculations written earlier in the
// run are kept; the next run skips those employees.
func (s *PayrollServiceImpl) rollbackRun(ctx context.Context, period payroll.PayPeriod, employeeID string, cause error, processed int, started time.Time) {
	slog.Error("Payroll run failed, reverting pay period to DRAFT",
		"pay_period_id", period.ID,
		"employee_id", employeeID,
		"employees_written", processed,
		"error", cause,
	)

	rollbackCtx := context.WithoutCancel(ctx)
	if err := s.periodRepo.UpdateStatus(rollbackCtx, period.ID, payroll.PayPeriodStatusDraft); err != nil {
		slog.Error("Failed to revert pay period status", "pay_period_id", period.ID, "error", err)
	}

	s.metrics.ObserveRun(payroll.RunOutcomeFailed, time.Since(started), processed)

	s.publisher.Publish(rollbackCtx, notification.Event{
		Type:    notification.TypePayrollFailed,
		Title:   "Payroll calculation failed",
		Message: fmt.Sprintf("Payroll for %s to %s failed and was reverted to draft", formatDate(period.StartDate), formatDate(period.EndDate)),
		Data: map[string]interface{}{
			"pay_period_id":     period.ID,
			"employees_written": processed,
		},
		CreatedAt: time.Now(),
	})
}

func (s *PayrollServiceImpl) MarkAsPaid(ctx context.Context, payPeriodID string) (payroll.PayPeriodResponse, error) {
	period, err := s.periodRepo.GetByID(ctx, payPeriodID)
	if err != nil {
		return payroll.PayPeriodResponse{}, err
	}

	if period.Status != payroll.PayPeriodStatusCompleted {
		return payroll.PayPeriodResponse{}, validator.Single("status",
			fmt.Sprintf("only COMPLETED pay periods can be marked as paid, current status is %s", period.Status))
	}

	if err := s.periodRepo.UpdateStatus(ctx, period.ID, payroll.PayPeriodStatusPaid); err != nil {
		return payroll.PayPeriodResponse{}, fmt.Errorf("failed to mark pay period as paid: %w", err)
	}
	period.Status = payroll.PayPeriodStatusPaid

	s.publisher.Publish(ctx, notification.Event{
		Type:      notification.TypePayrollPaid,
		Title:     "Payroll paid",
		Message:   fmt.Sprintf("Payroll for %s to %s was marked as paid", formatDate(period.StartDate), formatDate(period.EndDate)),
		Data:      map[string]interface{}{"pay_period_id": period.ID},
		CreatedAt: time.Now(),
	})

	return mapToPeriodResponse(period), nil
}

func (s *PayrollServiceImpl) RecoverStalledRuns(ctx context.Context) (int, error) {
	processing := string(payroll.PayPeriodStatusProcessing)
	periods, err := s.periodRepo.List(ctx, payroll.PayPeriodFilter{Status: &processing})
	if err != nil {
		return 0, fmt.Errorf("failed to list processing pay periods: %w", err)
	}

	recovered := 0
	for _, p := range periods {
		ok, err := s.recoverPeriod(ctx, p.ID)
		if err != nil {
			return recovered, err
		}
		if ok {
			recovered++
		}
	}
	return recovered, nil
}

func (s *PayrollServiceImpl) recoverPeriod(ctx context.Context, payPeriodID string) (bool, error) {
	unlock, ok, err := s.runLocker.TryLock(ctx, runLockKey(payPeriodID))
	if err != nil {
		return false, fmt.Errorf("failed to acquire payroll run lock: %w", err)
	}
	if !ok {
		return false, nil
	}
	defer unlock()

	// The run may have finished between listing and locking
	period, err := s.periodRepo.GetByID(ctx, payPeriodID)
	if err != nil {
		return false, err
	}
	if period.Status != payroll.PayPeriodStatusProcessing {
		return false, nil
	}

	if err := s.periodRepo.UpdateStatus(ctx, period.ID, payroll.PayPeriodStatusDraft); err != nil {
		return false, fmt.Errorf("failed to revert pay period %s: %w", period.ID, err)
	}

	slog.Warn("Reverted stalled payroll run to DRAFT", "pay_period_id", period.ID)
	s.publisher.Publish(ctx, notification.Event{
		Type:      notification.TypePayrollFailed,
		Title:     "Payroll calculation interrupted",
		Message:   fmt.Sprintf("Payroll for %s to %s was interrupted and reverted to draft", formatDate(period.StartDate), formatDate(period.EndDate)),
		Data:      map[string]interface{}{"pay_period_id": period.ID},
		CreatedAt: time.Now(),
	})
	return true, nil
}

// ========== ADJUSTMENTS ==========

func (s *PayrollServiceImpl) AddAdjustment(ctx context.Context, req payroll.AddAdjustmentRequest) (payroll.AdjustmentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	var (
		created  payroll.PayAdjustment
		newGross decimal.Decimal
	)
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		calc, err := s.calcRepo.GetByID(txCtx, req.PayCalculationID)
		if err != nil {
			return err
		}

		period, err := s.periodRepo.GetByID(txCtx, calc.PayPeriodID)
		if err != nil {
			return err
		}
		if period.Status == payroll.PayPeriodStatusPaid {
			return validator.Single("status", "pay period is paid, adjustments are locked")
		}

		created, err = s.calcRepo.CreateAdjustment(txCtx, payroll.PayAdjustment{
			PayCalculationID: calc.ID,
			Amount:           req.Amount,
			Reason:           req.Reason,
			CreatedBy:        req.CreatedBy,
		})
		if err != nil {
			return fmt.Errorf("failed to create adjustment: %w", err)
		}

		newGross, err = s.calcRepo.IncrementGrossPay(txCtx, calc.ID, req.Amount)
		if err != nil {
			return fmt.Errorf("failed to apply adjustment to gross pay: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	s.metrics.IncAdjustment()

	s.publisher.Publish(ctx, notification.Event{
		Type:    notification.TypePayrollAdjusted,
		Title:   "Pay adjusted",
		Message: fmt.Sprintf("Adjustment of %s applied: %s", created.Amount.StringFixed(2), created.Reason),
		Data: map[string]interface{}{
			"pay_calculation_id": created.PayCalculationID,
			"gross_pay":          newGross.StringFixed(2),
		},
		CreatedAt: time.Now(),
	})

	return payroll.AdjustmentResponse{
		ID:               created.ID,
		PayCalculationID: created.PayCalculationID,
		Amount:           created.Amount,
		Reason:           created.Reason,
		CreatedBy:        created.CreatedBy,
		CreatedAt:        created.CreatedAt.Format(time.RFC3339),
		GrossPay:         newGross,
	}, nil
}

// ========== RESULTS ==========

func (s *PayrollServiceImpl) ListCalculations(ctx context.Context, payPeriodID string) ([]payroll.PayCalculationResponse, error) {
	if _, err := s.periodRepo.GetByID(ctx, payPeriodID); err != nil {
		return nil, err
	}

	calcs, err := s.calcRepo.ListByPayPeriod(ctx, payPeriodID)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.PayCalculationResponse, 0, len(calcs))
	for _, c := range calcs {
		result = append(result, mapToCalculationResponse(c, nil))
	}
	return result, nil
}

func (s *PayrollServiceImpl) GetCalculation(ctx context.Context, id string) (payroll.PayCalculationResponse, error) {
	calc, err := s.calcRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayCalculationResponse{}, err
	}

	adjustments, err := s.calcRepo.ListAdjustments(ctx, id)
	if err != nil {
		return payroll.PayCalculationResponse{}, err
	}

	sum := decimal.Zero
	for _, a := range adjustments {
		sum = sum.Add(a.Amount)
	}
	calc.AdjustmentsSum = sum

	return mapToCalculationResponse(calc, adjustments), nil
}

func (s *PayrollServiceImpl) Export(ctx context.Context, payPeriodID string) (payroll.ExportResponse, error) {
	period, err := s.periodRepo.GetByID(ctx, payPeriodID)
	if err != nil {
		return payroll.ExportResponse{}, err
	}

	calcs, err := s.calcRepo.ListByPayPeriod(ctx, payPeriodID)
	if err != nil {
		return payroll.ExportResponse{}, err
	}

	sort.SliceStable(calcs, func(i, j int) bool {
		li, lj := deref(calcs[i].LastName), deref(calcs[j].LastName)
		if li != lj {
			return li < lj
		}
		return deref(calcs[i].FirstName) < deref(calcs[j].FirstName)
	})

	rows := make([]payroll.ExportRow, 0, len(calcs))
	for i, c := range calcs {
		rows = append(rows, payroll.ExportRow{
			RowNumber:      i + 1,
			LastName:       deref(c.LastName),
			FirstName:      deref(c.FirstName),
			RegularHours:   c.RegularHours.StringFixed(2),
			OvertimeHours:  c.OvertimeHours.StringFixed(2),
			HolidayHours:   c.HolidayHours.StringFixed(2),
			TotalHours:     c.TotalHours().StringFixed(2),
			PayRate:        c.HourlyRate.StringFixed(2),
			AdjustmentsSum: c.AdjustmentsSum.StringFixed(2),
			GrossPay:       c.GrossPay.StringFixed(2),
		})
	}

	return payroll.ExportResponse{
		PayPeriodID: period.ID,
		StartDate:   formatDate(period.StartDate),
		EndDate:     formatDate(period.EndDate),
		Rows:        rows,
	}, nil
}

// ========== HELPERS ==========

func mapToCalculationResponse(c payroll.PayCalculation, adjustments []payroll.PayAdjustment) payroll.PayCalculationResponse {
	name := deref(c.FirstName)
	if last := deref(c.LastName); last != "" {
		if name != "" {
			name += " "
		}
		name += last
	}

	resp := payroll.PayCalculationResponse{
		ID:             c.ID,
		PayPeriodID:    c.PayPeriodID,
		EmployeeID:     c.EmployeeID,
		EmployeeName:   name,
		RegularHours:   c.RegularHours,
		OvertimeHours:  c.OvertimeHours,
		HolidayHours:   c.HolidayHours,
		HourlyRate:     c.HourlyRate,
		AdjustmentsSum: c.AdjustmentsSum,
		GrossPay:       c.GrossPay,
	}
	for _, a := range adjustments {
		resp.Adjustments = append(resp.Adjustments, payroll.AdjustmentResponse{
			ID:               a.ID,
			PayCalculationID: a.PayCalculationID,
			Amount:           a.Amount,
			Reason:           a.Reason,
			CreatedBy:        a.CreatedBy,
			CreatedAt:        a.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t time.Time) string {
	return t.Format(validator.DateLayout)
}
