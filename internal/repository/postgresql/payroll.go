package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ========== PAY PERIODS ==========

type payPeriodRepository struct {
	db *database.DB
}

func NewPayPeriodRepository(db *database.DB) payroll.PayPeriodRepository {
	return &payPeriodRepository{db: db}
}

const payPeriodColumns = `
	p.id, p.start_date, p.end_date, p.type, p.status, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM pay_calculations c WHERE c.pay_period_id = p.id)
`

func scanPayPeriod(row pgx.Row) (payroll.PayPeriod, error) {
	var p payroll.PayPeriod
	var periodType, status string
	err := row.Scan(
		&p.ID, &p.StartDate, &p.EndDate, &periodType, &status, &p.CreatedAt, &p.UpdatedAt,
		&p.CalculationCount,
	)
	p.Type = payroll.PayPeriodType(periodType)
	p.Status = payroll.PayPeriodStatus(status)
	return p, err
}

func (r *payPeriodRepository) Create(ctx context.Context, period payroll.PayPeriod) (payroll.PayPeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO pay_periods AS p (start_date, end_date, type, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + payPeriodColumns

	created, err := scanPayPeriod(q.QueryRow(ctx, query,
		period.StartDate, period.EndDate, string(period.Type), string(period.Status),
	))
	if err != nil {
		if violates(err, pgExclusionViolation, "ex_pay_period_overlap") {
			return payroll.PayPeriod{}, payroll.ErrPayPeriodOverlap
		}
		return payroll.PayPeriod{}, fmt.Errorf("failed to create pay period: %w", err)
	}

	return created, nil
}

func (r *payPeriodRepository) GetByID(ctx context.Context, id string) (payroll.PayPeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payPeriodColumns + ` FROM pay_periods p WHERE p.id = $1`

	p, err := scanPayPeriod(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayPeriod{}, payroll.NewPayPeriodNotFound(id)
		}
		return payroll.PayPeriod{}, fmt.Errorf("failed to get pay period: %w", err)
	}

	return p, nil
}

func (r *payPeriodRepository) List(ctx context.Context, filter payroll.PayPeriodFilter) ([]payroll.PayPeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payPeriodColumns + ` FROM pay_periods p`
	args := []interface{}{}
	if filter.Status != nil {
		query += " WHERE p.status = $1"
		args = append(args, *filter.Status)
	}
	query += " ORDER BY p.start_date DESC"

	return r.queryPeriods(ctx, q, query, args...)
}

func (r *payPeriodRepository) FindOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]payroll.PayPeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payPeriodColumns + `
		FROM pay_periods p
		WHERE p.start_date <= $2 AND p.end_date >= $1
	`
	args := []interface{}{start, end}
	if excludeID != "" {
		query += " AND p.id <> $3"
		args = append(args, excludeID)
	}
	query += " ORDER BY p.start_date"

	return r.queryPeriods(ctx, q, query, args...)
}

func (r *payPeriodRepository) queryPeriods(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]payroll.PayPeriod, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pay periods: %w", err)
	}
	defer rows.Close()

	var periods []payroll.PayPeriod
	for rows.Next() {
		p, err := scanPayPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pay period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pay periods: %w", err)
	}

	return periods, nil
}

func (r *payPeriodRepository) Update(ctx context.Context, period payroll.PayPeriod) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE pay_periods
		SET start_date = $2, end_date = $3, type = $4, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, period.ID, period.StartDate, period.EndDate, string(period.Type))
	if err != nil {
		if violates(err, pgExclusionViolation, "ex_pay_period_overlap") {
			return payroll.ErrPayPeriodOverlap
		}
		return fmt.Errorf("failed to update pay period: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.NewPayPeriodNotFound(period.ID)
	}

	return nil
}

func (r *payPeriodRepository) UpdateStatus(ctx context.Context, id string, status payroll.PayPeriodStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE pay_periods SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update pay period status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.NewPayPeriodNotFound(id)
	}

	return nil
}

func (r *payPeriodRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM pay_periods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pay period: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.NewPayPeriodNotFound(id)
	}

	return nil
}

// ========== PAY CALCULATIONS ==========

type payCalculationRepository struct {
	db *database.DB
}

func NewPayCalculationRepository(db *database.DB) payroll.PayCalculationRepository {
	return &payCalculationRepository{db: db}
}

func (r *payCalculationRepository) Create(ctx context.Context, calc payroll.PayCalculation) (payroll.PayCalculation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO pay_calculations (
			pay_period_id, employee_id, regular_hours, overtime_hours, holiday_hours, hourly_rate, gross_pay
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		calc.PayPeriodID, calc.EmployeeID, calc.RegularHours, calc.OvertimeHours, calc.HolidayHours,
		calc.HourlyRate, calc.GrossPay,
	).Scan(&calc.ID, &calc.CreatedAt, &calc.UpdatedAt)
	if err != nil {
		if violates(err, pgUniqueViolation, "uk_pay_calculation_period_employee") {
			return payroll.PayCalculation{}, payroll.ErrPayCalculationExists
		}
		return payroll.PayCalculation{}, fmt.Errorf("failed to create pay calculation: %w", err)
	}

	return calc, nil
}

const payCalculationSelect = `
	SELECT c.id, c.pay_period_id, c.employee_id, c.regular_hours, c.overtime_hours, c.holiday_hours,
		   c.hourly_rate, c.gross_pay, c.created_at, c.updated_at,
		   e.first_name, e.last_name,
		   COALESCE((SELECT SUM(a.amount) FROM pay_adjustments a WHERE a.pay_calculation_id = c.id), 0)
	FROM pay_calculations c
	LEFT JOIN employees e ON e.id = c.employee_id
`

func scanPayCalculation(row pgx.Row) (payroll.PayCalculation, error) {
	var c payroll.PayCalculation
	err := row.Scan(
		&c.ID, &c.PayPeriodID, &c.EmployeeID, &c.RegularHours, &c.OvertimeHours, &c.HolidayHours,
		&c.HourlyRate, &c.GrossPay, &c.CreatedAt, &c.UpdatedAt,
		&c.FirstName, &c.LastName,
		&c.AdjustmentsSum,
	)
	return c, err
}

func (r *payCalculationRepository) GetByID(ctx context.Context, id string) (payroll.PayCalculation, error) {
	q := GetQuerier(ctx, r.db)

	c, err := scanPayCalculation(q.QueryRow(ctx, payCalculationSelect+" WHERE c.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayCalculation{}, payroll.NewPayCalculationNotFound(id)
		}
		return payroll.PayCalculation{}, fmt.Errorf("failed to get pay calculation: %w", err)
	}

	return c, nil
}

func (r *payCalculationRepository) ExistsForEmployee(ctx context.Context, payPeriodID, employeeID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pay_calculations WHERE pay_period_id = $1 AND employee_id = $2)`,
		payPeriodID, employeeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pay calculation: %w", err)
	}

	return exists, nil
}

func (r *payCalculationRepository) ListByPayPeriod(ctx context.Context, payPeriodID string) ([]payroll.PayCalculation, error) {
	q := GetQuerier(ctx, r.db)

	query := payCalculationSelect + `
		WHERE c.pay_period_id = $1
		ORDER BY e.last_name, e.first_name, c.id
	`

	rows, err := q.Query(ctx, query, payPeriodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pay calculations: %w", err)
	}
	defer rows.Close()

	var calcs []payroll.PayCalculation
	for rows.Next() {
		c, err := scanPayCalculation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pay calculation: %w", err)
		}
		calcs = append(calcs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pay calculations: %w", err)
	}

	return calcs, nil
}

// ========== ADJUSTMENTS ==========

func (r *payCalculationRepository) CreateAdjustment(ctx context.Context, adj payroll.PayAdjustment) (payroll.PayAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO pay_adjustments (pay_calculation_id, amount, reason, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query, adj.PayCalculationID, adj.Amount, adj.Reason, adj.CreatedBy).
		Scan(&adj.ID, &adj.CreatedAt)
	if err != nil {
		return payroll.PayAdjustment{}, fmt.Errorf("failed to create pay adjustment: %w", err)
	}

	return adj, nil
}

func (r *payCalculationRepository) ListAdjustments(ctx context.Context, payCalculationID string) ([]payroll.PayAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, pay_calculation_id, amount, reason, created_by, created_at
		FROM pay_adjustments
		WHERE pay_calculation_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, payCalculationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pay adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []payroll.PayAdjustment
	for rows.Next() {
		var a payroll.PayAdjustment
		if err := rows.Scan(&a.ID, &a.PayCalculationID, &a.Amount, &a.Reason, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pay adjustment: %w", err)
		}
		adjustments = append(adjustments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pay adjustments: %w", err)
	}

	return adjustments, nil
}

func (r *payCalculationRepository) IncrementGrossPay(ctx context.Context, payCalculationID string, amount decimal.Decimal) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE pay_calculations
		SET gross_pay = gross_pay + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING gross_pay
	`

	var gross decimal.Decimal
	if err := q.QueryRow(ctx, query, payCalculationID, amount).Scan(&gross); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, payroll.NewPayCalculationNotFound(payCalculationID)
		}
		return decimal.Decimal{}, fmt.Errorf("failed to increment gross pay: %w", err)
	}

	return gross, nil
}
