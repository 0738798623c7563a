package payroll

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/timeclock"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var (
	dailyRegularLimit  = decimal.NewFromInt(8)
	dailyDoubleLimit   = decimal.NewFromInt(12)
	weeklyRegularLimit = decimal.NewFromInt(40)
	timeAndAHalf       = decimal.NewFromFloat(1.5)
	doubleTime         = decimal.NewFromInt(2)
)

const (
	hoursPlaces = 4
	moneyPlaces = 2
)

// EligibilityChecker decides statutory holiday pay eligibility.
type EligibilityChecker interface {
	IsEligible(ctx context.Context, employeeID string, holidayDate time.Time) (bool, error)
}

// CalculationInput is everything the calculator needs for one employee and period.
type CalculationInput struct {
	EmployeeID      string
	TimeClocks      []timeclock.TimeClock
	HourlyRate      decimal.Decimal
	OvertimeEnabled bool
	PeriodStart     time.Time
	PeriodEnd       time.Time
}

type CalculationResult struct {
	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal
	HolidayHours  decimal.Decimal
	GrossPay      decimal.Decimal
}

// Calculator classifies worked time into regular, overtime and holiday buckets.
// It holds no state between calls.
type Calculator struct {
	holidayRepo holiday.HolidayRepository
	eligibility EligibilityChecker
	loc         *time.Location
}

func NewCalculator(holidayRepo holiday.HolidayRepository, eligibility EligibilityChecker, loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{
		holidayRepo: holidayRepo,
		eligibility: eligibility,
		loc:         loc,
	}
}

func (c *Calculator) Calculate(ctx context.Context, in CalculationInput) (CalculationResult, error) {
	holidays, err := c.holidayRepo.FindByDateRange(ctx, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return CalculationResult{}, fmt.Errorf("failed to load statutory holidays: %w", err)
	}
	holidayDays := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		holidayDays[h.Date.Format(validator.DateLayout)] = true
	}

	// Eligibility only depends on employee and date, so one lookup per day is enough.
	eligibleByDay := make(map[string]bool)
	isEligible := func(day time.Time) (bool, error) {
		key := day.Format(validator.DateLayout)
		if v, ok := eligibleByDay[key]; ok {
			return v, nil
		}
		v, err := c.eligibility.IsEligible(ctx, in.EmployeeID, day)
		if err != nil {
			return false, fmt.Errorf("failed to check holiday eligibility for %s: %w", key, err)
		}
		eligibleByDay[key] = v
		return v, nil
	}

	result, err := classifyHours(in, holidayDays, isEligible, c.loc)
	if err != nil {
		return CalculationResult{}, err
	}
	return result, nil
}

// classifyHours runs the three calculation steps over already fetched inputs.
func classifyHours(
	in CalculationInput,
	holidayDays map[string]bool,
	isEligible func(day time.Time) (bool, error),
	loc *time.Location,
) (CalculationResult, error) {
	regular := decimal.Zero
	overtime := decimal.Zero
	holidayHours := decimal.Zero

	// Hours per non-holiday calendar day; these are the only hours the daily
	// thresholds look at.
	dailyHours := make(map[time.Time]decimal.Decimal)
	weeklyHours := make(map[time.Time]decimal.Decimal)

	// Step 1: classification
	for _, tc := range in.TimeClocks {
		if !tc.IsCompleted() {
			continue
		}
		hours := tc.Hours()
		day := validator.TruncateToDate(tc.ClockInTime.In(loc))
		week := weekStart(day)

		weeklyHours[week] = weeklyHours[week].Add(hours)

		isHoliday := holidayDays[day.Format(validator.DateLayout)] || tc.IsStatutoryHoliday
		if isHoliday {
			eligible, err := isEligible(day)
			if err != nil {
				return CalculationResult{}, err
			}
			if eligible {
				holidayHours = holidayHours.Add(hours)
			} else {
				// Plain pay when overtime is off; dropped by the rebuild below when it is on.
				regular = regular.Add(hours)
			}
			continue
		}

		dailyHours[day] = dailyHours[day].Add(hours)
		if tc.IsScheduledOvertime() {
			overtime = overtime.Add(hours)
		} else {
			regular = regular.Add(hours)
		}
	}

	// Step 2: daily then weekly reconciliation over non-holiday days only,
	// holiday hours stay untouched
	if in.OvertimeEnabled {
		regular = decimal.Zero
		overtime = decimal.Zero

		for _, day := range sortedKeys(dailyHours) {
			r, ot := splitDay(dailyHours[day])
			regular = regular.Add(r)
			overtime = overtime.Add(ot)
		}

		for _, week := range sortedKeys(weeklyHours) {
			total := weeklyHours[week]
			if !total.GreaterThan(weeklyRegularLimit) {
				continue
			}
			weeklyOvertime := total.Sub(weeklyRegularLimit)
			// Approximation: compares against all overtime so far, not the hours of this week.
			additional := decimal.Max(decimal.Zero, weeklyOvertime.Sub(overtime.Div(timeAndAHalf)))
			if additional.IsPositive() {
				overtime = overtime.Add(additional.Mul(timeAndAHalf))
				regular = regular.Sub(additional)
			}
		}
	}

	regular = regular.Round(hoursPlaces)
	overtime = overtime.Round(hoursPlaces)
	holidayHours = holidayHours.Round(hoursPlaces)

	return CalculationResult{
		RegularHours:  regular,
		OvertimeHours: overtime,
		HolidayHours:  holidayHours,
		GrossPay:      GrossPay(regular, overtime, holidayHours, in.HourlyRate),
	}, nil
}

// splitDay applies the daily thresholds. Overtime comes back premium-adjusted.
func splitDay(hours decimal.Decimal) (regular, overtime decimal.Decimal) {
	switch {
	case !hours.GreaterThan(dailyRegularLimit):
		return hours, decimal.Zero
	case !hours.GreaterThan(dailyDoubleLimit):
		return dailyRegularLimit, hours.Sub(dailyRegularLimit).Mul(timeAndAHalf)
	default:
		ot := dailyDoubleLimit.Sub(dailyRegularLimit).Mul(timeAndAHalf).
			Add(hours.Sub(dailyDoubleLimit).Mul(doubleTime))
		return dailyRegularLimit, ot
	}
}

// GrossPay prices the hour buckets. Overtime already carries its multiplier,
// holiday hours are paid at time and a half here.
func GrossPay(regular, overtime, holidayHours, rate decimal.Decimal) decimal.Decimal {
	return regular.Mul(rate).
		Add(overtime.Mul(rate)).
		Add(holidayHours.Mul(rate).Mul(timeAndAHalf)).
		Round(moneyPlaces)
}

// weekStart returns the Sunday on or before day.
func weekStart(day time.Time) time.Time {
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func sortedKeys(m map[time.Time]decimal.Decimal) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
