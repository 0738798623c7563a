package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/timeclock"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
)

const (
	eligibilityWindowDays  = 30
	eligibilityMinWorkDays = 15
)

// HolidayEligibility decides whether an employee earns statutory holiday pay on a date:
// hired at least 30 days before it, and clocked in on at least 15 distinct days
// during the 30 days before it.
type HolidayEligibility struct {
	employeeRepo  employee.EmployeeRepository
	timeClockRepo timeclock.TimeClockRepository
	loc           *time.Location
}

func NewHolidayEligibility(employeeRepo employee.EmployeeRepository, timeClockRepo timeclock.TimeClockRepository, loc *time.Location) *HolidayEligibility {
	if loc == nil {
		loc = time.UTC
	}
	return &HolidayEligibility{
		employeeRepo:  employeeRepo,
		timeClockRepo: timeClockRepo,
		loc:           loc,
	}
}

// IsEligible returns false without error for unknown employees. Storage failures
// are returned so a payroll run does not silently drop holiday pay.
func (h *HolidayEligibility) IsEligible(ctx context.Context, employeeID string, holidayDate time.Time) (bool, error) {
	emp, err := h.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get employee: %w", err)
	}

	holidayDay := validator.TruncateToDate(holidayDate.In(h.loc))
	windowStart := holidayDay.AddDate(0, 0, -eligibilityWindowDays)

	if dateOnly(emp.HireDate, h.loc).After(windowStart) {
		return false, nil
	}

	clockIns, err := h.timeClockRepo.FindCompletedClockIns(ctx, employeeID, windowStart, holidayDay)
	if err != nil {
		return false, fmt.Errorf("failed to get clock-ins: %w", err)
	}

	workedDays := make(map[string]struct{})
	for _, in := range clockIns {
		day := validator.TruncateToDate(in.In(h.loc))
		if day.Before(windowStart) || !day.Before(holidayDay) {
			continue
		}
		workedDays[day.Format(validator.DateLayout)] = struct{}{}
	}

	return len(workedDays) >= eligibilityMinWorkDays, nil
}

// dateOnly reinterprets a stored calendar date (hire date, holiday date) in loc.
func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
