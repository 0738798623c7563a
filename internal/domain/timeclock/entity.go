package timeclock

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleType of the shift a clock record is linked to
type ScheduleType string

const (
	ScheduleTypeRegular  ScheduleType = "REGULAR"
	ScheduleTypeOvertime ScheduleType = "OVERTIME"
	ScheduleTypeHoliday  ScheduleType = "HOLIDAY"
)

// TimeClock is a clock-in/clock-out record. Only completed records
// (ClockOutTime and TotalMinutes set) take part in payroll.
type TimeClock struct {
	ID           string
	EmployeeID   string
	ClockInTime  time.Time
	ClockOutTime *time.Time
	TotalMinutes *int

	// Linked schedule, nil when the clock record has no shift
	ScheduleID         *string
	ScheduleType       *ScheduleType
	IsStatutoryHoliday bool
}

func (t TimeClock) IsCompleted() bool {
	return t.ClockOutTime != nil && t.TotalMinutes != nil
}

// Hours returns TotalMinutes / 60. Callers must check IsCompleted first.
func (t TimeClock) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(*t.TotalMinutes)).Div(decimal.NewFromInt(60))
}

func (t TimeClock) IsScheduledOvertime() bool {
	return t.ScheduleType != nil && *t.ScheduleType == ScheduleTypeOvertime
}
