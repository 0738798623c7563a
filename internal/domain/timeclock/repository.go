package timeclock

import (
	"context"
	"time"
)

type TimeClockRepository interface {
	// FindCompleted returns completed records of the employee whose clock-in
	// falls on a date within [startDate, endDate], both inclusive.
	FindCompleted(ctx context.Context, employeeID string, startDate, endDate time.Time) ([]TimeClock, error)

	// FindCompletedClockIns returns clock-in times of completed records in [from, to).
	FindCompletedClockIns(ctx context.Context, employeeID string, from, to time.Time) ([]time.Time, error)
}
