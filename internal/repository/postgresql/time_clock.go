package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/timeclock"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
)

type timeClockRepository struct {
	db *database.DB
	// Clock-in dates are bucketed in this zone
	loc *time.Location
}

func NewTimeClockRepository(db *database.DB, loc *time.Location) timeclock.TimeClockRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &timeClockRepository{db: db, loc: loc}
}

func (r *timeClockRepository) FindCompleted(ctx context.Context, employeeID string, startDate, endDate time.Time) ([]timeclock.TimeClock, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT t.id, t.employee_id, t.clock_in_time, t.clock_out_time, t.total_minutes,
			   t.schedule_id, s.schedule_type, COALESCE(s.is_statutory_holiday, FALSE)
		FROM time_clocks t
		LEFT JOIN schedules s ON s.id = t.schedule_id
		WHERE t.employee_id = $1
		  AND t.clock_out_time IS NOT NULL
		  AND t.total_minutes IS NOT NULL
		  AND (t.clock_in_time AT TIME ZONE $4)::date BETWEEN $2::date AND $3::date
		ORDER BY t.clock_in_time
	`

	rows, err := q.Query(ctx, query, employeeID, startDate, endDate, r.loc.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list time clocks: %w", err)
	}
	defer rows.Close()

	var clocks []timeclock.TimeClock
	for rows.Next() {
		var (
			tc           timeclock.TimeClock
			scheduleType *string
		)
		if err := rows.Scan(
			&tc.ID, &tc.EmployeeID, &tc.ClockInTime, &tc.ClockOutTime, &tc.TotalMinutes,
			&tc.ScheduleID, &scheduleType, &tc.IsStatutoryHoliday,
		); err != nil {
			return nil, fmt.Errorf("failed to scan time clock: %w", err)
		}
		if scheduleType != nil {
			st := timeclock.ScheduleType(*scheduleType)
			tc.ScheduleType = &st
		}
		clocks = append(clocks, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time clocks: %w", err)
	}

	return clocks, nil
}

func (r *timeClockRepository) FindCompletedClockIns(ctx context.Context, employeeID string, from, to time.Time) ([]time.Time, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT clock_in_time
		FROM time_clocks
		WHERE employee_id = $1
		  AND clock_out_time IS NOT NULL
		  AND total_minutes IS NOT NULL
		  AND clock_in_time >= $2
		  AND clock_in_time < $3
		ORDER BY clock_in_time
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list clock-ins: %w", err)
	}
	defer rows.Close()

	var clockIns []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan clock-in: %w", err)
		}
		clockIns = append(clockIns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clock-ins: %w", err)
	}

	return clockIns, nil
}
