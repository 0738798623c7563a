package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
)

type holidayRepository struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) holiday.HolidayRepository {
	return &holidayRepository{db: db}
}

func (r *holidayRepository) FindByDateRange(ctx context.Context, startDate, endDate time.Time) ([]holiday.StatutoryHoliday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, date, province, name
		FROM statutory_holidays
		WHERE date BETWEEN $1::date AND $2::date
		ORDER BY date, province
	`

	rows, err := q.Query(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list statutory holidays: %w", err)
	}
	defer rows.Close()

	var holidays []holiday.StatutoryHoliday
	for rows.Next() {
		var h holiday.StatutoryHoliday
		if err := rows.Scan(&h.ID, &h.Date, &h.Province, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan statutory holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate statutory holidays: %w", err)
	}

	return holidays, nil
}
