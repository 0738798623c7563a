package holiday

import (
	"context"
	"time"
)

type HolidayRepository interface {
	// FindByDateRange returns holidays dated within [startDate, endDate], both inclusive
	FindByDateRange(ctx context.Context, startDate, endDate time.Time) ([]StatutoryHoliday, error)
}
