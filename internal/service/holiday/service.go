package holiday

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
)

// maxRangeDays caps a single listing request.
const maxRangeDays = 366

type HolidayServiceImpl struct {
	holidayRepo holiday.HolidayRepository
}

func NewHolidayService(holidayRepo holiday.HolidayRepository) holiday.HolidayService {
	return &HolidayServiceImpl{holidayRepo: holidayRepo}
}

func (s *HolidayServiceImpl) List(ctx context.Context, start, end string) ([]holiday.HolidayResponse, error) {
	var errs validator.ValidationErrors
	startDate, ok := validator.IsValidDate(start)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "start", Message: "must be a date in YYYY-MM-DD format"})
	}
	endDate, ok := validator.IsValidDate(end)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "end", Message: "must be a date in YYYY-MM-DD format"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if endDate.Before(startDate) || endDate.Sub(startDate) > maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("%w: end must be on or after start and at most %d days later", holiday.ErrInvalidDateRange, maxRangeDays)
	}

	holidays, err := s.holidayRepo.FindByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	result := make([]holiday.HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		result = append(result, holiday.HolidayResponse{
			ID:       h.ID,
			Date:     h.Date.Format(validator.DateLayout),
			Province: h.Province,
			Name:     h.Name,
		})
	}
	return result, nil
}
