package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
)

type PayPeriodServiceImpl struct {
	periodRepo payroll.PayPeriodRepository
}

func NewPayPeriodService(periodRepo payroll.PayPeriodRepository) payroll.PayPeriodService {
	return &PayPeriodServiceImpl{periodRepo: periodRepo}
}

func (s *PayPeriodServiceImpl) Create(ctx context.Context, req payroll.CreatePayPeriodRequest) (payroll.PayPeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayPeriodResponse{}, err
	}

	start := payroll.ParseDate(req.StartDate)
	end := payroll.ParseDate(req.EndDate)

	if err := s.ensureNoOverlap(ctx, start, end, ""); err != nil {
		return payroll.PayPeriodResponse{}, err
	}

	status := payroll.PayPeriodStatusDraft
	if req.Status != nil {
		status = payroll.PayPeriodStatus(*req.Status)
	}

	created, err := s.periodRepo.Create(ctx, payroll.PayPeriod{
		StartDate: start,
		EndDate:   end,
		Type:      payroll.PayPeriodType(req.Type),
		Status:    status,
	})
	if err != nil {
		if errors.Is(err, payroll.ErrPayPeriodOverlap) {
			return payroll.PayPeriodResponse{}, overlapError(nil)
		}
		return payroll.PayPeriodResponse{}, err
	}

	return mapToPeriodResponse(created), nil
}

func (s *PayPeriodServiceImpl) Get(ctx context.Context, id string) (payroll.PayPeriodResponse, error) {
	period, err := s.periodRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayPeriodResponse{}, err
	}
	return mapToPeriodResponse(period), nil
}

func (s *PayPeriodServiceImpl) List(ctx context.Context, filter payroll.PayPeriodFilter) ([]payroll.PayPeriodResponse, error) {
	if filter.Status != nil && !validator.IsInSlice(*filter.Status, payroll.PayPeriodStatusValues) {
		return nil, validator.Single("status", "must be one of DRAFT, PROCESSING, COMPLETED, PAID")
	}

	periods, err := s.periodRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.PayPeriodResponse, 0, len(periods))
	for _, p := range periods {
		result = append(result, mapToPeriodResponse(p))
	}
	return result, nil
}

func (s *PayPeriodServiceImpl) Update(ctx context.Context, req payroll.UpdatePayPeriodRequest) (payroll.PayPeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayPeriodResponse{}, err
	}

	current, err := s.periodRepo.GetByID(ctx, req.ID)
	if err != nil {
		return payroll.PayPeriodResponse{}, err
	}

	// Calculations are bound to the dates and type they were computed against
	if req.ChangesLockedFields() && current.CalculationCount > 0 && current.Status != payroll.PayPeriodStatusDraft {
		return payroll.PayPeriodResponse{}, validator.Single("pay_period",
			fmt.Sprintf("dates and type cannot change once calculations exist and status is %s", current.Status))
	}

	updated := current
	if req.StartDate != nil {
		updated.StartDate = payroll.ParseDate(*req.StartDate)
	}
	if req.EndDate != nil {
		updated.EndDate = payroll.ParseDate(*req.EndDate)
	}
	if req.Type != nil {
		updated.Type = payroll.PayPeriodType(*req.Type)
	}

	if !updated.StartDate.Before(updated.EndDate) {
		return payroll.PayPeriodResponse{}, validator.Single("start_date", "must be before end_date")
	}

	if req.StartDate != nil || req.EndDate != nil {
		if err := s.ensureNoOverlap(ctx, updated.StartDate, updated.EndDate, updated.ID); err != nil {
			return payroll.PayPeriodResponse{}, err
		}
	}

	if err := s.periodRepo.Update(ctx, updated); err != nil {
		if errors.Is(err, payroll.ErrPayPeriodOverlap) {
			return payroll.PayPeriodResponse{}, overlapError(nil)
		}
		return payroll.PayPeriodResponse{}, err
	}

	return s.Get(ctx, updated.ID)
}

func (s *PayPeriodServiceImpl) Delete(ctx context.Context, id string) error {
	period, err := s.periodRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if period.CalculationCount > 0 {
		return validator.Single("pay_period", "cannot delete a pay period that has calculations")
	}

	return s.periodRepo.Delete(ctx, id)
}

func (s *PayPeriodServiceImpl) ensureNoOverlap(ctx context.Context, start, end time.Time, excludeID string) error {
	existing, err := s.periodRepo.FindOverlapping(ctx, start, end, excludeID)
	if err != nil {
		return err
	}
	for _, p := range existing {
		if p.ID == excludeID {
			continue
		}
		if p.Overlaps(start, end) {
			return overlapError(&p)
		}
	}
	return nil
}

func overlapError(p *payroll.PayPeriod) error {
	msg := "overlaps an existing pay period"
	if p != nil {
		msg = fmt.Sprintf("overlaps pay period %s (%s to %s)", p.ID,
			p.StartDate.Format(validator.DateLayout), p.EndDate.Format(validator.DateLayout))
	}
	return validator.Single("date_range", msg)
}

func mapToPeriodResponse(p payroll.PayPeriod) payroll.PayPeriodResponse {
	return payroll.PayPeriodResponse{
		ID:               p.ID,
		StartDate:        p.StartDate.Format(validator.DateLayout),
		EndDate:          p.EndDate.Format(validator.DateLayout),
		Type:             string(p.Type),
		Status:           string(p.Status),
		CalculationCount: p.CalculationCount,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
}
