package payroll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPeriodFixture() (*PayPeriodServiceImpl, *fakePeriodRepo, *fakeCalcRepo) {
	calcs := newFakeCalcRepo(nil)
	periods := newFakePeriodRepo(calcs)
	return NewPayPeriodService(periods).(*PayPeriodServiceImpl), periods, calcs
}

func requireValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validation error, got %v", err)
	assert.Contains(t, verrs.ToMap(), field)
}

func TestPayPeriodService_Create(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newPeriodFixture()

	resp, err := svc.Create(ctx, payroll.CreatePayPeriodRequest{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-15",
		Type:      "SEMI_MONTHLY",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "2024-03-01", resp.StartDate)
	assert.Equal(t, "2024-03-15", resp.EndDate)
	assert.Equal(t, "DRAFT", resp.Status)
}

func TestPayPeriodService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newPeriodFixture()

	tests := []struct {
		name  string
		req   payroll.CreatePayPeriodRequest
		field string
	}{
		{name: "start equals end", req: payroll.CreatePayPeriodRequest{StartDate: "2024-03-01", EndDate: "2024-03-01", Type: "MONTHLY"}, field: "start_date"},
		{name: "start after end", req: payroll.CreatePayPeriodRequest{StartDate: "2024-03-10", EndDate: "2024-03-01", Type: "MONTHLY"}, field: "start_date"},
		{name: "bad date", req: payroll.CreatePayPeriodRequest{StartDate: "03/01/2024", EndDate: "2024-03-31", Type: "MONTHLY"}, field: "start_date"},
		{name: "missing end", req: payroll.CreatePayPeriodRequest{StartDate: "2024-03-01", Type: "MONTHLY"}, field: "end_date"},
		{name: "unknown type", req: payroll.CreatePayPeriodRequest{StartDate: "2024-03-01", EndDate: "2024-03-31", Type: "WEEKLY"}, field: "type"},
		{name: "unknown status", req: payroll.CreatePayPeriodRequest{StartDate: "2024-03-01", EndDate: "2024-03-31", Type: "MONTHLY", Status: ptr("OPEN")}, field: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			requireValidationField(t, err, tt.field)
		})
	}
}

func TestPayPeriodService_Create_Overlap(t *testing.T) {
	ctx := context.Background()
	svc, periods, _ := newPeriodFixture()
	periods.seed(payroll.PayPeriod{StartDate: date(2024, time.March, 1), EndDate: date(2024, time.March, 15)})

	overlapping := [][2]string{
		{"2024-03-15", "2024-03-31"}, // touches the end
		{"2024-02-15", "2024-03-01"}, // touches the start
		{"2024-03-05", "2024-03-10"}, // inside
		{"2024-02-01", "2024-04-01"}, // contains
	}
	for _, r := range overlapping {
		_, err := svc.Create(ctx, payroll.CreatePayPeriodRequest{StartDate: r[0], EndDate: r[1], Type: "SEMI_MONTHLY"})
		requireValidationField(t, err, "date_range")
	}

	_, err := svc.Create(ctx, payroll.CreatePayPeriodRequest{StartDate: "2024-03-16", EndDate: "2024-03-31", Type: "SEMI_MONTHLY"})
	assert.NoError(t, err)
}

func TestPayPeriodService_Get_NotFound(t *testing.T) {
	svc, _, _ := newPeriodFixture()

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, payroll.ErrPayPeriodNotFound)
}

func TestPayPeriodService_List(t *testing.T) {
	ctx := context.Background()
	svc, periods, _ := newPeriodFixture()
	periods.seed(payroll.PayPeriod{StartDate: date(2024, time.March, 1), EndDate: date(2024, time.March, 15)})
	periods.seed(payroll.PayPeriod{StartDate: date(2024, time.March, 16), EndDate: date(2024, time.March, 31), Status: payroll.PayPeriodStatusPaid})

	all, err := svc.List(ctx, payroll.PayPeriodFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	paid, err := svc.List(ctx, payroll.PayPeriodFilter{Status: ptr("PAID")})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "2024-03-16", paid[0].StartDate)

	_, err = svc.List(ctx, payroll.PayPeriodFilter{Status: ptr("OPEN")})
	requireValidationField(t, err, "status")
}

func TestPayPeriodService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("moves dates within its own range", func(t *testing.T) {
		svc, periods, _ := newPeriodFixture()
		p := periods.seed(payroll.PayPeriod{StartDate: date(2024, time.March, 1), EndDate: date(2024, time.March, 15)})

		resp, err := svc.Update(ctx, payroll.UpdatePayPeriodRequest{ID: p.ID, EndDate: ptr("2024-03-14")})
		require.NoError(t, err)
		assert.Equal(t, "2024-03-14", resp.EndDate)
	})

	t.Run("rejects overlap with another period", func(t *testing.T) {
		svc, periods, _ := newPeriodFixture()
		p := periods.seed(payroll.PayPeriod{StartDate: date(2024, time.March, 1), EndDate: date(2024, time.March, 15)})
		periods.seed(payroll.PayPeriod{StartDate: date(2024, time.March, 16), EndDate: date(2024, time.March, 31)})

		_, err := svc.Update(ctx, payroll.UpdatePayPeriodRequest{ID: p.ID, EndDate: ptr("2024-03-16")})
		requireValidationField(t, err, "date_range")
	})

	t.Run("rejects start on or after the current end", func(t *testing.T) {
		svc, periods, _ := newPeriodFixture()
		p := periods.seed(payroll.PayPeriod{StartDate: date(2024, time.March, 1), EndDate: date(2024, time.March, 15)})

		_, err := svc.Update(ctx, payroll.UpdatePayPeriodRequest{ID: p.ID, StartDate: ptr("2024-03-15")})
		requireValidationField(t, err, "start_date")
	})

	t.Run("locks dates once calculated and out of draft", func(t *testing.T) {
		svc, periods, calcs := newPeriodFixture()
		p := periods.seed(payroll.PayPeriod{
			StartDate: date(2024, time.March, 1), EndDate: date(2024, time.March, 15),
			Status: payroll.PayPeriodStatusCompleted,
		})
		calcs.seed(payroll.PayCalculation{PayPeriodID: p.ID, EmployeeID: "emp-1"})

		_, err := svc.Update(ctx, payroll.UpdatePayPeriodRequest{ID: p.ID, Type: ptr("MONTHLY")})
		requireValidationField(t, err, "pay_period")
	})

	t.Run("draft with calculations can still change dates", func(t *testing.T) {
		svc, periods, calcs := newPeriodFixture()
		p := periods.seed(payroll.PayPeriod{StartDate: date(2024, time.March, 1), EndDate: date(2024, time.March, 15)})
		calcs.seed(payroll.PayCalculation{PayPeriodID: p.ID, EmployeeID: "emp-1"})

		resp, err := svc.Update(ctx, payroll.UpdatePayPeriodRequest{ID: p.ID, StartDate: ptr("2024-03-02")})
		require.NoError(t, err)
		assert.Equal(t, "2024-03-02", resp.StartDate)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _, _ := newPeriodFixture()
		_, err := svc.Update(ctx, payroll.UpdatePayPeriodRequest{ID: "missing", Type: ptr("MONTHLY")})
		assert.ErrorIs(t, err, payroll.ErrPayPeriodNotFound)
	})
}

func TestPayPeriodService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, periods, calcs := newPeriodFixture()

	withCalc := periods.seed(payroll.PayPeriod{StartDate: date(2024, time.March, 1), EndDate: date(2024, time.March, 15)})
	calcs.seed(payroll.PayCalculation{PayPeriodID: withCalc.ID, EmployeeID: "emp-1"})
	empty := periods.seed(payroll.PayPeriod{StartDate: date(2024, time.March, 16), EndDate: date(2024, time.March, 31)})

	err := svc.Delete(ctx, withCalc.ID)
	requireValidationField(t, err, "pay_period")

	require.NoError(t, svc.Delete(ctx, empty.ID))
	_, err = svc.Get(ctx, empty.ID)
	assert.ErrorIs(t, err, payroll.ErrPayPeriodNotFound)
}
