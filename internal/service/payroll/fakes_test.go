package payroll

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/timeclock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ========== RUN LOCK ==========

// fakeRunLocker hands out non-blocking per-key locks in memory.
type fakeRunLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newFakeRunLocker() *fakeRunLocker {
	return &fakeRunLocker{held: make(map[string]struct{})}
}

func (l *fakeRunLocker) TryLock(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}

func (l *fakeRunLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// ========== PAY PERIODS ==========

type fakePeriodRepo struct {
	mu            sync.Mutex
	periods       map[string]payroll.PayPeriod
	calcs         *fakeCalcRepo
	statusHistory []payroll.PayPeriodStatus
	statusErr     map[payroll.PayPeriodStatus]error
}

func newFakePeriodRepo(calcs *fakeCalcRepo) *fakePeriodRepo {
	return &fakePeriodRepo{
		periods:   make(map[string]payroll.PayPeriod),
		calcs:     calcs,
		statusErr: make(map[payroll.PayPeriodStatus]error),
	}
}

func (r *fakePeriodRepo) seed(p payroll.PayPeriod) payroll.PayPeriod {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Type == "" {
		p.Type = payroll.PayPeriodTypeSemiMonthly
	}
	if p.Status == "" {
		p.Status = payroll.PayPeriodStatusDraft
	}
	r.periods[p.ID] = p
	return p
}

func (r *fakePeriodRepo) status(id string) payroll.PayPeriodStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.periods[id].Status
}

func (r *fakePeriodRepo) withCount(p payroll.PayPeriod) payroll.PayPeriod {
	if r.calcs != nil {
		p.CalculationCount = r.calcs.countFor(p.ID)
	}
	return p
}

func (r *fakePeriodRepo) Create(_ context.Context, period payroll.PayPeriod) (payroll.PayPeriod, error) {
	period.ID = uuid.NewString()
	period.CreatedAt = time.Now()
	period.UpdatedAt = period.CreatedAt
	r.mu.Lock()
	r.periods[period.ID] = period
	r.mu.Unlock()
	return period, nil
}

func (r *fakePeriodRepo) GetByID(_ context.Context, id string) (payroll.PayPeriod, error) {
	r.mu.Lock()
	p, ok := r.periods[id]
	r.mu.Unlock()
	if !ok {
		return payroll.PayPeriod{}, payroll.NewPayPeriodNotFound(id)
	}
	return r.withCount(p), nil
}

func (r *fakePeriodRepo) List(_ context.Context, filter payroll.PayPeriodFilter) ([]payroll.PayPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.PayPeriod
	for _, p := range r.periods {
		if filter.Status != nil && string(p.Status) != *filter.Status {
			continue
		}
		out = append(out, r.withCount(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *fakePeriodRepo) FindOverlapping(_ context.Context, start, end time.Time, excludeID string) ([]payroll.PayPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.PayPeriod
	for _, p := range r.periods {
		if p.ID == excludeID {
			continue
		}
		if p.Overlaps(start, end) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePeriodRepo) Update(_ context.Context, period payroll.PayPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.periods[period.ID]; !ok {
		return payroll.NewPayPeriodNotFound(period.ID)
	}
	period.CalculationCount = 0
	r.periods[period.ID] = period
	return nil
}

func (r *fakePeriodRepo) UpdateStatus(_ context.Context, id string, status payroll.PayPeriodStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.statusErr[status]; err != nil {
		return err
	}
	p, ok := r.periods[id]
	if !ok {
		return payroll.NewPayPeriodNotFound(id)
	}
	p.Status = status
	r.periods[id] = p
	r.statusHistory = append(r.statusHistory, status)
	return nil
}

func (r *fakePeriodRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.periods[id]; !ok {
		return payroll.NewPayPeriodNotFound(id)
	}
	delete(r.periods, id)
	return nil
}

// ========== PAY CALCULATIONS ==========

type fakeCalcRepo struct {
	mu          sync.Mutex
	calcs       map[string]payroll.PayCalculation
	adjustments []payroll.PayAdjustment
	employees   *fakeEmployeeRepo
	createErr   error
}

func newFakeCalcRepo(employees *fakeEmployeeRepo) *fakeCalcRepo {
	return &fakeCalcRepo{
		calcs:     make(map[string]payroll.PayCalculation),
		employees: employees,
	}
}

func (r *fakeCalcRepo) countFor(periodID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calcs {
		if c.PayPeriodID == periodID {
			n++
		}
	}
	return n
}

func (r *fakeCalcRepo) forPeriod(periodID string) []payroll.PayCalculation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.PayCalculation
	for _, c := range r.calcs {
		if c.PayPeriodID == periodID {
			out = append(out, c)
		}
	}
	return out
}

func (r *fakeCalcRepo) seed(c payroll.PayCalculation) payroll.PayCalculation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.calcs[c.ID] = c
	return c
}

func (r *fakeCalcRepo) Create(_ context.Context, calc payroll.PayCalculation) (payroll.PayCalculation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return payroll.PayCalculation{}, r.createErr
	}
	for _, c := range r.calcs {
		if c.PayPeriodID == calc.PayPeriodID && c.EmployeeID == calc.EmployeeID {
			return payroll.PayCalculation{}, payroll.ErrPayCalculationExists
		}
	}
	calc.ID = uuid.NewString()
	calc.CreatedAt = time.Now()
	calc.UpdatedAt = calc.CreatedAt
	r.calcs[calc.ID] = calc
	return calc, nil
}

func (r *fakeCalcRepo) joined(c payroll.PayCalculation) payroll.PayCalculation {
	if r.employees != nil {
		if e, ok := r.employees.byID[c.EmployeeID]; ok {
			first, last := e.FirstName, e.LastName
			c.FirstName, c.LastName = &first, &last
		}
	}
	sum := decimal.Zero
	for _, a := range r.adjustments {
		if a.PayCalculationID == c.ID {
			sum = sum.Add(a.Amount)
		}
	}
	c.AdjustmentsSum = sum
	return c
}

func (r *fakeCalcRepo) GetByID(_ context.Context, id string) (payroll.PayCalculation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calcs[id]
	if !ok {
		return payroll.PayCalculation{}, payroll.NewPayCalculationNotFound(id)
	}
	return r.joined(c), nil
}

func (r *fakeCalcRepo) ExistsForEmployee(_ context.Context, payPeriodID, employeeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calcs {
		if c.PayPeriodID == payPeriodID && c.EmployeeID == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCalcRepo) ListByPayPeriod(_ context.Context, payPeriodID string) ([]payroll.PayCalculation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.PayCalculation
	for _, c := range r.calcs {
		if c.PayPeriodID == payPeriodID {
			out = append(out, r.joined(c))
		}
	}
	// Map order is random; the service must sort for export
	return out, nil
}

func (r *fakeCalcRepo) CreateAdjustment(_ context.Context, adj payroll.PayAdjustment) (payroll.PayAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	adj.ID = uuid.NewString()
	adj.CreatedAt = time.Now()
	r.adjustments = append(r.adjustments, adj)
	return adj, nil
}

func (r *fakeCalcRepo) ListAdjustments(_ context.Context, payCalculationID string) ([]payroll.PayAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.PayAdjustment
	for _, a := range r.adjustments {
		if a.PayCalculationID == payCalculationID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeCalcRepo) IncrementGrossPay(_ context.Context, payCalculationID string, amount decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calcs[payCalculationID]
	if !ok {
		return decimal.Decimal{}, payroll.NewPayCalculationNotFound(payCalculationID)
	}
	c.GrossPay = c.GrossPay.Add(amount)
	r.calcs[payCalculationID] = c
	return c.GrossPay, nil
}

// ========== COLLABORATORS ==========

type fakeEmployeeRepo struct {
	byID  map[string]employee.Employee
	order []string
	err   error
}

func newFakeEmployeeRepo(employees ...employee.Employee) *fakeEmployeeRepo {
	r := &fakeEmployeeRepo{byID: make(map[string]employee.Employee)}
	for _, e := range employees {
		r.add(e)
	}
	return r
}

func (r *fakeEmployeeRepo) add(e employee.Employee) {
	if _, exists := r.byID[e.ID]; !exists {
		r.order = append(r.order, e.ID)
	}
	r.byID[e.ID] = e
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	if r.err != nil {
		return employee.Employee{}, r.err
	}
	e, ok := r.byID[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *fakeEmployeeRepo) FindActive(_ context.Context, asOf time.Time) ([]employee.Employee, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []employee.Employee
	for _, id := range r.order {
		if e := r.byID[id]; e.IsActiveOn(asOf) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeTimeClockRepo struct {
	clocks []timeclock.TimeClock
	// failFor makes FindCompleted fail for one employee
	failFor map[string]error
	onFind  func(employeeID string)
}

func (r *fakeTimeClockRepo) FindCompleted(_ context.Context, employeeID string, startDate, endDate time.Time) ([]timeclock.TimeClock, error) {
	if r.onFind != nil {
		r.onFind(employeeID)
	}
	if err := r.failFor[employeeID]; err != nil {
		return nil, err
	}
	var out []timeclock.TimeClock
	for _, tc := range r.clocks {
		if tc.EmployeeID != employeeID || !tc.IsCompleted() {
			continue
		}
		day := time.Date(tc.ClockInTime.Year(), tc.ClockInTime.Month(), tc.ClockInTime.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(startDate) || day.After(endDate) {
			continue
		}
		out = append(out, tc)
	}
	return out, nil
}

func (r *fakeTimeClockRepo) FindCompletedClockIns(_ context.Context, employeeID string, from, to time.Time) ([]time.Time, error) {
	if err := r.failFor[employeeID]; err != nil {
		return nil, err
	}
	var out []time.Time
	for _, tc := range r.clocks {
		if tc.EmployeeID != employeeID || !tc.IsCompleted() {
			continue
		}
		if tc.ClockInTime.Before(from) || !tc.ClockInTime.Before(to) {
			continue
		}
		out = append(out, tc.ClockInTime)
	}
	return out, nil
}

type fakeHolidayRepo struct {
	holidays []holiday.StatutoryHoliday
	err      error
}

func (r *fakeHolidayRepo) FindByDateRange(_ context.Context, startDate, endDate time.Time) ([]holiday.StatutoryHoliday, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []holiday.StatutoryHoliday
	for _, h := range r.holidays {
		if h.Date.Before(startDate) || h.Date.After(endDate) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// fakeEligibility answers from a fixed set of eligible dates
type fakeEligibility struct {
	eligible map[string]bool
	calls    int
	err      error
}

func (f *fakeEligibility) IsEligible(_ context.Context, _ string, holidayDate time.Time) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.eligible[holidayDate.Format("2006-01-02")], nil
}

type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (p *fakePublisher) Publish(_ context.Context, event notification.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) types() []notification.NotificationType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notification.NotificationType
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeMetrics struct {
	mu          sync.Mutex
	outcomes    []string
	employees   int
	adjustments int
}

func (m *fakeMetrics) ObserveRun(outcome string, _ time.Duration, employees int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
	m.employees += employees
}

func (m *fakeMetrics) IncAdjustment() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustments++
}

// ========== BUILDERS ==========

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

// worked builds a completed record starting at startHour UTC on day.
func worked(employeeID string, day time.Time, startHour int, minutes int) timeclock.TimeClock {
	in := day.Add(time.Duration(startHour) * time.Hour)
	out := in.Add(time.Duration(minutes) * time.Minute)
	return timeclock.TimeClock{
		ID:           uuid.NewString(),
		EmployeeID:   employeeID,
		ClockInTime:  in,
		ClockOutTime: &out,
		TotalMinutes: &minutes,
	}
}

func scheduled(tc timeclock.TimeClock, st timeclock.ScheduleType) timeclock.TimeClock {
	tc.ScheduleID = ptr(uuid.NewString())
	tc.ScheduleType = &st
	return tc
}
