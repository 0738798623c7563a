package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/export"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Pay periods
	CreatePayPeriod(w http.ResponseWriter, r *http.Request)
	GetPayPeriod(w http.ResponseWriter, r *http.Request)
	ListPayPeriods(w http.ResponseWriter, r *http.Request)
	UpdatePayPeriod(w http.ResponseWriter, r *http.Request)
	DeletePayPeriod(w http.ResponseWriter, r *http.Request)

	// Payroll runs
	CalculatePayroll(w http.ResponseWriter, r *http.Request)
	MarkAsPaid(w http.ResponseWriter, r *http.Request)

	// Results
	ListCalculations(w http.ResponseWriter, r *http.Request)
	GetCalculation(w http.ResponseWriter, r *http.Request)
	AddAdjustment(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	periodService  payroll.PayPeriodService
	payrollService payroll.PayrollService
}

func NewPayrollHandler(periodService payroll.PayPeriodService, payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{
		periodService:  periodService,
		payrollService: payrollService,
	}
}

// idParam returns the {id} path parameter, or writes a 400 and returns false.
func idParam(w http.ResponseWriter, r *http.Request, label string) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, label+" ID is required", nil)
		return "", false
	}
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, label+" ID must be a valid UUID", nil)
		return "", false
	}
	return id, true
}

// ========== PAY PERIODS ==========

func (h *payrollHandlerImpl) CreatePayPeriod(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreatePayPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.periodService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Pay period created", result)
}

func (h *payrollHandlerImpl) GetPayPeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Pay period")
	if !ok {
		return
	}

	result, err := h.periodService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListPayPeriods(w http.ResponseWriter, r *http.Request) {
	var filter payroll.PayPeriodFilter
	if status := r.URL.Query().Get("status"); status != "" {
		status = strings.ToUpper(status)
		filter.Status = &status
	}

	result, err := h.periodService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdatePayPeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Pay period")
	if !ok {
		return
	}

	var req payroll.UpdatePayPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.periodService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pay period updated", result)
}

func (h *payrollHandlerImpl) DeletePayPeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Pay period")
	if !ok {
		return
	}

	if err := h.periodService.Delete(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pay period deleted", nil)
}

// ========== PAYROLL RUNS ==========

func (h *payrollHandlerImpl) CalculatePayroll(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Pay period")
	if !ok {
		return
	}

	result, err := h.payrollService.CalculatePayroll(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, fmt.Sprintf("Payroll calculated for %d employees", result.EmployeeCount), result)
}

func (h *payrollHandlerImpl) MarkAsPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Pay period")
	if !ok {
		return
	}

	result, err := h.payrollService.MarkAsPaid(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pay period marked as paid", result)
}

// ========== RESULTS ==========

func (h *payrollHandlerImpl) ListCalculations(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Pay period")
	if !ok {
		return
	}

	result, err := h.payrollService.ListCalculations(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetCalculation is open to employees for their own pay only
func (h *payrollHandlerImpl) GetCalculation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Pay calculation")
	if !ok {
		return
	}

	principal, ok := jwt.PrincipalFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrInsufficientPermissions)
		return
	}

	result, err := h.payrollService.GetCalculation(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !user.CanViewEmployeePay(principal, result.EmployeeID) {
		response.HandleError(w, user.ErrInsufficientPermissions)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) AddAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Pay calculation")
	if !ok {
		return
	}

	principal, ok := jwt.PrincipalFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrInsufficientPermissions)
		return
	}

	var req payroll.AddAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.PayCalculationID = id
	req.CreatedBy = principal.UserID

	result, err := h.payrollService.AddAdjustment(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Adjustment applied", result)
}

func (h *payrollHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Pay period")
	if !ok {
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	if !validator.IsInSlice(format, []string{"json", "csv", "pdf"}) {
		response.BadRequest(w, "format must be one of json, csv, pdf", nil)
		return
	}

	result, err := h.payrollService.Export(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if format == "json" {
		response.Success(w, result)
		return
	}

	// Render fully before writing headers so a failure can still become a JSON error
	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case "csv":
		contentType = "text/csv"
		err = export.WriteCSV(&buf, result)
	case "pdf":
		contentType = "application/pdf"
		err = export.WritePDF(&buf, result)
	}
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("payroll_%s_%s.%s", result.StartDate, result.EndDate, format)
	response.Attachment(w, contentType, filename, buf.Bytes())
}
