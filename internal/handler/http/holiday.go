package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll/internal/handler/http/response"
)

type HolidayHandler interface {
	List(w http.ResponseWriter, r *http.Request)
}

type holidayHandlerImpl struct {
	holidayService holiday.HolidayService
}

func NewHolidayHandler(holidayService holiday.HolidayService) HolidayHandler {
	return &holidayHandlerImpl{holidayService: holidayService}
}

func (h *holidayHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result, err := h.holidayService.List(r.Context(), query.Get("start"), query.Get("end"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
