package holiday

import "time"

// StatutoryHoliday is a jurisdiction-designated paid holiday
type StatutoryHoliday struct {
	ID       string
	Date     time.Time
	Province string
	Name     string
}

type HolidayResponse struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Province string `json:"province"`
	Name     string `json:"name"`
}
