package notification

import "time"

// NotificationType represents the type of notification
type NotificationType string

const (
	TypePayrollCalculated NotificationType = "payroll_calculated"
	TypePayrollFailed     NotificationType = "payroll_failed"
	TypePayrollPaid       NotificationType = "payroll_paid"
	TypePayrollAdjusted   NotificationType = "payroll_adjusted"
)

// Event is pushed to subscribers of the real-time channel
type Event struct {
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
