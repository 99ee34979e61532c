package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	LeaveRequestCreated   = "leave.request.created"
	LeaveRequestApproved  = "leave.request.approved"
	LeaveRequestRejected  = "leave.request.rejected"
	LeaveRequestCancelled = "leave.request.cancelled"
)

// LeaveStatusChangedEvent is emitted for every lifecycle transition so
// downstream consumers (payroll, notifications) can react without reading
// our tables.
type LeaveStatusChangedEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id"`
	UserID      string    `json:"user_id"`
	LeaveTypeID string    `json:"leave_type_id"`
	Status      string    `json:"status"`
	DaysCount   int       `json:"days_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}
