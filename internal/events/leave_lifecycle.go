package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

// Event types published on the leave lifecycle topic.
const (
	LeaveSubmittedEventType = "leave_submitted"
	LeaveApprovedEventType  = "leave_approved"
	LeaveRejectedEventType  = "leave_rejected"
)

// LeaveSubmittedEvent is emitted when a leave request enters the pending
// state.
type LeaveSubmittedEvent struct {
	EventType     string    `json:"event_type"`
	LeaveID       int64     `json:"leave_id"`
	EmployeeID    int64     `json:"employee_id"`
	LeaveType     string    `json:"leave_type"`
	DaysRequested int       `json:"days_requested"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// LeaveDecidedEvent is emitted when a pending request is approved or
// rejected. DecidedBy is the employee who made the call.
type LeaveDecidedEvent struct {
	EventType     string    `json:"event_type"`
	LeaveID       int64     `json:"leave_id"`
	EmployeeID    int64     `json:"employee_id"`
	LeaveType     string    `json:"leave_type"`
	DaysRequested int       `json:"days_requested"`
	Status        string    `json:"status"`
	DecidedBy     int64     `json:"decided_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}
