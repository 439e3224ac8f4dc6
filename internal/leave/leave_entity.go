package leave

import (
	"time"
)

// LeaveType is the closed set of request categories. Only annual and sick
// draw down a tracked balance.
type LeaveType string

const (
	TypeAnnual    LeaveType = "annual"
	TypeSick      LeaveType = "sick"
	TypeMaternity LeaveType = "maternity"
	TypePaternity LeaveType = "paternity"
	TypeEmergency LeaveType = "emergency"
	TypeUnpaid    LeaveType = "unpaid"
)

// ParseLeaveType matches v against every known type; anything else is
// rejected rather than stored as-is.
func ParseLeaveType(v string) (LeaveType, bool) {
	switch t := LeaveType(v); t {
	case TypeAnnual, TypeSick, TypeMaternity, TypePaternity, TypeEmergency, TypeUnpaid:
		return t, true
	default:
		return "", false
	}
}

// HasBalance reports whether approving this type debits a balance column.
func (t LeaveType) HasBalance() bool {
	return t == TypeAnnual || t == TypeSick
}

// LeaveStatus is the request lifecycle state. pending is the only entry
// state, the other three are terminal.
type LeaveStatus string

const (
	StatusPending   LeaveStatus = "pending"
	StatusApproved  LeaveStatus = "approved"
	StatusRejected  LeaveStatus = "rejected"
	StatusCancelled LeaveStatus = "cancelled"
)

func ParseLeaveStatus(v string) (LeaveStatus, bool) {
	switch s := LeaveStatus(v); s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return s, true
	default:
		return "", false
	}
}

func isAllowedStatusTransition(current, target LeaveStatus) bool {
	switch current {
	case StatusPending:
		return target == StatusApproved || target == StatusRejected || target == StatusCancelled
	default:
		return false
	}
}

type LeaveRequest struct {
	ID         int64     `gorm:"primaryKey"`
	EmployeeID int64     `gorm:"not null;index:idx_leave_requests_employee"`
	LeaveType  LeaveType `gorm:"type:varchar(20);not null"`

	StartDate     time.Time `gorm:"type:date;not null"`
	EndDate       time.Time `gorm:"type:date;not null"`
	DaysRequested int       `gorm:"not null;default:1"`
	Reason        string    `gorm:"type:text;not null"`

	Status        LeaveStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_leave_requests_status"`
	RequestedDate time.Time   `gorm:"not null"`
	ApprovedBy    *int64
	ApprovedDate  *time.Time
	Comments      *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
