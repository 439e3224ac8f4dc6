package leave

type SubmitLeaveRequest struct {
	EmployeeID int64  `json:"employee_id" binding:"required"`
	LeaveType  string `json:"leave_type" binding:"required,oneof=annual sick maternity paternity emergency unpaid"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

type ApproveLeaveRequest struct {
	ApproverID int64   `json:"approver_id" binding:"required"`
	Comments   *string `json:"comments"`
}

type RejectLeaveRequest struct {
	ApproverID int64  `json:"approver_id" binding:"required"`
	Comments   string `json:"comments" binding:"required"`
}

// ListLeaveQuery carries the raw filter values from the query string; the
// service validates them against the closed type and status sets.
type ListLeaveQuery struct {
	EmployeeID string
	Status     string
	LeaveType  string
}

type LeaveResponse struct {
	ID             int64   `json:"id"`
	EmployeeID     int64   `json:"employee_id"`
	EmployeeName   string  `json:"employee_name,omitempty"`
	LeaveType      string  `json:"leave_type"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	DaysRequested  int     `json:"days_requested"`
	Reason         string  `json:"reason"`
	Status         string  `json:"status"`
	RequestedDate  string  `json:"requested_date"`
	ApprovedBy     *int64  `json:"approved_by,omitempty"`
	ApprovedByName *string `json:"approved_by_name,omitempty"`
	ApprovedDate   *string `json:"approved_date,omitempty"`
	Comments       *string `json:"comments,omitempty"`
}
