package employee

type CreateEmployeeRequest struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Department string `json:"department" binding:"required"`
	Position   string `json:"position" binding:"required"`
	HireDate   string `json:"hire_date" binding:"required"`
	ManagerID  *int64 `json:"manager_id"`
}

// UpdateEmployeeRequest is a partial update: only set fields change. A
// manager_id of 0 clears the manager reference. Balances are not updatable
// here, only an approved leave request moves them.
type UpdateEmployeeRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
	Status     *string `json:"status"`
	ManagerID  *int64  `json:"manager_id"`
}

// ListEmployeeQuery carries the raw filter values from the query string.
type ListEmployeeQuery struct {
	Department string
	Status     string
}

type EmployeeResponse struct {
	ID                 int64   `json:"id"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	Email              string  `json:"email"`
	Department         string  `json:"department"`
	Position           string  `json:"position"`
	HireDate           string  `json:"hire_date"`
	Status             string  `json:"status"`
	ManagerID          *int64  `json:"manager_id,omitempty"`
	ManagerName        *string `json:"manager_name,omitempty"`
	AnnualLeaveBalance int     `json:"annual_leave_balance"`
	SickLeaveBalance   int     `json:"sick_leave_balance"`
}

type EmployeeOptionResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

type LeaveBalanceResponse struct {
	EmployeeID         int64  `json:"employee_id"`
	EmployeeName       string `json:"employee_name"`
	AnnualLeaveBalance int    `json:"annual_leave_balance"`
	SickLeaveBalance   int    `json:"sick_leave_balance"`
}
