package leave

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// ListFilter narrows FindAll. Nil fields are not applied; set fields
// combine with AND.
type ListFilter struct {
	EmployeeID *int64
	Status     *LeaveStatus
	LeaveType  *LeaveType
}

// EmployeeBalances is the slice of the directory the engine reads at
// submission time.
type EmployeeBalances struct {
	ID                 int64
	AnnualLeaveBalance int
	SickLeaveBalance   int
}

// Available returns the tracked balance for t, zero for types that do not
// draw one down.
func (b EmployeeBalances) Available(t LeaveType) int {
	switch t {
	case TypeAnnual:
		return b.AnnualLeaveBalance
	case TypeSick:
		return b.SickLeaveBalance
	default:
		return 0
	}
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id int64) (*LeaveRequest, error)
	FindAll(ctx context.Context, f ListFilter) ([]LeaveRequest, error)
	UpdateStatusFromPending(ctx context.Context, l *LeaveRequest) (bool, error)
	GetEmployeeBalances(ctx context.Context, employeeID int64) (*EmployeeBalances, error)
	EmployeeExists(ctx context.Context, employeeID int64) (bool, error)
	EmployeeNames(ctx context.Context, ids []int64) (map[int64]string, error)
	DebitBalance(ctx context.Context, employeeID int64, leaveType LeaveType, days int) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn binds the session to the unit-of-work transaction when one is set,
// so every statement of an operation runs on the same connection.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *repository) FindAll(ctx context.Context, f ListFilter) ([]LeaveRequest, error) {
	db := r.conn(ctx).Model(&LeaveRequest{})
	if f.EmployeeID != nil {
		db = db.Where("employee_id = ?", *f.EmployeeID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.LeaveType != nil {
		db = db.Where("leave_type = ?", *f.LeaveType)
	}

	var leaves []LeaveRequest
	err := db.Order("requested_date DESC").Find(&leaves).Error
	return leaves, err
}

// UpdateStatusFromPending writes the terminal status with the pending state
// in the predicate, making the transition a compare-and-set. A false return
// means the request was decided or cancelled concurrently.
func (r *repository) UpdateStatusFromPending(ctx context.Context, l *LeaveRequest) (bool, error) {
	res := r.conn(ctx).Model(&LeaveRequest{}).
		Where("id = ? AND status = ?", l.ID, StatusPending).
		Updates(map[string]any{
			"status":        l.Status,
			"approved_by":   l.ApprovedBy,
			"approved_date": l.ApprovedDate,
			"comments":      l.Comments,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) GetEmployeeBalances(ctx context.Context, employeeID int64) (*EmployeeBalances, error) {
	var b EmployeeBalances
	err := r.conn(ctx).
		Table("employees").
		Select("id", "annual_leave_balance", "sick_leave_balance").
		Where("id = ?", employeeID).
		Take(&b).Error
	return &b, err
}

func (r *repository) EmployeeExists(ctx context.Context, employeeID int64) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Table("employees").
		Where("id = ?", employeeID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) EmployeeNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var rows []struct {
		ID        int64
		FirstName string
		LastName  string
	}
	err := r.conn(ctx).
		Table("employees").
		Select("id", "first_name", "last_name").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		names[row.ID] = row.FirstName + " " + row.LastName
	}
	return names, nil
}

// DebitBalance decrements the balance column for leaveType relative to its
// current value, never from a previously read snapshot.
func (r *repository) DebitBalance(ctx context.Context, employeeID int64, leaveType LeaveType, days int) error {
	var column string
	switch leaveType {
	case TypeAnnual:
		column = "annual_leave_balance"
	case TypeSick:
		column = "sick_leave_balance"
	default:
		return fmt.Errorf("leave type %s does not draw down a balance", leaveType)
	}

	return r.conn(ctx).
		Table("employees").
		Where("id = ?", employeeID).
		UpdateColumn(column, gorm.Expr(column+" - ?", days)).Error
}
