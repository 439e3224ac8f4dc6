package employee

import "time"

// Status is the employment state of a directory record.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusTerminated Status = "terminated"
)

func ParseStatus(v string) (Status, bool) {
	switch s := Status(v); s {
	case StatusActive, StatusInactive, StatusTerminated:
		return s, true
	default:
		return "", false
	}
}

// Leave balances granted to every new employee, in whole days.
const (
	DefaultAnnualLeaveBalance = 25
	DefaultSickLeaveBalance   = 10
)

type Employee struct {
	ID        int64  `gorm:"primaryKey"`
	FirstName string `gorm:"type:varchar(100);not null"`
	LastName  string `gorm:"type:varchar(100);not null"`
	Email     string `gorm:"type:varchar(255);not null;uniqueIndex:uq_employees_email"`

	Department string    `gorm:"type:varchar(100);not null;index:idx_employees_department"`
	Position   string    `gorm:"type:varchar(100);not null"`
	HireDate   time.Time `gorm:"type:date;not null"`
	Status     Status    `gorm:"type:varchar(20);not null;default:'active';index:idx_employees_status"`
	ManagerID  *int64    `gorm:"index:idx_employees_manager"`

	AnnualLeaveBalance int `gorm:"not null;default:25"`
	SickLeaveBalance   int `gorm:"not null;default:10"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName is the display name used in options and leave views.
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
