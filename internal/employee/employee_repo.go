package employee

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// ListFilter narrows FindAll. Department matches case-insensitively.
type ListFilter struct {
	Department string
	Status     *Status
}

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	FindAll(ctx context.Context, f ListFilter) ([]Employee, error)
	FindByID(ctx context.Context, id int64) (*Employee, error)
	FindOptions(ctx context.Context) ([]Employee, error)
	Update(ctx context.Context, empl *Employee) error
	Exists(ctx context.Context, id int64) (bool, error)
	FullNames(ctx context.Context, ids []int64) (map[int64]string, error)
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

// conn binds the session to the unit-of-work transaction when one is set.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.conn(ctx).Create(empl).Error
}

func (r *repository) FindAll(ctx context.Context, f ListFilter) ([]Employee, error) {
	db := r.conn(ctx).Model(&Employee{})
	if f.Department != "" {
		db = db.Where("LOWER(department) = LOWER(?)", f.Department)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}

	var employees []Employee
	err := db.Order("id ASC").Find(&employees).Error
	return employees, err
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Employee, error) {
	var empl Employee
	err := r.conn(ctx).First(&empl, "id = ?", id).Error
	return &empl, err
}

// FindOptions returns the active employees with only the fields option
// lists need.
func (r *repository) FindOptions(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	err := r.conn(ctx).
		Model(&Employee{}).
		Select("id", "first_name", "last_name").
		Where("status = ?", StatusActive).
		Order("first_name ASC, last_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) Update(ctx context.Context, empl *Employee) error {
	return r.conn(ctx).Save(empl).Error
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&Employee{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FullNames(ctx context.Context, ids []int64) (map[int64]string, error) {
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
		Model(&Employee{}).
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
