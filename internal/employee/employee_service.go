package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/events"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// EmployeeOptionsKey caches the option list for pickers. Mutations delete
// it so the next read repopulates.
const EmployeeOptionsKey = "employees:options"

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context, q ListEmployeeQuery) ([]EmployeeResponse, error)
	GetOptions(ctx context.Context) ([]EmployeeOptionResponse, error)
	GetByID(ctx context.Context, id int64) (EmployeeResponse, error)
	Update(ctx context.Context, id int64, req UpdateEmployeeRequest) (EmployeeResponse, error)
	GetLeaveBalance(ctx context.Context, id int64) (LeaveBalanceResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, nil, rdb, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		outbox: outboxRepo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("email", req.Email),
		zap.String("department", req.Department),
	)

	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		s.logger.Warn("create employee invalid hire_date",
			zap.String("hire_date", req.HireDate),
			zap.Error(err),
		)
		return EmployeeResponse{}, employeeerrors.ErrInvalidHireDate
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if req.ManagerID != nil {
		exists, err := qtx.Exists(ctx, *req.ManagerID)
		if err != nil {
			s.logger.Error("create employee manager lookup failed", zap.Error(err))
			return EmployeeResponse{}, mapRepositoryError(err)
		}
		if !exists {
			s.logger.Warn("create employee manager not found", zap.Int64("manager_id", *req.ManagerID))
			return EmployeeResponse{}, employeeerrors.ErrManagerNotFound
		}
	}

	empl := &Employee{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Department:         req.Department,
		Position:           req.Position,
		HireDate:           hireDate,
		Status:             StatusActive,
		ManagerID:          req.ManagerID,
		AnnualLeaveBalance: DefaultAnnualLeaveBalance,
		SickLeaveBalance:   DefaultSickLeaveBalance,
	}

	if err := qtx.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	event := events.EmployeeCreatedEvent{
		EventType:  "employee_created",
		EmployeeID: empl.ID,
		Email:      empl.Email,
		Department: empl.Department,
		OccurredAt: time.Now().UTC(),
	}
	if s.outbox != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("marshal event failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, err
		}

		outboxRepo := s.outbox.WithTx(tx)
		if err := outboxRepo.Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "employee",
			AggregateID:   strconv.FormatInt(empl.ID, 10),
			EventType:     event.EventType,
			Topic:         events.EmployeeCreatedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("create employee outbox persist failed",
				zap.Int64("employee_id", empl.ID),
				zap.Error(err),
			)
			return EmployeeResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptionsCache(ctx)

	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.Int64("employee_id", empl.ID),
	)

	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context, q ListEmployeeQuery) ([]EmployeeResponse, error) {
	s.logger.Debug("get all employees requested",
		zap.String("department", q.Department),
		zap.String("status", q.Status),
	)

	filter := ListFilter{Department: q.Department}
	if q.Status != "" {
		status, ok := ParseStatus(q.Status)
		if !ok {
			return nil, employeeerrors.ErrInvalidStatus
		}
		filter.Status = &status
	}

	employees, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	return mapToListResponse(employees), nil
}

func (s *service) GetOptions(ctx context.Context) ([]EmployeeOptionResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, EmployeeOptionsKey).Result(); err == nil {
			var resp []EmployeeOptionResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// Collapse concurrent misses into one store read.
	v, err, _ := s.sf.Do(EmployeeOptionsKey, func() (interface{}, error) {
		employees, err := s.repo.FindOptions(ctx)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := make([]EmployeeOptionResponse, len(employees))
		for i, e := range employees {
			resp[i] = EmployeeOptionResponse{ID: e.ID, FullName: e.FullName()}
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, EmployeeOptionsKey, jsonData, 1*time.Hour)
			}
		}

		return resp, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]EmployeeOptionResponse), nil
}

func (s *service) GetByID(ctx context.Context, id int64) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested", zap.Int64("employee_id", id))

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("get employee by id failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	resp := mapToResponse(*empl)
	if err := s.fillManagerName(ctx, &resp); err != nil {
		return EmployeeResponse{}, err
	}
	return resp, nil
}

func (s *service) Update(ctx context.Context, id int64, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update employee requested",
		zap.String("request_id", rid),
		zap.Int64("employee_id", id),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	empl, err := qtx.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("update employee fetch existing failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	changed := false
	if req.FirstName != nil {
		empl.FirstName = *req.FirstName
		changed = true
	}
	if req.LastName != nil {
		empl.LastName = *req.LastName
		changed = true
	}
	if req.Email != nil {
		empl.Email = *req.Email
		changed = true
	}
	if req.Department != nil {
		empl.Department = *req.Department
		changed = true
	}
	if req.Position != nil {
		empl.Position = *req.Position
		changed = true
	}
	if req.Status != nil {
		status, ok := ParseStatus(*req.Status)
		if !ok {
			s.logger.Warn("update employee invalid status", zap.String("status", *req.Status))
			return EmployeeResponse{}, employeeerrors.ErrInvalidStatus
		}
		empl.Status = status
		changed = true
	}
	if req.ManagerID != nil {
		if *req.ManagerID == 0 {
			empl.ManagerID = nil
		} else {
			exists, err := qtx.Exists(ctx, *req.ManagerID)
			if err != nil {
				s.logger.Error("update employee manager lookup failed", zap.Error(err))
				return EmployeeResponse{}, mapRepositoryError(err)
			}
			if !exists {
				s.logger.Warn("update employee manager not found", zap.Int64("manager_id", *req.ManagerID))
				return EmployeeResponse{}, employeeerrors.ErrManagerNotFound
			}
			empl.ManagerID = req.ManagerID
		}
		changed = true
	}

	if !changed {
		return EmployeeResponse{}, employeeerrors.ErrNoFieldsToUpdate
	}

	if err := qtx.Update(ctx, empl); err != nil {
		s.logger.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptionsCache(ctx)

	s.logger.Info("update employee success",
		zap.String("request_id", rid),
		zap.Int64("employee_id", id),
	)

	resp := mapToResponse(*empl)
	if err := s.fillManagerName(ctx, &resp); err != nil {
		return EmployeeResponse{}, err
	}
	return resp, nil
}

func (s *service) GetLeaveBalance(ctx context.Context, id int64) (LeaveBalanceResponse, error) {
	s.logger.Debug("get leave balance requested", zap.Int64("employee_id", id))

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("get leave balance failed", zap.Error(err))
		return LeaveBalanceResponse{}, mapRepositoryError(err)
	}

	return LeaveBalanceResponse{
		EmployeeID:         empl.ID,
		EmployeeName:       empl.FullName(),
		AnnualLeaveBalance: empl.AnnualLeaveBalance,
		SickLeaveBalance:   empl.SickLeaveBalance,
	}, nil
}

func (s *service) fillManagerName(ctx context.Context, resp *EmployeeResponse) error {
	if resp.ManagerID == nil {
		return nil
	}
	names, err := s.repo.FullNames(ctx, []int64{*resp.ManagerID})
	if err != nil {
		s.logger.Error("manager name lookup failed", zap.Error(err))
		return mapRepositoryError(err)
	}
	if name, ok := names[*resp.ManagerID]; ok {
		resp.ManagerName = &name
	}
	return nil
}

func (s *service) invalidateOptionsCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, EmployeeOptionsKey).Err(); err != nil {
		s.logger.Error("failed to invalidate employee options cache",
			zap.Error(err),
			zap.String("key", EmployeeOptionsKey),
		)
	}
}

func mapToResponse(empl Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:                 empl.ID,
		FirstName:          empl.FirstName,
		LastName:           empl.LastName,
		Email:              empl.Email,
		Department:         empl.Department,
		Position:           empl.Position,
		HireDate:           empl.HireDate.Format("2006-01-02"),
		Status:             string(empl.Status),
		AnnualLeaveBalance: empl.AnnualLeaveBalance,
		SickLeaveBalance:   empl.SickLeaveBalance,
	}
	if empl.ManagerID != nil {
		v := *empl.ManagerID
		resp.ManagerID = &v
	}
	return resp
}

func mapToListResponse(employees []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(employees))
	for i, e := range employees {
		res[i] = mapToResponse(e)
	}
	return res
}
