package leave

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, req SubmitLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, id, approverID int64, comments *string) (LeaveResponse, error)
	Reject(ctx context.Context, id, approverID int64, comments string) (LeaveResponse, error)
	Cancel(ctx context.Context, id int64) (LeaveResponse, error)
	GetByID(ctx context.Context, id int64) (LeaveResponse, error)
	GetAll(ctx context.Context, q ListLeaveQuery) ([]LeaveResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, nil, logger...)
}

func NewServiceWithOutbox(db *sql.DB, repo Repository, outboxRepo kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{db: db, repo: repo, outbox: outboxRepo, logger: l}
}

func (s *service) Submit(ctx context.Context, req SubmitLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("submit leave requested",
		zap.String("request_id", rid),
		zap.Int64("employee_id", req.EmployeeID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	leaveType, startDate, endDate, err := validateSubmitRequest(req)
	if err != nil {
		s.logger.Warn("submit leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	balances, err := qtx.GetEmployeeBalances(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrEmployeeNotFound
		}
		s.logger.Error("submit leave balance lookup failed", zap.Error(err))
		return LeaveResponse{}, storageError(err)
	}

	totalDays := int(endDate.Sub(startDate).Hours()/24) + 1
	if leaveType.HasBalance() && totalDays > balances.Available(leaveType) {
		s.logger.Warn("submit leave insufficient balance",
			zap.Int64("employee_id", req.EmployeeID),
			zap.String("leave_type", string(leaveType)),
			zap.Int("days_requested", totalDays),
			zap.Int("available", balances.Available(leaveType)),
		)
		if leaveType == TypeAnnual {
			return LeaveResponse{}, leaveerrors.ErrInsufficientAnnualBalance
		}
		return LeaveResponse{}, leaveerrors.ErrInsufficientSickBalance
	}

	l := &LeaveRequest{
		EmployeeID:    req.EmployeeID,
		LeaveType:     leaveType,
		StartDate:     startDate,
		EndDate:       endDate,
		DaysRequested: totalDays,
		Reason:        req.Reason,
		Status:        StatusPending,
		RequestedDate: time.Now().UTC(),
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return LeaveResponse{}, storageError(err)
	}

	if err := s.writeSubmittedEvent(ctx, tx, l); err != nil {
		s.logger.Error("submit leave outbox persist failed",
			zap.Int64("leave_id", l.ID),
			zap.Error(err),
		)
		return LeaveResponse{}, storageError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("submit leave success",
		zap.String("request_id", rid),
		zap.Int64("leave_id", l.ID),
		zap.Int64("employee_id", l.EmployeeID),
		zap.Int("days_requested", l.DaysRequested),
	)

	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, id, approverID int64, comments *string) (LeaveResponse, error) {
	return s.decide(ctx, id, approverID, StatusApproved, comments)
}

func (s *service) Reject(ctx context.Context, id, approverID int64, comments string) (LeaveResponse, error) {
	if comments == "" {
		return LeaveResponse{}, leaveerrors.ErrCommentsRequired
	}
	return s.decide(ctx, id, approverID, StatusRejected, &comments)
}

// decide moves a pending request to approved or rejected. Approval debits
// the matching balance in the same transaction; this deliberately does not
// re-check the balance against the requested days, so two overlapping
// approvals may drive it negative.
func (s *service) decide(ctx context.Context, id, approverID int64, target LeaveStatus, comments *string) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("decide leave requested",
		zap.String("request_id", rid),
		zap.Int64("leave_id", id),
		zap.Int64("approver_id", approverID),
		zap.String("target_status", string(target)),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveRequestNotFound
		}
		return LeaveResponse{}, storageError(err)
	}
	if !isAllowedStatusTransition(l.Status, target) {
		s.logger.Warn("decide leave not pending",
			zap.Int64("leave_id", id),
			zap.String("current_status", string(l.Status)),
			zap.String("target_status", string(target)),
		)
		return LeaveResponse{}, leaveerrors.AlreadyDecided(string(l.Status))
	}

	exists, err := qtx.EmployeeExists(ctx, approverID)
	if err != nil {
		s.logger.Error("decide leave approver lookup failed", zap.Error(err))
		return LeaveResponse{}, storageError(err)
	}
	if !exists {
		return LeaveResponse{}, leaveerrors.ErrApproverNotFound
	}

	now := time.Now().UTC()
	l.Status = target
	l.ApprovedBy = &approverID
	l.ApprovedDate = &now
	l.Comments = comments

	ok, err := qtx.UpdateStatusFromPending(ctx, l)
	if err != nil {
		s.logger.Error("decide leave persist failed",
			zap.Int64("leave_id", id),
			zap.String("target_status", string(target)),
			zap.Error(err),
		)
		return LeaveResponse{}, storageError(err)
	}
	if !ok {
		return LeaveResponse{}, s.statusRaceError(ctx, qtx, id)
	}

	if target == StatusApproved && l.LeaveType.HasBalance() {
		if err := qtx.DebitBalance(ctx, l.EmployeeID, l.LeaveType, l.DaysRequested); err != nil {
			s.logger.Error("decide leave balance debit failed",
				zap.Int64("leave_id", id),
				zap.Int64("employee_id", l.EmployeeID),
				zap.Error(err),
			)
			return LeaveResponse{}, storageError(err)
		}
	}

	if err := s.writeDecidedEvent(ctx, tx, l); err != nil {
		s.logger.Error("decide leave outbox persist failed",
			zap.Int64("leave_id", id),
			zap.Error(err),
		)
		return LeaveResponse{}, storageError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide leave commit failed", zap.Int64("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("decide leave success",
		zap.String("request_id", rid),
		zap.Int64("leave_id", id),
		zap.String("status", string(target)),
		zap.Int64("approver_id", approverID),
	)

	return mapToResponse(*l), nil
}

func (s *service) Cancel(ctx context.Context, id int64) (LeaveResponse, error) {
	s.logger.Debug("cancel leave requested", zap.Int64("leave_id", id))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveRequestNotFound
		}
		return LeaveResponse{}, storageError(err)
	}
	if !isAllowedStatusTransition(l.Status, StatusCancelled) {
		s.logger.Warn("cancel leave not pending",
			zap.Int64("leave_id", id),
			zap.String("current_status", string(l.Status)),
		)
		return LeaveResponse{}, leaveerrors.AlreadyDecided(string(l.Status))
	}

	// Cancellation records no actor and leaves balances untouched.
	l.Status = StatusCancelled
	l.ApprovedBy = nil
	l.ApprovedDate = nil
	l.Comments = nil

	ok, err := qtx.UpdateStatusFromPending(ctx, l)
	if err != nil {
		s.logger.Error("cancel leave persist failed", zap.Int64("leave_id", id), zap.Error(err))
		return LeaveResponse{}, storageError(err)
	}
	if !ok {
		return LeaveResponse{}, s.statusRaceError(ctx, qtx, id)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.Int64("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("cancel leave success", zap.Int64("leave_id", id))

	return mapToResponse(*l), nil
}

func (s *service) GetByID(ctx context.Context, id int64) (LeaveResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveRequestNotFound
		}
		return LeaveResponse{}, storageError(err)
	}
	return mapToResponse(*l), nil
}

func (s *service) GetAll(ctx context.Context, q ListLeaveQuery) ([]LeaveResponse, error) {
	filter, err := parseListQuery(q)
	if err != nil {
		return nil, err
	}

	leaves, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("get all leaves failed", zap.Error(err))
		return nil, storageError(err)
	}

	idSet := make(map[int64]struct{}, len(leaves))
	for _, l := range leaves {
		idSet[l.EmployeeID] = struct{}{}
		if l.ApprovedBy != nil {
			idSet[*l.ApprovedBy] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	names, err := s.repo.EmployeeNames(ctx, ids)
	if err != nil {
		s.logger.Error("get all leaves name lookup failed", zap.Error(err))
		return nil, storageError(err)
	}

	return mapToListResponse(leaves, names), nil
}

// statusRaceError re-reads the request after a missed compare-and-set so
// the error names the status that won the race.
func (s *service) statusRaceError(ctx context.Context, qtx Repository, id int64) error {
	current, err := qtx.FindByID(ctx, id)
	if err != nil {
		return leaveerrors.ErrInvalidStatusTransition
	}
	s.logger.Warn("leave status transition lost race",
		zap.Int64("leave_id", id),
		zap.String("current_status", string(current.Status)),
	)
	return leaveerrors.AlreadyDecided(string(current.Status))
}

func validateSubmitRequest(req SubmitLeaveRequest) (LeaveType, time.Time, time.Time, error) {
	leaveType, ok := ParseLeaveType(req.LeaveType)
	if !ok {
		return "", time.Time{}, time.Time{}, leaveerrors.ErrInvalidLeaveType
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	if startDate.After(endDate) {
		return "", time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	return leaveType, startDate, endDate, nil
}

func parseListQuery(q ListLeaveQuery) (ListFilter, error) {
	var filter ListFilter
	if q.EmployeeID != "" {
		id, err := strconv.ParseInt(q.EmployeeID, 10, 64)
		if err != nil {
			return ListFilter{}, leaveerrors.ErrInvalidEmployeeID
		}
		filter.EmployeeID = &id
	}
	if q.Status != "" {
		status, ok := ParseLeaveStatus(q.Status)
		if !ok {
			return ListFilter{}, leaveerrors.ErrInvalidLeaveStatus
		}
		filter.Status = &status
	}
	if q.LeaveType != "" {
		leaveType, ok := ParseLeaveType(q.LeaveType)
		if !ok {
			return ListFilter{}, leaveerrors.ErrInvalidLeaveType
		}
		filter.LeaveType = &leaveType
	}
	return filter, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

// storageError wraps unexpected repository failures so transport reports a
// storage failure instead of a bare internal error.
func storageError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Wrap(err, apperror.CodeStorageFailure, "storage operation failed", http.StatusInternalServerError)
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:            l.ID,
		EmployeeID:    l.EmployeeID,
		LeaveType:     string(l.LeaveType),
		StartDate:     l.StartDate.Format("2006-01-02"),
		EndDate:       l.EndDate.Format("2006-01-02"),
		DaysRequested: l.DaysRequested,
		Reason:        l.Reason,
		Status:        string(l.Status),
		RequestedDate: l.RequestedDate.Format(time.RFC3339),
	}
	if l.ApprovedBy != nil {
		v := *l.ApprovedBy
		resp.ApprovedBy = &v
	}
	if l.ApprovedDate != nil {
		v := l.ApprovedDate.Format(time.RFC3339)
		resp.ApprovedDate = &v
	}
	resp.Comments = l.Comments
	return resp
}

func mapToListResponse(leaves []LeaveRequest, names map[int64]string) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
		resp[i].EmployeeName = names[l.EmployeeID]
		if l.ApprovedBy != nil {
			if name, ok := names[*l.ApprovedBy]; ok {
				resp[i].ApprovedByName = &name
			}
		}
	}
	return resp
}
