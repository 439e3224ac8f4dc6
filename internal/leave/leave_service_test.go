package leave_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-leave/internal/events"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	withTxFn                  func(tx *sql.Tx) leave.Repository
	createFn                  func(ctx context.Context, l *leave.LeaveRequest) error
	findByIDFn                func(ctx context.Context, id int64) (*leave.LeaveRequest, error)
	findAllFn                 func(ctx context.Context, f leave.ListFilter) ([]leave.LeaveRequest, error)
	updateStatusFromPendingFn func(ctx context.Context, l *leave.LeaveRequest) (bool, error)
	getEmployeeBalancesFn     func(ctx context.Context, employeeID int64) (*leave.EmployeeBalances, error)
	employeeExistsFn          func(ctx context.Context, employeeID int64) (bool, error)
	employeeNamesFn           func(ctx context.Context, ids []int64) (map[int64]string, error)
	debitBalanceFn            func(ctx context.Context, employeeID int64, leaveType leave.LeaveType, days int) error
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindByID(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) FindAll(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) UpdateStatusFromPending(ctx context.Context, l *leave.LeaveRequest) (bool, error) {
	if f.updateStatusFromPendingFn != nil {
		return f.updateStatusFromPendingFn(ctx, l)
	}
	return true, nil
}

func (f *fakeLeaveRepository) GetEmployeeBalances(ctx context.Context, employeeID int64) (*leave.EmployeeBalances, error) {
	if f.getEmployeeBalancesFn != nil {
		return f.getEmployeeBalancesFn(ctx, employeeID)
	}
	return &leave.EmployeeBalances{ID: employeeID, AnnualLeaveBalance: 25, SickLeaveBalance: 10}, nil
}

func (f *fakeLeaveRepository) EmployeeExists(ctx context.Context, employeeID int64) (bool, error) {
	if f.employeeExistsFn != nil {
		return f.employeeExistsFn(ctx, employeeID)
	}
	return true, nil
}

func (f *fakeLeaveRepository) EmployeeNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	if f.employeeNamesFn != nil {
		return f.employeeNamesFn(ctx, ids)
	}
	return map[int64]string{}, nil
}

func (f *fakeLeaveRepository) DebitBalance(ctx context.Context, employeeID int64, leaveType leave.LeaveType, days int) error {
	if f.debitBalanceFn != nil {
		return f.debitBalanceFn(ctx, employeeID, leaveType, days)
	}
	return nil
}

type fakeOutboxRepository struct {
	created []kafka.OutboxEvent
	fail    error
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository {
	return f
}

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	if f.fail != nil {
		return f.fail
	}
	f.created = append(f.created, event)
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error {
	return nil
}

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type leaveServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service leave.Service
	repo    *fakeLeaveRepository
	outbox  *fakeOutboxRepository
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRepository{}
	outbox := &fakeOutboxRepository{}
	svc := leave.NewServiceWithOutbox(db, repo, outbox)

	return &leaveServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
		outbox:  outbox,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func pendingLeave(id, employeeID int64, leaveType leave.LeaveType, days int) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:            id,
		EmployeeID:    employeeID,
		LeaveType:     leaveType,
		StartDate:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 7, days, 0, 0, 0, 0, time.UTC),
		DaysRequested: days,
		Reason:        "Summer vacation",
		Status:        leave.StatusPending,
		RequestedDate: time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestLeaveService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leave.SubmitLeaveRequest{
			EmployeeID: 1,
			LeaveType:  "annual",
			StartDate:  "2025-07-01",
			EndDate:    "2025-07-05",
			Reason:     "Summer vacation",
		}

		deps.repo.createFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			assert.Equal(t, int64(1), l.EmployeeID)
			assert.Equal(t, leave.TypeAnnual, l.LeaveType)
			assert.Equal(t, 5, l.DaysRequested)
			assert.Equal(t, leave.StatusPending, l.Status)
			assert.False(t, l.RequestedDate.IsZero())
			l.ID = 42
			return nil
		}

		resp, err := deps.service.Submit(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, int64(42), resp.ID)
		assert.Equal(t, int64(1), resp.EmployeeID)
		assert.Equal(t, "annual", resp.LeaveType)
		assert.Equal(t, "2025-07-01", resp.StartDate)
		assert.Equal(t, "2025-07-05", resp.EndDate)
		assert.Equal(t, 5, resp.DaysRequested)
		assert.Equal(t, "pending", resp.Status)
		assert.Nil(t, resp.ApprovedBy)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success - single day counts as one", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leave.SubmitLeaveRequest{
			EmployeeID: 2,
			LeaveType:  "sick",
			StartDate:  "2025-06-25",
			EndDate:    "2025-06-25",
			Reason:     "Doctor appointment",
		}

		deps.repo.createFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			assert.Equal(t, 1, l.DaysRequested)
			l.ID = 7
			return nil
		}

		resp, err := deps.service.Submit(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, 1, resp.DaysRequested)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success - unpaid leave skips the balance gate", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leave.SubmitLeaveRequest{
			EmployeeID: 3,
			LeaveType:  "unpaid",
			StartDate:  "2025-01-01",
			EndDate:    "2025-02-19",
			Reason:     "Sabbatical",
		}

		deps.repo.getEmployeeBalancesFn = func(ctx context.Context, employeeID int64) (*leave.EmployeeBalances, error) {
			return &leave.EmployeeBalances{ID: employeeID, AnnualLeaveBalance: 0, SickLeaveBalance: 0}, nil
		}
		deps.repo.createFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			assert.Equal(t, 50, l.DaysRequested)
			l.ID = 9
			return nil
		}

		resp, err := deps.service.Submit(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, 50, resp.DaysRequested)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success - writes submitted event on the same transaction", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leave.SubmitLeaveRequest{
			EmployeeID: 1,
			LeaveType:  "annual",
			StartDate:  "2025-07-01",
			EndDate:    "2025-07-03",
			Reason:     "Trip",
		}

		deps.repo.createFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			l.ID = 15
			return nil
		}

		_, err := deps.service.Submit(ctx, req)

		assert.NoError(t, err)
		if assert.Len(t, deps.outbox.created, 1) {
			row := deps.outbox.created[0]
			assert.Equal(t, "leave_request", row.AggregateType)
			assert.Equal(t, "15", row.AggregateID)
			assert.Equal(t, events.LeaveSubmittedEventType, row.EventType)
			assert.Equal(t, events.LeaveLifecycleTopic, row.Topic)
			assert.Equal(t, kafka.OutboxStatusPending, row.Status)

			var evt events.LeaveSubmittedEvent
			assert.NoError(t, json.Unmarshal(row.Payload, &evt))
			assert.Equal(t, int64(15), evt.LeaveID)
			assert.Equal(t, int64(1), evt.EmployeeID)
			assert.Equal(t, "annual", evt.LeaveType)
			assert.Equal(t, 3, evt.DaysRequested)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - unknown leave type", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: 1,
			LeaveType:  "holiday",
			StartDate:  "2025-07-01",
			EndDate:    "2025-07-05",
			Reason:     "x",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - malformed dates", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: 1,
			LeaveType:  "annual",
			StartDate:  "07/01/2025",
			EndDate:    "2025-07-05",
			Reason:     "x",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
	})

	t.Run("negative - start date after end date", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: 1,
			LeaveType:  "annual",
			StartDate:  "2025-07-10",
			EndDate:    "2025-07-05",
			Reason:     "x",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
	})

	t.Run("negative - employee not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.getEmployeeBalancesFn = func(ctx context.Context, employeeID int64) (*leave.EmployeeBalances, error) {
			return nil, gorm.ErrRecordNotFound
		}

		_, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: 99,
			LeaveType:  "annual",
			StartDate:  "2025-07-01",
			EndDate:    "2025-07-05",
			Reason:     "x",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrEmployeeNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - insufficient annual balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.getEmployeeBalancesFn = func(ctx context.Context, employeeID int64) (*leave.EmployeeBalances, error) {
			return &leave.EmployeeBalances{ID: employeeID, AnnualLeaveBalance: 3, SickLeaveBalance: 10}, nil
		}
		created := false
		deps.repo.createFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			created = true
			return nil
		}

		_, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: 1,
			LeaveType:  "annual",
			StartDate:  "2025-07-01",
			EndDate:    "2025-07-05",
			Reason:     "x",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientAnnualBalance)
		assert.False(t, created)
		assert.Empty(t, deps.outbox.created)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - insufficient sick balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.getEmployeeBalancesFn = func(ctx context.Context, employeeID int64) (*leave.EmployeeBalances, error) {
			return &leave.EmployeeBalances{ID: employeeID, AnnualLeaveBalance: 25, SickLeaveBalance: 1}, nil
		}

		_, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: 1,
			LeaveType:  "sick",
			StartDate:  "2025-06-25",
			EndDate:    "2025-06-26",
			Reason:     "x",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientSickBalance)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - exact balance passes, one more day does not", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.getEmployeeBalancesFn = func(ctx context.Context, employeeID int64) (*leave.EmployeeBalances, error) {
			return &leave.EmployeeBalances{ID: employeeID, AnnualLeaveBalance: 5, SickLeaveBalance: 10}, nil
		}
		deps.repo.createFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			l.ID = 1
			return nil
		}

		_, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: 1,
			LeaveType:  "annual",
			StartDate:  "2025-07-01",
			EndDate:    "2025-07-05",
			Reason:     "exactly five days",
		})
		assert.NoError(t, err)

		expectTx(t, deps.sqlMock, false)
		_, err = deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: 1,
			LeaveType:  "annual",
			StartDate:  "2025-07-01",
			EndDate:    "2025-07-06",
			Reason:     "six days",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientAnnualBalance)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - repository failure surfaces as storage error", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.createFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			return errors.New("connection reset")
		}

		_, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: 1,
			LeaveType:  "annual",
			StartDate:  "2025-07-01",
			EndDate:    "2025-07-02",
			Reason:     "x",
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "storage operation failed")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("success - debits annual balance in the same transaction", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDFn = func(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
			return pendingLeave(10, 1, leave.TypeAnnual, 5), nil
		}
		deps.repo.updateStatusFromPendingFn = func(ctx context.Context, l *leave.LeaveRequest) (bool, error) {
			assert.Equal(t, leave.StatusApproved, l.Status)
			if assert.NotNil(t, l.ApprovedBy) {
				assert.Equal(t, int64(3), *l.ApprovedBy)
			}
			assert.NotNil(t, l.ApprovedDate)
			return true, nil
		}
		var debited bool
		deps.repo.debitBalanceFn = func(ctx context.Context, employeeID int64, leaveType leave.LeaveType, days int) error {
			debited = true
			assert.Equal(t, int64(1), employeeID)
			assert.Equal(t, leave.TypeAnnual, leaveType)
			assert.Equal(t, 5, days)
			return nil
		}

		comments := "Enjoy"
		resp, err := deps.service.Approve(ctx, 10, 3, &comments)

		assert.NoError(t, err)
		assert.True(t, debited)
		assert.Equal(t, "approved", resp.Status)
		if assert.NotNil(t, resp.ApprovedBy) {
			assert.Equal(t, int64(3), *resp.ApprovedBy)
		}
		assert.NotNil(t, resp.ApprovedDate)
		if assert.NotNil(t, resp.Comments) {
			assert.Equal(t, "Enjoy", *resp.Comments)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success - approval event carries decider and status", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDFn = func(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
			return pendingLeave(11, 2, leave.TypeSick, 2), nil
		}

		_, err := deps.service.Approve(ctx, 11, 4, nil)

		assert.NoError(t, err)
		if assert.Len(t, deps.outbox.created, 1) {
			row := deps.outbox.created[0]
			assert.Equal(t, events.LeaveApprovedEventType, row.EventType)

			var evt events.LeaveDecidedEvent
			assert.NoError(t, json.Unmarshal(row.Payload, &evt))
			assert.Equal(t, int64(11), evt.LeaveID)
			assert.Equal(t, "approved", evt.Status)
			assert.Equal(t, int64(4), evt.DecidedBy)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success - unpaid approval skips the debit", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDFn = func(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
			return pendingLeave(12, 1, leave.TypeUnpaid, 30), nil
		}
		deps.repo.debitBalanceFn = func(ctx context.Context, employeeID int64, leaveType leave.LeaveType, days int) error {
			t.Fatal("unpaid leave must not touch balances")
			return nil
		}

		resp, err := deps.service.Approve(ctx, 12, 3, nil)

		assert.NoError(t, err)
		assert.Equal(t, "approved", resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - leave request not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Approve(ctx, 404, 3, nil)

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveRequestNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - already approved", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDFn = func(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
			l := pendingLeave(13, 1, leave.TypeAnnual, 5)
			l.Status = leave.StatusApproved
			return l, nil
		}

		_, err := deps.service.Approve(ctx, 13, 3, nil)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
		assert.Contains(t, err.Error(), "already approved")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - approver does not exist", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDFn = func(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
			return pendingLeave(14, 1, leave.TypeAnnual, 5), nil
		}
		deps.repo.employeeExistsFn = func(ctx context.Context, employeeID int64) (bool, error) {
			assert.Equal(t, int64(999), employeeID)
			return false, nil
		}

		_, err := deps.service.Approve(ctx, 14, 999, nil)

		assert.ErrorIs(t, err, leaveerrors.ErrApproverNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - lost the status race", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		first := true
		deps.repo.findByIDFn = func(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
			l := pendingLeave(15, 1, leave.TypeAnnual, 5)
			if !first {
				l.Status = leave.StatusRejected
			}
			first = false
			return l, nil
		}
		deps.repo.updateStatusFromPendingFn = func(ctx context.Context, l *leave.LeaveRequest) (bool, error) {
			return false, nil
		}

		_, err := deps.service.Approve(ctx, 15, 3, nil)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
		assert.Contains(t, err.Error(), "already rejected")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - debit failure rolls everything back", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDFn = func(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
			return pendingLeave(16, 1, leave.TypeAnnual, 5), nil
		}
		deps.repo.debitBalanceFn = func(ctx context.Context, employeeID int64, leaveType leave.LeaveType, days int) error {
			return errors.New("deadlock detected")
		}

		_, err := deps.service.Approve(ctx, 16, 3, nil)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "storage operation failed")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("success - no balance debit on rejection", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDFn = func(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
			return pendingLeave(20, 1, leave.TypeAnnual, 5), nil
		}
		deps.repo.debitBalanceFn = func(ctx context.Context, employeeID int64, leaveType leave.LeaveType, days int) error {
			t.Fatal("rejection must not touch balances")
			return nil
		}

		resp, err := deps.service.Reject(ctx, 20, 3, "Team is short-staffed that week")

		assert.NoError(t, err)
		assert.Equal(t, "rejected", resp.Status)
		if assert.NotNil(t, resp.Comments) {
			assert.Equal(t, "Team is short-staffed that week", *resp.Comments)
		}
		if assert.Len(t, deps.outbox.created, 1) {
			assert.Equal(t, events.LeaveRejectedEventType, deps.outbox.created[0].EventType)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - comments required", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Reject(ctx, 20, 3, "")

		assert.ErrorIs(t, err, leaveerrors.ErrCommentsRequired)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("success - clears actor fields and writes no event", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDFn = func(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
			return pendingLeave(30, 2, leave.TypeSick, 2), nil
		}
		deps.repo.updateStatusFromPendingFn = func(ctx context.Context, l *leave.LeaveRequest) (bool, error) {
			assert.Equal(t, leave.StatusCancelled, l.Status)
			assert.Nil(t, l.ApprovedBy)
			assert.Nil(t, l.ApprovedDate)
			assert.Nil(t, l.Comments)
			return true, nil
		}
		deps.repo.debitBalanceFn = func(ctx context.Context, employeeID int64, leaveType leave.LeaveType, days int) error {
			t.Fatal("cancellation must not touch balances")
			return nil
		}

		resp, err := deps.service.Cancel(ctx, 30)

		assert.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		assert.Nil(t, resp.ApprovedBy)
		assert.Empty(t, deps.outbox.created)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - already cancelled", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDFn = func(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
			l := pendingLeave(31, 2, leave.TypeSick, 2)
			l.Status = leave.StatusCancelled
			return l, nil
		}

		_, err := deps.service.Cancel(ctx, 31)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
		assert.Contains(t, err.Error(), "already cancelled")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Cancel(ctx, 404)

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveRequestNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		approver := int64(3)
		decidedAt := time.Date(2025, 6, 21, 10, 0, 0, 0, time.UTC)
		comments := "ok"
		deps.repo.findByIDFn = func(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
			l := pendingLeave(40, 1, leave.TypeAnnual, 5)
			l.Status = leave.StatusApproved
			l.ApprovedBy = &approver
			l.ApprovedDate = &decidedAt
			l.Comments = &comments
			return l, nil
		}

		resp, err := deps.service.GetByID(ctx, 40)

		assert.NoError(t, err)
		assert.Equal(t, int64(40), resp.ID)
		assert.Equal(t, "approved", resp.Status)
		if assert.NotNil(t, resp.ApprovedBy) {
			assert.Equal(t, int64(3), *resp.ApprovedBy)
		}
		if assert.NotNil(t, resp.ApprovedDate) {
			assert.Equal(t, "2025-06-21T10:00:00Z", *resp.ApprovedDate)
		}
	})

	t.Run("negative - not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetByID(ctx, 404)

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveRequestNotFound)
	})
}

func TestLeaveService_GetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("success - resolves employee and approver names", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		approver := int64(3)
		deps.repo.findAllFn = func(ctx context.Context, f leave.ListFilter) ([]leave.LeaveRequest, error) {
			assert.Nil(t, f.EmployeeID)
			assert.Nil(t, f.Status)
			assert.Nil(t, f.LeaveType)
			approved := pendingLeave(2, 2, leave.TypeSick, 2)
			approved.Status = leave.StatusApproved
			approved.ApprovedBy = &approver
			return []leave.LeaveRequest{
				*pendingLeave(1, 1, leave.TypeAnnual, 5),
				*approved,
			}, nil
		}
		deps.repo.employeeNamesFn = func(ctx context.Context, ids []int64) (map[int64]string, error) {
			assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
			return map[int64]string{
				1: "John Doe",
				2: "Jane Smith",
				3: "Mike Johnson",
			}, nil
		}

		resp, err := deps.service.GetAll(ctx, leave.ListLeaveQuery{})

		assert.NoError(t, err)
		if assert.Len(t, resp, 2) {
			assert.Equal(t, "John Doe", resp[0].EmployeeName)
			assert.Equal(t, "Jane Smith", resp[1].EmployeeName)
			if assert.NotNil(t, resp[1].ApprovedByName) {
				assert.Equal(t, "Mike Johnson", *resp[1].ApprovedByName)
			}
		}
	})

	t.Run("success - filters are passed through", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.repo.findAllFn = func(ctx context.Context, f leave.ListFilter) ([]leave.LeaveRequest, error) {
			if assert.NotNil(t, f.EmployeeID) {
				assert.Equal(t, int64(7), *f.EmployeeID)
			}
			if assert.NotNil(t, f.Status) {
				assert.Equal(t, leave.StatusPending, *f.Status)
			}
			if assert.NotNil(t, f.LeaveType) {
				assert.Equal(t, leave.TypeAnnual, *f.LeaveType)
			}
			return nil, nil
		}

		resp, err := deps.service.GetAll(ctx, leave.ListLeaveQuery{
			EmployeeID: "7",
			Status:     "pending",
			LeaveType:  "annual",
		})

		assert.NoError(t, err)
		assert.Empty(t, resp)
	})

	t.Run("negative - malformed employee filter", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetAll(ctx, leave.ListLeaveQuery{EmployeeID: "abc"})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidEmployeeID)
	})

	t.Run("negative - unknown status filter", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetAll(ctx, leave.ListLeaveQuery{Status: "open"})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveStatus)
	})

	t.Run("negative - unknown type filter", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetAll(ctx, leave.ListLeaveQuery{LeaveType: "vacation"})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveType)
	})
}
