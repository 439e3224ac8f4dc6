package leaveerrors

import (
	"fmt"
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrLeaveRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrApproverNotFound = apperror.New(
		apperror.CodeNotFound,
		"approver not found",
		http.StatusNotFound,
	)
	ErrInvalidLeaveRequestID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date cannot be after end_date",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave type",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveStatus = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave status",
		http.StatusBadRequest,
	)
	ErrCommentsRequired = apperror.New(
		apperror.CodeInvalidInput,
		"comments is required when rejecting a leave request",
		http.StatusBadRequest,
	)
	ErrInsufficientAnnualBalance = apperror.New(
		apperror.CodeConflict,
		"insufficient annual leave balance",
		http.StatusConflict,
	)
	ErrInsufficientSickBalance = apperror.New(
		apperror.CodeConflict,
		"insufficient sick leave balance",
		http.StatusConflict,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"leave request is no longer pending",
		http.StatusBadRequest,
	)
)

// AlreadyDecided wraps ErrInvalidStatusTransition so the client sees the
// status that blocked the transition while errors.Is still matches the
// sentinel.
func AlreadyDecided(currentStatus string) error {
	return apperror.Wrap(
		ErrInvalidStatusTransition,
		apperror.CodeInvalidState,
		fmt.Sprintf("leave request is already %s", currentStatus),
		http.StatusBadRequest,
	)
}
