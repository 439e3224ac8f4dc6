package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"go-leave/internal/events"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
)

const leaveAggregateType = "leave_request"

// writeSubmittedEvent queues a leave_submitted outbox row on the same
// transaction as the request row, so either both commit or neither does.
func (s *service) writeSubmittedEvent(ctx context.Context, tx *sql.Tx, l *LeaveRequest) error {
	if s.outbox == nil {
		return nil
	}

	event := events.LeaveSubmittedEvent{
		EventType:     events.LeaveSubmittedEventType,
		LeaveID:       l.ID,
		EmployeeID:    l.EmployeeID,
		LeaveType:     string(l.LeaveType),
		DaysRequested: l.DaysRequested,
		OccurredAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: leaveAggregateType,
		AggregateID:   strconv.FormatInt(l.ID, 10),
		EventType:     event.EventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

// writeDecidedEvent queues a leave_approved or leave_rejected outbox row on
// the decision transaction.
func (s *service) writeDecidedEvent(ctx context.Context, tx *sql.Tx, l *LeaveRequest) error {
	if s.outbox == nil {
		return nil
	}

	eventType := events.LeaveApprovedEventType
	if l.Status == StatusRejected {
		eventType = events.LeaveRejectedEventType
	}
	var decidedBy int64
	if l.ApprovedBy != nil {
		decidedBy = *l.ApprovedBy
	}

	event := events.LeaveDecidedEvent{
		EventType:     eventType,
		LeaveID:       l.ID,
		EmployeeID:    l.EmployeeID,
		LeaveType:     string(l.LeaveType),
		DaysRequested: l.DaysRequested,
		Status:        string(l.Status),
		DecidedBy:     decidedBy,
		OccurredAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: leaveAggregateType,
		AggregateID:   strconv.FormatInt(l.ID, 10),
		EventType:     event.EventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}
