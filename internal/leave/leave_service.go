package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"leavedesk/internal/balance"
	"leavedesk/internal/events"
	leaveerrors "leavedesk/internal/leave/errors"
	"leavedesk/internal/leavetype"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// validStatuses is the whitelist for the status list filter.
var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusApproved:  true,
	StatusRejected:  true,
	StatusCancelled: true,
}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actorID string, req CreateLeaveRequest) (LeaveRequestResponse, error)
	GetByID(ctx context.Context, actorID, role, id string) (LeaveRequestResponse, error)
	ListMine(ctx context.Context, actorID string, q ListQuery) ([]LeaveRequestResponse, int64, error)
	ListAll(ctx context.Context, q ListQuery) ([]LeaveRequestResponse, int64, error)
	Approve(ctx context.Context, actorID, id string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, actorID, id, rejectionReason string) (LeaveRequestResponse, error)
	Cancel(ctx context.Context, actorID, id string) (LeaveRequestResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	balances balance.Repository
	types    leavetype.Repository
	outbox   kafka.OutboxRepository
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	balances balance.Repository,
	types leavetype.Repository,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, balances, types, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	balances balance.Repository,
	types leavetype.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		balances: balances,
		types:    types,
		outbox:   outboxRepo,
		logger:   l,
	}
}

// daysInclusive counts whole days between two date-only values, both ends
// included: start == end is 1 day.
func daysInclusive(startDate, endDate time.Time) int {
	return int(endDate.Sub(startDate).Hours()/24) + 1
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func (s *service) Create(ctx context.Context, actorID string, req CreateLeaveRequest) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create leave request",
		zap.String("actor_id", actorID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidActorID
	}
	typeUUID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidLeaveTypeID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if startDate.After(endDate) {
		log.Warn("create leave request invalid range",
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidDateRange
	}

	lt, err := s.types.FindByID(ctx, req.LeaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrLeaveTypeNotFound
		}
		log.Error("create leave request catalog read failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	lr := &LeaveRequest{
		ID:          uuid.New(),
		UserID:      actorUUID,
		LeaveTypeID: typeUUID,
		StartDate:   startDate,
		EndDate:     endDate,
		DaysCount:   daysInclusive(startDate, endDate),
		Reason:      req.Reason,
		Status:      StatusPending,
	}

	if err := qtx.Create(ctx, lr); err != nil {
		log.Error("create leave request persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if err := s.enqueueEvent(ctx, tx, lr, events.LeaveRequestCreated, rid); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("create leave request commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	log.Info("leave request created",
		zap.String("leave_request_id", lr.ID.String()),
		zap.String("user_id", actorID),
		zap.Int("days_count", lr.DaysCount),
	)

	lr.LeaveTypeName = lt.Name
	return mapToResponse(*lr), nil
}

func (s *service) GetByID(ctx context.Context, actorID, role, id string) (LeaveRequestResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRequestID
	}

	lr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}

	// Owners see their own requests; only admins see everyone's.
	if lr.UserID.String() != actorID && role != "ADMIN" {
		return LeaveRequestResponse{}, leaveerrors.ErrNotRequestOwnerOrAdmin
	}

	return mapToResponse(*lr), nil
}

func (s *service) ListMine(ctx context.Context, actorID string, q ListQuery) ([]LeaveRequestResponse, int64, error) {
	if _, err := uuid.Parse(actorID); err != nil {
		return nil, 0, leaveerrors.ErrInvalidActorID
	}
	if q.Status != "" && !validStatuses[q.Status] {
		return nil, 0, leaveerrors.ErrInvalidStatusFilter
	}
	log := contextutil.GetLogger(ctx, s.logger)

	requests, err := s.repo.ListForUser(ctx, actorID, q)
	if err != nil {
		log.Error("list own leave requests failed", zap.String("user_id", actorID), zap.Error(err))
		return nil, 0, err
	}
	total, err := s.repo.CountForUser(ctx, actorID, q)
	if err != nil {
		log.Error("count own leave requests failed", zap.String("user_id", actorID), zap.Error(err))
		return nil, 0, err
	}
	return mapToListResponse(requests), total, nil
}

func (s *service) ListAll(ctx context.Context, q ListQuery) ([]LeaveRequestResponse, int64, error) {
	if q.Status != "" && !validStatuses[q.Status] {
		return nil, 0, leaveerrors.ErrInvalidStatusFilter
	}
	if q.UserID != "" {
		if _, err := uuid.Parse(q.UserID); err != nil {
			return nil, 0, leaveerrors.ErrInvalidActorID
		}
	}
	log := contextutil.GetLogger(ctx, s.logger)

	requests, err := s.repo.ListAll(ctx, q)
	if err != nil {
		log.Error("list all leave requests failed", zap.Error(err))
		return nil, 0, err
	}
	total, err := s.repo.CountAll(ctx, q)
	if err != nil {
		log.Error("count all leave requests failed", zap.Error(err))
		return nil, 0, err
	}
	return mapToListResponse(requests), total, nil
}

// Approve moves PENDING -> APPROVED and debits the ledger, as one atomic
// unit. The balance is re-read under a row lock inside the transaction, so
// sufficiency reflects every approval committed before this one.
func (s *service) Approve(ctx context.Context, actorID, id string) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("approve leave request",
		zap.String("leave_request_id", id),
		zap.String("actor_id", actorID),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("approve leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	btx := s.balances.WithTx(tx)

	lr, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if lr.Status != StatusPending {
		log.Warn("approve leave request invalid state",
			zap.String("leave_request_id", id),
			zap.String("status", lr.Status),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	year := time.Now().UTC().Year()
	bal, err := btx.GetForUpdate(ctx, lr.UserID.String(), lr.LeaveTypeID.String(), year)
	switch {
	case err == nil:
		if bal.RemainingDays() < lr.DaysCount {
			log.Warn("approve leave request insufficient balance",
				zap.String("leave_request_id", id),
				zap.Int("remaining_days", bal.RemainingDays()),
				zap.Int("days_count", lr.DaysCount),
			)
			return LeaveRequestResponse{}, leaveerrors.ErrInsufficientBalance
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No ledger row for this user/type/year: skip the sufficiency check
		// and let the usage update no-op, matching provisioning gaps.
	default:
		log.Error("approve leave request balance read failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	now := time.Now().UTC()
	affected, err := qtx.UpdateStatusFrom(ctx, id, StatusPending, map[string]interface{}{
		"status":           StatusApproved,
		"approved_by":      actorUUID,
		"approved_at":      now,
		"rejection_reason": nil,
	})
	if err != nil {
		log.Error("approve leave request persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if affected == 0 {
		// A concurrent transition got there first.
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	if err := btx.ApplyUsage(ctx, lr.UserID.String(), lr.LeaveTypeID.String(), year, lr.DaysCount); err != nil {
		log.Error("approve leave request ledger debit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	lr.Status = StatusApproved
	lr.ApprovedBy = &actorUUID
	lr.ApprovedAt = &now
	lr.RejectionReason = nil

	if err := s.enqueueEvent(ctx, tx, lr, events.LeaveRequestApproved, rid); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("approve leave request commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	log.Info("leave request approved",
		zap.String("leave_request_id", id),
		zap.String("approved_by", actorID),
		zap.Int("days_count", lr.DaysCount),
	)
	return mapToResponse(*lr), nil
}

// Reject moves PENDING -> REJECTED. The ledger is never touched: nothing
// was debited for a pending request.
func (s *service) Reject(ctx context.Context, actorID, id, rejectionReason string) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("reject leave request",
		zap.String("leave_request_id", id),
		zap.String("actor_id", actorID),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRequestID
	}
	if rejectionReason == "" {
		return LeaveRequestResponse{}, leaveerrors.ErrRejectionReasonRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("reject leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	lr, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if lr.Status != StatusPending {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	affected, err := qtx.UpdateStatusFrom(ctx, id, StatusPending, map[string]interface{}{
		"status":           StatusRejected,
		"approved_by":      actorUUID,
		"approved_at":      now,
		"rejection_reason": rejectionReason,
	})
	if err != nil {
		log.Error("reject leave request persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if affected == 0 {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	lr.Status = StatusRejected
	lr.ApprovedBy = &actorUUID
	lr.ApprovedAt = &now
	lr.RejectionReason = &rejectionReason

	if err := s.enqueueEvent(ctx, tx, lr, events.LeaveRequestRejected, rid); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("reject leave request commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	log.Info("leave request rejected",
		zap.String("leave_request_id", id),
		zap.String("rejected_by", actorID),
	)
	return mapToResponse(*lr), nil
}

// Cancel is the owner's exit from any non-cancelled state. Leaving APPROVED
// credits the debited days back; leaving PENDING or REJECTED never touches
// the ledger.
func (s *service) Cancel(ctx context.Context, actorID, id string) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("cancel leave request",
		zap.String("leave_request_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(actorID); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("cancel leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	btx := s.balances.WithTx(tx)

	lr, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if lr.UserID.String() != actorID {
		return LeaveRequestResponse{}, leaveerrors.ErrNotRequestOwner
	}
	if lr.Status == StatusCancelled {
		return LeaveRequestResponse{}, leaveerrors.ErrAlreadyCancelled
	}

	wasApproved := lr.Status == StatusApproved

	affected, err := qtx.UpdateStatusFrom(ctx, id, lr.Status, map[string]interface{}{
		"status": StatusCancelled,
	})
	if err != nil {
		log.Error("cancel leave request persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if affected == 0 {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	if wasApproved {
		year := time.Now().UTC().Year()
		if err := btx.ReverseUsage(ctx, lr.UserID.String(), lr.LeaveTypeID.String(), year, lr.DaysCount); err != nil {
			log.Error("cancel leave request ledger credit failed", zap.Error(err))
			return LeaveRequestResponse{}, err
		}
	}

	lr.Status = StatusCancelled

	if err := s.enqueueEvent(ctx, tx, lr, events.LeaveRequestCancelled, rid); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("cancel leave request commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	log.Info("leave request cancelled",
		zap.String("leave_request_id", id),
		zap.Bool("balance_reversed", wasApproved),
	)
	return mapToResponse(*lr), nil
}

func (s *service) enqueueEvent(ctx context.Context, tx *sql.Tx, lr *LeaveRequest, eventType, rid string) error {
	log := contextutil.GetLogger(ctx, s.logger)
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(events.LeaveStatusChangedEvent{
		EventType:   eventType,
		RequestID:   lr.ID.String(),
		UserID:      lr.UserID.String(),
		LeaveTypeID: lr.LeaveTypeID.String(),
		Status:      lr.Status,
		DaysCount:   lr.DaysCount,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	err = s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     rid,
		AggregateType: "leave_request",
		AggregateID:   lr.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
	if err != nil {
		log.Error("enqueue outbox event failed",
			zap.String("leave_request_id", lr.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
	return err
}
