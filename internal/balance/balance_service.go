package balance

import (
	"context"
	"database/sql"
	"errors"

	balanceerrors "leavedesk/internal/balance/errors"
	"leavedesk/internal/leavetype"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	GetBalances(ctx context.Context, userID string, year int) ([]BalanceResponse, error)
	GetBalance(ctx context.Context, userID, leaveTypeID string, year int) (BalanceResponse, error)
	// ProvisionForUser creates one zero-usage balance row per catalog entry.
	// Rows that already exist are skipped, so calling it twice is a no-op.
	ProvisionForUser(ctx context.Context, userID string, year int) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	types  leavetype.Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, types leavetype.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{db: db, repo: repo, types: types, logger: l}
}

func (s *service) GetBalances(ctx context.Context, userID string, year int) ([]BalanceResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, balanceerrors.ErrInvalidUserID
	}
	if year < 2000 || year > 2100 {
		return nil, balanceerrors.ErrInvalidYear
	}

	balances, err := s.repo.ListForUser(ctx, userID, year)
	if err != nil {
		s.logger.Error("list balances failed",
			zap.String("user_id", userID),
			zap.Int("year", year),
			zap.Error(err),
		)
		return nil, err
	}
	return mapToListResponse(balances), nil
}

func (s *service) GetBalance(ctx context.Context, userID, leaveTypeID string, year int) (BalanceResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidUserID
	}

	b, err := s.repo.Get(ctx, userID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, balanceerrors.ErrBalanceNotFound
		}
		return BalanceResponse{}, err
	}
	return mapToResponse(*b), nil
}

func (s *service) ProvisionForUser(ctx context.Context, userID string, year int) error {
	s.logger.Debug("provision balances requested",
		zap.String("user_id", userID),
		zap.Int("year", year),
	)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return balanceerrors.ErrInvalidUserID
	}

	types, err := s.types.FindAll(ctx)
	if err != nil {
		s.logger.Error("provision balances catalog read failed", zap.Error(err))
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("provision balances begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	for _, t := range types {
		b := &LeaveBalance{
			ID:          uuid.New(),
			UserID:      userUUID,
			LeaveTypeID: t.ID,
			Year:        year,
			TotalDays:   t.DaysPerYear,
			UsedDays:    0,
		}
		if err := qtx.CreateIgnoreConflict(ctx, b); err != nil {
			s.logger.Error("provision balance row failed",
				zap.String("user_id", userID),
				zap.String("leave_type_id", t.ID.String()),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("provision balances commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("balances provisioned",
		zap.String("user_id", userID),
		zap.Int("year", year),
		zap.Int("leave_types", len(types)),
	)
	return nil
}
