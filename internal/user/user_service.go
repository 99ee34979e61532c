package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leavedesk/internal/balance"
	usererrors "leavedesk/internal/user/errors"
)

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	// SyncFromIdentity upserts the user record for the given identity claims
	// and provisions current-year leave balances on first sight.
	SyncFromIdentity(ctx context.Context, identity Identity) (UserResponse, error)
	GetByID(ctx context.Context, id string) (UserResponse, error)
	GetAll(ctx context.Context) ([]UserResponse, error)
	UpdateRole(ctx context.Context, id, role string) (UserResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	balances balance.Service
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, balances balance.Service, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{db: db, repo: repo, balances: balances, logger: l}
}

func (s *service) SyncFromIdentity(ctx context.Context, identity Identity) (UserResponse, error) {
	now := time.Now().UTC()

	existing, err := s.repo.FindByExternalID(ctx, identity.ExternalID)
	switch {
	case err == nil:
		existing.Email = identity.Email
		existing.DisplayName = identity.DisplayName
		existing.FirstName = identity.FirstName
		existing.LastName = identity.LastName
		existing.LastLoginAt = &now
		if err := s.repo.Update(ctx, existing); err != nil {
			s.logger.Error("user sync update failed",
				zap.String("external_id", identity.ExternalID),
				zap.Error(err),
			)
			return UserResponse{}, mapPersistenceError(err)
		}

		// Provisioning runs on every login, not just the first. It is
		// idempotent, so this repairs a first login that crashed between the
		// insert and the provisioning call, and it opens the ledger for a new
		// calendar year.
		if err := s.balances.ProvisionForUser(ctx, existing.ID.String(), now.Year()); err != nil {
			s.logger.Error("balance provisioning after sync failed",
				zap.String("user_id", existing.ID.String()),
				zap.Error(err),
			)
			return UserResponse{}, err
		}

		return mapToResponse(existing), nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		u := &User{
			ID:          uuid.New(),
			ExternalID:  identity.ExternalID,
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
			FirstName:   identity.FirstName,
			LastName:    identity.LastName,
			Role:        RoleUser,
			LastLoginAt: &now,
		}
		if err := s.repo.Create(ctx, u); err != nil {
			s.logger.Error("user sync create failed",
				zap.String("external_id", identity.ExternalID),
				zap.Error(err),
			)
			return UserResponse{}, mapPersistenceError(err)
		}

		// Provisioning is idempotent, so a crash between the insert and this
		// call is repaired by the next login, which provisions again.
		if err := s.balances.ProvisionForUser(ctx, u.ID.String(), now.Year()); err != nil {
			s.logger.Error("balance provisioning after sync failed",
				zap.String("user_id", u.ID.String()),
				zap.Error(err),
			)
			return UserResponse{}, err
		}

		s.logger.Info("user created from identity",
			zap.String("user_id", u.ID.String()),
			zap.String("external_id", identity.ExternalID),
		)
		return mapToResponse(u), nil

	default:
		s.logger.Error("user sync lookup failed",
			zap.String("external_id", identity.ExternalID),
			zap.Error(err),
		)
		return UserResponse{}, err
	}
}

func (s *service) GetByID(ctx context.Context, id string) (UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, usererrors.ErrUserNotFound
		}
		return UserResponse{}, err
	}
	return mapToResponse(u), nil
}

func (s *service) GetAll(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(users), nil
}

func (s *service) UpdateRole(ctx context.Context, id, role string) (UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}
	if role != RoleAdmin && role != RoleUser {
		return UserResponse{}, usererrors.ErrInvalidRole
	}

	affected, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		s.logger.Error("update role failed",
			zap.String("user_id", id),
			zap.Error(err),
		)
		return UserResponse{}, err
	}
	if affected == 0 {
		return UserResponse{}, usererrors.ErrUserNotFound
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}

	s.logger.Info("user role updated",
		zap.String("user_id", id),
		zap.String("role", role),
	)
	return mapToResponse(u), nil
}
