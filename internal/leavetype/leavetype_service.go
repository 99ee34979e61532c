package leavetype

import (
	"context"

	"go.uber.org/zap"
)

// DefaultCatalog is the initial leave-type catalog created at startup.
var DefaultCatalog = []LeaveType{
	{Name: "Casual Leave", Description: "Short personal absence", DaysPerYear: 10},
	{Name: "Paid Leave", Description: "Planned annual vacation", DaysPerYear: 15},
	{Name: "Sick Leave", Description: "Illness or medical appointments", DaysPerYear: 12},
	{Name: "Unpaid Leave", Description: "Absence without pay", DaysPerYear: 30},
}

//go:generate mockgen -source=leavetype_service.go -destination=mock/leavetype_service_mock.go -package=mock
type Service interface {
	GetAll(ctx context.Context) ([]LeaveTypeResponse, error)
	Seed(ctx context.Context) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavetype.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavetype.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) GetAll(ctx context.Context) ([]LeaveTypeResponse, error) {
	types, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("list leave types failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(types), nil
}

func (s *service) Seed(ctx context.Context) error {
	for i := range DefaultCatalog {
		t := DefaultCatalog[i]
		if err := s.repo.CreateIgnoreConflict(ctx, &t); err != nil {
			s.logger.Error("seed leave type failed",
				zap.String("name", t.Name),
				zap.Error(err),
			)
			return err
		}
	}
	s.logger.Info("leave type catalog seeded", zap.Int("count", len(DefaultCatalog)))
	return nil
}
