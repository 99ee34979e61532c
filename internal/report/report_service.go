package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	statsCacheKeyPrefix = "report:stats:"
	statsCacheTTL       = time.Hour
)

//go:generate mockgen -source=report_service.go -destination=mock/report_service_mock.go -package=mock
type Service interface {
	Summary(ctx context.Context, f SummaryFilter) ([]SummaryRow, error)
	Stats(ctx context.Context, year int) ([]StatsRow, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("report.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("report.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Summary(ctx context.Context, f SummaryFilter) ([]SummaryRow, error) {
	if f.Year == 0 {
		f.Year = time.Now().UTC().Year()
	}

	rows, err := s.repo.Summary(ctx, f)
	if err != nil {
		s.logger.Error("summary report failed",
			zap.Int("year", f.Year),
			zap.String("user_id", f.UserID),
			zap.Int("month", f.Month),
			zap.Error(err),
		)
		return nil, err
	}
	return rows, nil
}

// Stats serves from a one-hour redis cache with a singleflight guard so a
// burst of dashboard loads issues exactly one aggregate query.
func (s *service) Stats(ctx context.Context, year int) ([]StatsRow, error) {
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	cacheKey := fmt.Sprintf("%s%d", statsCacheKeyPrefix, year)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var rows []StatsRow
			if err := json.Unmarshal([]byte(cached), &rows); err == nil {
				return rows, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		rows, err := s.repo.Stats(ctx, year)
		if err != nil {
			return nil, err
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(rows); err == nil {
				if err := s.rdb.Set(ctx, cacheKey, jsonData, statsCacheTTL).Err(); err != nil {
					s.logger.Warn("stats cache write failed",
						zap.String("key", cacheKey),
						zap.Error(err),
					)
				}
			}
		}
		return rows, nil
	})
	if err != nil {
		s.logger.Error("stats report failed", zap.Int("year", year), zap.Error(err))
		return nil, err
	}

	return v.([]StatsRow), nil
}
