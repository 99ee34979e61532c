package report_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"leavedesk/internal/report"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

type fakeReportRepository struct {
	summaryFn func(ctx context.Context, f report.SummaryFilter) ([]report.SummaryRow, error)
	statsFn   func(ctx context.Context, year int) ([]report.StatsRow, error)
}

func (f *fakeReportRepository) Summary(ctx context.Context, filter report.SummaryFilter) ([]report.SummaryRow, error) {
	if f.summaryFn != nil {
		return f.summaryFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeReportRepository) Stats(ctx context.Context, year int) ([]report.StatsRow, error) {
	if f.statsFn != nil {
		return f.statsFn(ctx, year)
	}
	return nil, nil
}

func TestReportService_Summary(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to current year", func(t *testing.T) {
		repo := &fakeReportRepository{
			summaryFn: func(ctx context.Context, f report.SummaryFilter) ([]report.SummaryRow, error) {
				assert.Equal(t, time.Now().UTC().Year(), f.Year)
				return []report.SummaryRow{{UserName: "Dana", LeaveType: "Casual Leave"}}, nil
			},
		}
		svc := report.NewService(repo, nil)

		rows, err := svc.Summary(ctx, report.SummaryFilter{})

		assert.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("filters pass through untouched", func(t *testing.T) {
		repo := &fakeReportRepository{
			summaryFn: func(ctx context.Context, f report.SummaryFilter) ([]report.SummaryRow, error) {
				assert.Equal(t, 2025, f.Year)
				assert.Equal(t, "user-1", f.UserID)
				assert.Equal(t, 3, f.Month)
				return nil, nil
			},
		}
		svc := report.NewService(repo, nil)

		_, err := svc.Summary(ctx, report.SummaryFilter{Year: 2025, UserID: "user-1", Month: 3})

		assert.NoError(t, err)
	})

	t.Run("negative repo error", func(t *testing.T) {
		repo := &fakeReportRepository{
			summaryFn: func(ctx context.Context, f report.SummaryFilter) ([]report.SummaryRow, error) {
				return nil, errors.New("db error")
			},
		}
		svc := report.NewService(repo, nil)

		rows, err := svc.Summary(ctx, report.SummaryFilter{Year: 2026})

		assert.Error(t, err)
		assert.Nil(t, rows)
	})
}

func TestReportService_Stats(t *testing.T) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("report:stats:%d", 2026)

	t.Run("cache hit skips the query", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		cached := []report.StatsRow{{LeaveType: "Sick Leave", ApprovedCount: 5}}
		jsonData, _ := json.Marshal(cached)
		redisMock.ExpectGet(cacheKey).SetVal(string(jsonData))

		repo := &fakeReportRepository{
			statsFn: func(ctx context.Context, year int) ([]report.StatsRow, error) {
				t.Fatal("repository must not be queried on a cache hit")
				return nil, nil
			},
		}
		svc := report.NewService(repo, rdb)

		rows, err := svc.Stats(ctx, 2026)

		assert.NoError(t, err)
		assert.Equal(t, cached, rows)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache miss queries and writes back", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		fresh := []report.StatsRow{{LeaveType: "Paid Leave", EmployeesUsed: 3, TotalDaysTaken: 12}}
		jsonData, _ := json.Marshal(fresh)

		redisMock.ExpectGet(cacheKey).RedisNil()
		redisMock.ExpectSet(cacheKey, jsonData, time.Hour).SetVal("OK")

		repo := &fakeReportRepository{
			statsFn: func(ctx context.Context, year int) ([]report.StatsRow, error) {
				assert.Equal(t, 2026, year)
				return fresh, nil
			},
		}
		svc := report.NewService(repo, rdb)

		rows, err := svc.Stats(ctx, 2026)

		assert.NoError(t, err)
		assert.Equal(t, fresh, rows)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("works without redis", func(t *testing.T) {
		repo := &fakeReportRepository{
			statsFn: func(ctx context.Context, year int) ([]report.StatsRow, error) {
				return []report.StatsRow{{LeaveType: "Unpaid Leave"}}, nil
			},
		}
		svc := report.NewService(repo, nil)

		rows, err := svc.Stats(ctx, 2026)

		assert.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("negative repo error", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		redisMock.ExpectGet(cacheKey).RedisNil()

		repo := &fakeReportRepository{
			statsFn: func(ctx context.Context, year int) ([]report.StatsRow, error) {
				return nil, errors.New("db error")
			},
		}
		svc := report.NewService(repo, rdb)

		_, err := svc.Stats(ctx, 2026)

		assert.Error(t, err)
	})
}
