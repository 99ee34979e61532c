package report

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=report_repo.go -destination=mock/report_repo_mock.go -package=mock
type Repository interface {
	Summary(ctx context.Context, f SummaryFilter) ([]SummaryRow, error)
	Stats(ctx context.Context, year int) ([]StatsRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Summary cross-joins users with the leave-type catalog so every pair shows
// up, then left-joins the year's requests and balances on top. Counters
// coalesce to zero where nothing matched.
func (r *repository) Summary(ctx context.Context, f SummaryFilter) ([]SummaryRow, error) {
	query := `
SELECT
	u.id::text AS user_id,
	u.display_name AS user_name,
	u.email AS user_email,
	lt.name AS leave_type,
	COUNT(CASE WHEN lr.status = 'APPROVED' THEN 1 END) AS approved_count,
	COUNT(CASE WHEN lr.status = 'REJECTED' THEN 1 END) AS rejected_count,
	COUNT(CASE WHEN lr.status = 'PENDING' THEN 1 END) AS pending_count,
	COALESCE(SUM(CASE WHEN lr.status = 'APPROVED' THEN lr.days_count ELSE 0 END), 0) AS total_days_taken,
	COALESCE(lb.total_days, 0) AS total_days,
	COALESCE(lb.used_days, 0) AS used_days,
	COALESCE(lb.total_days - lb.used_days, 0) AS remaining_days
FROM users u
CROSS JOIN leave_types lt
LEFT JOIN leave_requests lr ON lr.user_id = u.id AND lr.leave_type_id = lt.id
	AND EXTRACT(YEAR FROM lr.start_date) = ?
LEFT JOIN leave_balances lb ON lb.user_id = u.id AND lb.leave_type_id = lt.id AND lb.year = ?
WHERE 1=1
`
	args := []interface{}{f.Year, f.Year}

	if f.UserID != "" {
		query += " AND u.id = ?"
		args = append(args, f.UserID)
	}
	if f.Month != 0 {
		query += " AND EXTRACT(MONTH FROM lr.start_date) = ?"
		args = append(args, f.Month)
	}

	query += `
GROUP BY u.id, u.display_name, u.email, lt.id, lt.name, lb.total_days, lb.used_days
ORDER BY u.display_name, lt.name
`

	var rows []SummaryRow
	err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error
	return rows, err
}

func (r *repository) Stats(ctx context.Context, year int) ([]StatsRow, error) {
	query := `
SELECT
	lt.name AS leave_type,
	COUNT(DISTINCT lr.user_id) AS employees_used,
	COALESCE(SUM(CASE WHEN lr.status = 'APPROVED' THEN lr.days_count ELSE 0 END), 0) AS total_days_taken,
	COUNT(CASE WHEN lr.status = 'PENDING' THEN 1 END) AS pending_count,
	COUNT(CASE WHEN lr.status = 'APPROVED' THEN 1 END) AS approved_count,
	COUNT(CASE WHEN lr.status = 'REJECTED' THEN 1 END) AS rejected_count
FROM leave_types lt
LEFT JOIN leave_requests lr ON lr.leave_type_id = lt.id
	AND EXTRACT(YEAR FROM lr.start_date) = ?
GROUP BY lt.id, lt.name
ORDER BY lt.name
`

	var rows []StatsRow
	err := r.db.WithContext(ctx).Raw(query, year).Scan(&rows).Error
	return rows, err
}
