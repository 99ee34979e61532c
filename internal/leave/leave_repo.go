package leave

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, lr *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	ListForUser(ctx context.Context, userID string, q ListQuery) ([]LeaveRequest, error)
	ListAll(ctx context.Context, q ListQuery) ([]LeaveRequest, error)
	// CountForUser and CountAll apply the same filters as the listings so
	// pagination totals describe the whole result set, not one page.
	CountForUser(ctx context.Context, userID string, q ListQuery) (int64, error)
	CountAll(ctx context.Context, q ListQuery) (int64, error)
	// UpdateStatusFrom applies fields only when the row is still in
	// fromStatus. Zero affected rows means a concurrent transition won the
	// race; the caller must treat that as a state conflict, never retry the
	// write blindly.
	UpdateStatusFrom(ctx context.Context, id, fromStatus string, fields map[string]interface{}) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn binds statements to the enclosing sql.Tx when present so status and
// ledger writes land in the same transaction.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db = db.Session(&gorm.Session{NewDB: true}).WithContext(ctx)
		db.Statement.ConnPool = r.tx
	}
	return db
}

// enriched joins the denormalized display fields the read side wants.
func (r *repository) enriched(ctx context.Context) *gorm.DB {
	return r.conn(ctx).
		Table("leave_requests lr").
		Select(`lr.*,
			lt.name AS leave_type_name,
			u.display_name AS user_name,
			u.email AS user_email,
			approver.display_name AS approver_name`).
		Joins("JOIN leave_types lt ON lt.id = lr.leave_type_id").
		Joins("JOIN users u ON u.id = lr.user_id").
		Joins("LEFT JOIN users approver ON approver.id = lr.approved_by")
}

func (r *repository) Create(ctx context.Context, lr *LeaveRequest) error {
	return r.conn(ctx).Create(lr).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var lr LeaveRequest
	err := r.enriched(ctx).
		Where("lr.id = ?", id).
		Take(&lr).Error
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

func applyFilters(db *gorm.DB, q ListQuery) *gorm.DB {
	if q.Status != "" {
		db = db.Where("lr.status = ?", q.Status)
	}
	if q.Year != 0 {
		db = db.Where("EXTRACT(YEAR FROM lr.start_date) = ?", q.Year)
	}
	if q.UserID != "" {
		db = db.Where("lr.user_id = ?", q.UserID)
	}
	return db
}

func limitOffset(q ListQuery) (int, int) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}

func (r *repository) ListForUser(ctx context.Context, userID string, q ListQuery) ([]LeaveRequest, error) {
	q.UserID = ""
	limit, offset := limitOffset(q)

	var requests []LeaveRequest
	err := applyFilters(r.enriched(ctx), q).
		Where("lr.user_id = ?", userID).
		Order("lr.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&requests).Error
	return requests, err
}

func (r *repository) ListAll(ctx context.Context, q ListQuery) ([]LeaveRequest, error) {
	limit, offset := limitOffset(q)

	var requests []LeaveRequest
	err := applyFilters(r.enriched(ctx), q).
		Order("lr.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&requests).Error
	return requests, err
}

func (r *repository) CountForUser(ctx context.Context, userID string, q ListQuery) (int64, error) {
	q.UserID = ""

	var total int64
	err := applyFilters(r.conn(ctx).Table("leave_requests lr"), q).
		Where("lr.user_id = ?", userID).
		Count(&total).Error
	return total, err
}

func (r *repository) CountAll(ctx context.Context, q ListQuery) (int64, error) {
	var total int64
	err := applyFilters(r.conn(ctx).Table("leave_requests lr"), q).
		Count(&total).Error
	return total, err
}

func (r *repository) UpdateStatusFrom(ctx context.Context, id, fromStatus string, fields map[string]interface{}) (int64, error) {
	res := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(fields)
	return res.RowsAffected, res.Error
}
