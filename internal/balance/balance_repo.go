package balance

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Get(ctx context.Context, userID, leaveTypeID string, year int) (*LeaveBalance, error)
	// GetForUpdate locks the balance row for the rest of the transaction so
	// concurrent approvals against the same counters serialize.
	GetForUpdate(ctx context.Context, userID, leaveTypeID string, year int) (*LeaveBalance, error)
	ListForUser(ctx context.Context, userID string, year int) ([]LeaveBalance, error)
	ApplyUsage(ctx context.Context, userID, leaveTypeID string, year, days int) error
	ReverseUsage(ctx context.Context, userID, leaveTypeID string, year, days int) error
	CreateIgnoreConflict(ctx context.Context, b *LeaveBalance) error
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

// conn routes statements through the enclosing sql.Tx when one is bound,
// so ledger writes commit or roll back together with the request store.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db = db.Session(&gorm.Session{NewDB: true}).WithContext(ctx)
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Get(ctx context.Context, userID, leaveTypeID string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Where("user_id = ? AND leave_type_id = ? AND year = ?", userID, leaveTypeID, year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) GetForUpdate(ctx context.Context, userID, leaveTypeID string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND leave_type_id = ? AND year = ?", userID, leaveTypeID, year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListForUser(ctx context.Context, userID string, year int) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := r.conn(ctx).
		Table("leave_balances lb").
		Select("lb.*, lt.name AS leave_type_name").
		Joins("JOIN leave_types lt ON lt.id = lb.leave_type_id").
		Where("lb.user_id = ? AND lb.year = ?", userID, year).
		Order("lt.name ASC").
		Scan(&balances).Error
	return balances, err
}

// ApplyUsage increments the consumed counter. No sufficiency check here;
// the lifecycle engine validates before it calls, and it must call at most
// once per approval because the increment is not idempotent.
func (r *repository) ApplyUsage(ctx context.Context, userID, leaveTypeID string, year, days int) error {
	return r.conn(ctx).
		Model(&LeaveBalance{}).
		Where("user_id = ? AND leave_type_id = ? AND year = ?", userID, leaveTypeID, year).
		UpdateColumn("used_days", gorm.Expr("used_days + ?", days)).Error
}

// ReverseUsage decrements the consumed counter, floored at zero so a
// stray double reversal cannot drive it negative.
func (r *repository) ReverseUsage(ctx context.Context, userID, leaveTypeID string, year, days int) error {
	return r.conn(ctx).
		Model(&LeaveBalance{}).
		Where("user_id = ? AND leave_type_id = ? AND year = ?", userID, leaveTypeID, year).
		UpdateColumn("used_days", gorm.Expr("GREATEST(0, used_days - ?)", days)).Error
}

// CreateIgnoreConflict leaves an existing (user, type, year) row untouched,
// which makes provisioning retry-safe.
func (r *repository) CreateIgnoreConflict(ctx context.Context, b *LeaveBalance) error {
	return r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "leave_type_id"}, {Name: "year"},
			},
			DoNothing: true,
		}).
		Create(b).Error
}
