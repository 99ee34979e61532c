package leavetype

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=leavetype_repo.go -destination=mock/leavetype_repo_mock.go -package=mock
type Repository interface {
	FindAll(ctx context.Context) ([]LeaveType, error)
	FindByID(ctx context.Context, id string) (*LeaveType, error)
	CreateIgnoreConflict(ctx context.Context, t *LeaveType) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveType, error) {
	var types []LeaveType
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&types).Error
	return types, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveType, error) {
	var t LeaveType
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateIgnoreConflict makes seeding idempotent: a catalog entry that already
// exists by name is left untouched.
func (r *repository) CreateIgnoreConflict(ctx context.Context, t *LeaveType) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(t).Error
}
