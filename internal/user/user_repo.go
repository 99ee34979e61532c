package user

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) error
	UpdateRole(ctx context.Context, id, role string) (int64, error)
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

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db = db.Session(&gorm.Session{NewDB: true}).WithContext(ctx)
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, u *User) error {
	return r.conn(ctx).Create(u).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := r.conn(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	var u User
	if err := r.conn(ctx).Where("external_id = ?", externalID).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindAll(ctx context.Context) ([]User, error) {
	var users []User
	err := r.conn(ctx).Order("display_name ASC").Find(&users).Error
	return users, err
}

func (r *repository) Update(ctx context.Context, u *User) error {
	return r.conn(ctx).Save(u).Error
}

func (r *repository) UpdateRole(ctx context.Context, id, role string) (int64, error) {
	res := r.conn(ctx).
		Model(&User{}).
		Where("id = ?", id).
		UpdateColumn("role", role)
	return res.RowsAffected, res.Error
}
