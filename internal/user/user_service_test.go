package user_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"leavedesk/internal/balance"
	"leavedesk/internal/user"
	usererrors "leavedesk/internal/user/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeUserRepository struct {
	createFn           func(ctx context.Context, u *user.User) error
	findByIDFn         func(ctx context.Context, id string) (*user.User, error)
	findByExternalIDFn func(ctx context.Context, externalID string) (*user.User, error)
	findAllFn          func(ctx context.Context) ([]user.User, error)
	updateFn           func(ctx context.Context, u *user.User) error
	updateRoleFn       func(ctx context.Context, id, role string) (int64, error)
}

func (f *fakeUserRepository) WithTx(tx *sql.Tx) user.Repository { return f }

func (f *fakeUserRepository) Create(ctx context.Context, u *user.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}
	return nil
}

func (f *fakeUserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) FindByExternalID(ctx context.Context, externalID string) (*user.User, error) {
	if f.findByExternalIDFn != nil {
		return f.findByExternalIDFn(ctx, externalID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) FindAll(ctx context.Context) ([]user.User, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeUserRepository) Update(ctx context.Context, u *user.User) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, u)
	}
	return nil
}

func (f *fakeUserRepository) UpdateRole(ctx context.Context, id, role string) (int64, error) {
	if f.updateRoleFn != nil {
		return f.updateRoleFn(ctx, id, role)
	}
	return 1, nil
}

type fakeBalanceService struct {
	provisionFn func(ctx context.Context, userID string, year int) error
}

func (f *fakeBalanceService) GetBalances(ctx context.Context, userID string, year int) ([]balance.BalanceResponse, error) {
	return nil, nil
}

func (f *fakeBalanceService) GetBalance(ctx context.Context, userID, leaveTypeID string, year int) (balance.BalanceResponse, error) {
	return balance.BalanceResponse{}, nil
}

func (f *fakeBalanceService) ProvisionForUser(ctx context.Context, userID string, year int) error {
	if f.provisionFn != nil {
		return f.provisionFn(ctx, userID, year)
	}
	return nil
}

type userServiceDeps struct {
	db       *sql.DB
	service  user.Service
	repo     *fakeUserRepository
	balances *fakeBalanceService
}

func setupUserServiceTest(t *testing.T) *userServiceDeps {
	t.Helper()

	db, _, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeUserRepository{}
	balances := &fakeBalanceService{}
	svc := user.NewService(db, repo, balances)

	return &userServiceDeps{db: db, service: svc, repo: repo, balances: balances}
}

func TestUserService_SyncFromIdentity(t *testing.T) {
	ctx := context.Background()
	identity := user.Identity{
		ExternalID:  "okta|12345",
		Email:       "dana@example.com",
		DisplayName: "Dana Example",
	}

	t.Run("first login creates user and provisions balances", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		var createdID string
		deps.repo.createFn = func(ctx context.Context, u *user.User) error {
			assert.Equal(t, identity.ExternalID, u.ExternalID)
			assert.Equal(t, user.RoleUser, u.Role)
			assert.NotNil(t, u.LastLoginAt)
			createdID = u.ID.String()
			return nil
		}
		provisioned := false
		deps.balances.provisionFn = func(ctx context.Context, userID string, year int) error {
			assert.Equal(t, createdID, userID)
			assert.Equal(t, time.Now().UTC().Year(), year)
			provisioned = true
			return nil
		}

		resp, err := deps.service.SyncFromIdentity(ctx, identity)

		assert.NoError(t, err)
		assert.True(t, provisioned)
		assert.Equal(t, identity.Email, resp.Email)
		assert.Equal(t, user.RoleUser, resp.Role)
	})

	t.Run("repeat login updates profile and re-runs provisioning", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		existing := &user.User{
			ID:          uuid.New(),
			ExternalID:  identity.ExternalID,
			Email:       "old@example.com",
			DisplayName: "Old Name",
			Role:        user.RoleAdmin,
		}
		deps.repo.findByExternalIDFn = func(ctx context.Context, externalID string) (*user.User, error) {
			return existing, nil
		}
		provisioned := false
		deps.balances.provisionFn = func(ctx context.Context, userID string, year int) error {
			assert.Equal(t, existing.ID.String(), userID)
			assert.Equal(t, time.Now().UTC().Year(), year)
			provisioned = true
			return nil
		}

		resp, err := deps.service.SyncFromIdentity(ctx, identity)

		assert.NoError(t, err)
		assert.True(t, provisioned)
		assert.Equal(t, identity.Email, resp.Email)
		assert.Equal(t, identity.DisplayName, resp.DisplayName)
		// Role is managed locally and survives profile refreshes.
		assert.Equal(t, user.RoleAdmin, resp.Role)
	})

	t.Run("next login repairs provisioning that failed after the insert", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		var created *user.User
		deps.repo.findByExternalIDFn = func(ctx context.Context, externalID string) (*user.User, error) {
			if created == nil {
				return nil, gorm.ErrRecordNotFound
			}
			return created, nil
		}
		deps.repo.createFn = func(ctx context.Context, u *user.User) error {
			created = u
			return nil
		}

		// First login: the user row lands but provisioning fails.
		deps.balances.provisionFn = func(ctx context.Context, userID string, year int) error {
			return errors.New("connection reset")
		}
		_, err := deps.service.SyncFromIdentity(ctx, identity)
		assert.Error(t, err)
		assert.NotNil(t, created)

		// Second login takes the update branch and provisions the ledger.
		provisioned := false
		deps.balances.provisionFn = func(ctx context.Context, userID string, year int) error {
			assert.Equal(t, created.ID.String(), userID)
			provisioned = true
			return nil
		}
		resp, err := deps.service.SyncFromIdentity(ctx, identity)

		assert.NoError(t, err)
		assert.True(t, provisioned)
		assert.Equal(t, identity.Email, resp.Email)
	})

	t.Run("negative duplicate email maps to conflict", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.repo.createFn = func(ctx context.Context, u *user.User) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"}
		}

		_, err := deps.service.SyncFromIdentity(ctx, identity)

		assert.ErrorIs(t, err, usererrors.ErrEmailTaken)
	})
}

func TestUserService_UpdateRole(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.repo.updateRoleFn = func(ctx context.Context, uid, role string) (int64, error) {
			assert.Equal(t, id, uid)
			assert.Equal(t, user.RoleAdmin, role)
			return 1, nil
		}
		deps.repo.findByIDFn = func(ctx context.Context, uid string) (*user.User, error) {
			return &user.User{ID: uuid.MustParse(id), Role: user.RoleAdmin}, nil
		}

		resp, err := deps.service.UpdateRole(ctx, id, user.RoleAdmin)

		assert.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, resp.Role)
	})

	t.Run("negative unknown role", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.UpdateRole(ctx, id, "SUPERVISOR")

		assert.ErrorIs(t, err, usererrors.ErrInvalidRole)
	})

	t.Run("negative missing user", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.repo.updateRoleFn = func(ctx context.Context, uid, role string) (int64, error) {
			return 0, nil
		}

		_, err := deps.service.UpdateRole(ctx, id, user.RoleUser)

		assert.ErrorIs(t, err, usererrors.ErrUserNotFound)
	})
}

func TestUserService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("negative invalid uuid", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetByID(ctx, "nope")

		assert.ErrorIs(t, err, usererrors.ErrInvalidUserID)
	})

	t.Run("negative repo error passes through", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*user.User, error) {
			return nil, errors.New("db error")
		}

		_, err := deps.service.GetByID(ctx, uuid.New().String())

		assert.Error(t, err)
		assert.NotErrorIs(t, err, usererrors.ErrUserNotFound)
	})
}
