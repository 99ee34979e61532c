package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leavedesk/internal/user"
	usererrors "leavedesk/internal/user/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeUserService struct {
	syncFn       func(ctx context.Context, identity user.Identity) (user.UserResponse, error)
	getByIDFn    func(ctx context.Context, id string) (user.UserResponse, error)
	getAllFn     func(ctx context.Context) ([]user.UserResponse, error)
	updateRoleFn func(ctx context.Context, id, role string) (user.UserResponse, error)
}

func (f *fakeUserService) SyncFromIdentity(ctx context.Context, identity user.Identity) (user.UserResponse, error) {
	return f.syncFn(ctx, identity)
}
func (f *fakeUserService) GetByID(ctx context.Context, id string) (user.UserResponse, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakeUserService) GetAll(ctx context.Context) ([]user.UserResponse, error) {
	return f.getAllFn(ctx)
}
func (f *fakeUserService) UpdateRole(ctx context.Context, id, role string) (user.UserResponse, error) {
	return f.updateRoleFn(ctx, id, role)
}

func TestUserHandler_Sync(t *testing.T) {
	t.Run("success from token claims", func(t *testing.T) {
		svc := &fakeUserService{
			syncFn: func(ctx context.Context, identity user.Identity) (user.UserResponse, error) {
				assert.Equal(t, "okta|123", identity.ExternalID)
				assert.Equal(t, "dana@example.com", identity.Email)
				return user.UserResponse{ID: uuid.New().String(), Email: identity.Email, Role: user.RoleUser}, nil
			},
		}
		h := user.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/users/sync", nil)
		c.Set("external_id", "okta|123")
		c.Set("email", "dana@example.com")
		c.Set("display_name", "Dana Example")

		h.Sync(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("negative missing identity claims", func(t *testing.T) {
		h := user.NewHandler(&fakeUserService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/users/sync", nil)

		h.Sync(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserHandler_UpdateRole(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		svc := &fakeUserService{
			updateRoleFn: func(ctx context.Context, uid, role string) (user.UserResponse, error) {
				assert.Equal(t, id, uid)
				assert.Equal(t, user.RoleAdmin, role)
				return user.UserResponse{ID: uid, Role: role}, nil
			},
		}
		h := user.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/users/"+id+"/role", strings.NewReader(`{"role":"ADMIN"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "id", Value: id}}

		h.UpdateRole(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var env struct {
			Ok   bool              `json:"ok"`
			Data user.UserResponse `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, user.RoleAdmin, env.Data.Role)
	})

	t.Run("negative missing body role", func(t *testing.T) {
		h := user.NewHandler(&fakeUserService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/users/x/role", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

		h.UpdateRole(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative unknown user", func(t *testing.T) {
		svc := &fakeUserService{
			updateRoleFn: func(ctx context.Context, uid, role string) (user.UserResponse, error) {
				return user.UserResponse{}, usererrors.ErrUserNotFound
			},
		}
		h := user.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/users/x/role", strings.NewReader(`{"role":"USER"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

		h.UpdateRole(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUserHandler_GetMe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		userID := uuid.New().String()
		svc := &fakeUserService{
			getByIDFn: func(ctx context.Context, id string) (user.UserResponse, error) {
				assert.Equal(t, userID, id)
				return user.UserResponse{ID: id}, nil
			},
		}
		h := user.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/users/me", nil)
		c.Set("user_id", userID)

		h.GetMe(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
