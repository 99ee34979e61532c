package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"leavedesk/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func rateLimitedRouter(limit gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/leaves/request",
		func(c *gin.Context) {
			if uid := c.GetHeader("X-Test-User"); uid != "" {
				c.Set("user_id", uid)
			}
		},
		limit,
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)
	return r
}

func doPost(r *gin.Engine, userID string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leaves/request", nil)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitByUser(t *testing.T) {
	t.Run("throttles one user past the burst", func(t *testing.T) {
		r := rateLimitedRouter(middleware.RateLimitByUser(1, 2))

		assert.Equal(t, http.StatusCreated, doPost(r, "dana"))
		assert.Equal(t, http.StatusCreated, doPost(r, "dana"))
		assert.Equal(t, http.StatusTooManyRequests, doPost(r, "dana"))
	})

	t.Run("buckets are independent per user", func(t *testing.T) {
		r := rateLimitedRouter(middleware.RateLimitByUser(1, 1))

		assert.Equal(t, http.StatusCreated, doPost(r, "dana"))
		assert.Equal(t, http.StatusTooManyRequests, doPost(r, "dana"))
		assert.Equal(t, http.StatusCreated, doPost(r, "amir"))
	})

	t.Run("unauthenticated requests pass through", func(t *testing.T) {
		r := rateLimitedRouter(middleware.RateLimitByUser(1, 1))

		assert.Equal(t, http.StatusCreated, doPost(r, ""))
		assert.Equal(t, http.StatusCreated, doPost(r, ""))
	})
}

func TestRateLimitByIP(t *testing.T) {
	r := rateLimitedRouter(middleware.RateLimitByIP(1, 1))

	assert.Equal(t, http.StatusCreated, doPost(r, ""))
	assert.Equal(t, http.StatusTooManyRequests, doPost(r, ""))
}
