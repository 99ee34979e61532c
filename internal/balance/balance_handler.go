package balance

import (
	"net/http"
	"strconv"
	"time"

	"leavedesk/internal/shared/apperror"
	"leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("balance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("balance request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func yearQuery(c *gin.Context) int {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year == 0 {
		return time.Now().UTC().Year()
	}
	return year
}

// GetOwn returns the caller's balances for the requested (default current) year.
func (h *Handler) GetOwn(c *gin.Context) {
	userID := c.GetString("user_id")
	year := yearQuery(c)

	resp, err := h.service.GetBalances(c.Request.Context(), userID, year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"balances": resp, "year": year}, nil)
}

// GetForUser is the admin view of any user's balances.
func (h *Handler) GetForUser(c *gin.Context) {
	userID := c.Param("userId")
	year := yearQuery(c)

	resp, err := h.service.GetBalances(c.Request.Context(), userID, year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"balances": resp, "year": year}, nil)
}
