package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"leavedesk/internal/shared/apperror"
	"leavedesk/internal/shared/contextutil"
	"leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// AuthMiddleware validates the bearer token issued by the identity provider
// and stashes the claims the modules care about in the gin context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "Token not found", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			message := "Invalid token"
			if err != nil && strings.Contains(err.Error(), "expired") {
				message = "Token has expired"
			}
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, message, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "Invalid token claims", nil)
			c.Abort()
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "User ID not found in token", nil)
			c.Abort()
			return
		}

		// Identity claims may be absent on tokens minted before the first
		// profile sync; those routes tolerate empty values.
		externalID, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		displayName, _ := claims["name"].(string)
		role, _ := claims["role"].(string)

		c.Set("user_id", userID)
		c.Set("external_id", externalID)
		c.Set("email", email)
		c.Set("display_name", displayName)
		c.Set("role", role)

		ctx := contextutil.WithUserID(c.Request.Context(), userID)
		ctx = contextutil.WithRole(ctx, role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("role")
		if !exists {
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden, "You don't have permission to access this resource", nil)
			c.Abort()
			return
		}

		isAllowed := false
		for _, role := range allowedRoles {
			if userRole == role {
				isAllowed = true
				break
			}
		}

		if !isAllowed {
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden, "You don't have permission to access this resource", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
