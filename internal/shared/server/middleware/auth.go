package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"receipt-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	isAdminKey   = "isAdmin"
)

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// Authenticator resolves a raw bearer token into the caller's identity.
type Authenticator func(ctx context.Context, token string) (Identity, error)

// Auth requires a valid bearer token and stores the caller identity in context.
func Auth(authenticate Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing Authorization header", nil)
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", nil)
			return
		}

		ident, err := authenticate(c.Request.Context(), token)
		if err != nil || ident.UserID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", nil)
			return
		}

		c.Set(userIDKey, ident.UserID)
		c.Set(userEmailKey, ident.Email)
		c.Set(isAdminKey, ident.IsAdmin)
		c.Next()
	}
}

// RequireAdmin rejects callers whose identity lacks the admin flag.
// It must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdminFromContext(c) {
			respond.Error(c, http.StatusForbidden, "forbidden", "Admin privileges required", nil)
			return
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userEmailKey)
}

// IsAdminFromContext reports whether the auth middleware marked the caller as admin.
func IsAdminFromContext(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(isAdminKey)
}
