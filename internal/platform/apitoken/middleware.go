// Package apitoken provides Gin middleware that authenticates requests with
// a bearer API token and enforces a required role before the handler runs.
package apitoken

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"account_backend/internal/feature/user/domain/entity"
)

// Context keys set by the middleware for downstream handlers.
const (
	ContextUserID = "userID"
	ContextUser   = "user"
)

// UserAuthenticator resolves a bearer API token to the account it belongs to.
// Defined here by the consumer; the user repository satisfies it.
type UserAuthenticator interface {
	FindByAPIToken(ctx context.Context, token string) (*entity.User, error)
}

// RequireRole returns a Gin middleware function that validates the bearer
// API token and restricts access to accounts holding the given role.
func RequireRole(auth UserAuthenticator, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		// 2. Resolve the token to an account. An unknown or rotated-away
		// token no longer authenticates.
		user, err := auth.FindByAPIToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid api token"})
			return
		}

		// 3. Enforce the required role before the handler runs
		if !user.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "access denied"})
			return
		}

		// 4. Expose the caller to downstream handlers
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)

		// 5. Pass control to the next handler
		c.Next()
	}
}
