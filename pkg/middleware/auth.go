package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/sessions"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/logger"
)

// IdentityKey is the gin context key RequireIdentity stores the caller under.
const IdentityKey = "identity"

// IdentityResolver is the minimal interface the middleware depends on
type IdentityResolver interface {
	CurrentIdentity(ctx context.Context, token string) (models.Identity, error)
}

// RequireIdentity returns a Gin middleware that resolves the session cookie
// to an identity, or aborts with 401.
func RequireIdentity(res IdentityResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		id, err := res.CurrentIdentity(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, sessions.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			logger.Errorf("session lookup failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(IdentityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity set by RequireIdentity, or "".
func IdentityFrom(c *gin.Context) models.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return ""
}
