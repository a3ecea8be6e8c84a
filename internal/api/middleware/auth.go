package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/identity"
)

const userContextKey = "user"

// TokenVerifier resolves a bearer token to a user
type TokenVerifier interface {
	Verify(token string) (*identity.User, error)
}

// AuthMiddleware resolves the optional bearer token. A request without an
// Authorization header continues as a guest; a bad token is rejected.
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		user, err := verifier.Verify(token)
		if err != nil {
			logger.Warn("Rejected bearer token",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// GetUserFromContext returns the signed-in user, or false for a guest
func GetUserFromContext(c *gin.Context) (*identity.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*identity.User)
	return user, ok && user != nil
}
