package middleware

import (
	"net/http"
	"strings"

	"rkd-client/internal/auth"
	"rkd-client/internal/errors"
	"rkd-client/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware requires a Bearer JWT signed with secret and carrying scope.
func AuthMiddleware(secret, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := auth.ValidateJWT(parts[1], secret)
		if err != nil {
			logger.GlobalLogger.Debugf("rejected gateway token: client_ip=%s, error=%v", c.ClientIP(), err)
			abortUnauthorized(c, "invalid token")
			return
		}
		if scope != "" && claims.Scope != scope {
			abortUnauthorized(c, "token scope does not allow this operation")
			return
		}

		c.Set("subject", claims.Subject)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"message": errors.MsgUnauthorized,
			"code":    errors.ErrCodeUnauthorized,
			"reason":  reason,
		},
	})
}
