package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CronAuthMiddleware guards the internal scheduler trigger endpoints with a
// shared secret. These routes are meant for platform cron callers, not users.
func CronAuthMiddleware(cronSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		if cronSecret == "" {
			logger.Error("Cron secret not configured, rejecting trigger request")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Cron triggers disabled"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logger.Warn("Cron trigger without bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(cronSecret)) != 1 {
			logger.Warn("Cron trigger with invalid secret")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid cron secret"})
			return
		}

		c.Next()
	}
}
