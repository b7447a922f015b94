package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
)

// SuperAdminSet is an immutable lowercase email allowlist built once at
// startup from configuration. It is never mutated afterwards, so concurrent
// reads from request handlers are safe without locking.
type SuperAdminSet map[string]struct{}

// NewSuperAdminSet normalises and indexes the configured emails.
func NewSuperAdminSet(emails []string) SuperAdminSet {
	set := make(SuperAdminSet, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the email is on the allowlist.
func (s SuperAdminSet) Contains(email string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// SuperAdminMiddleware restricts a route group to platform super admins.
// It runs after AuthMiddleware and resolves the authenticated user's email.
func SuperAdminMiddleware(admins SuperAdminSet, userSvc portssvc.UserReaderSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		userID, ok := GetUserIDFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		user, err := userSvc.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			logger.Error("Failed to resolve user for super admin check", "error", err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		if !admins.Contains(user.Email) {
			logger.Warn("Non super admin attempted platform admin route")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Super admin access required"})
			return
		}

		c.Next()
	}
}
