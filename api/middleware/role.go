package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const RoleHeaderName = "X-AFRIMAIL-USER-ROLE"

// RequireRole gates a route group on the role asserted by the authenticating
// proxy. Authentication itself happens upstream; this is a capability check
// only.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		asserted := strings.TrimSpace(c.GetHeader(RoleHeaderName))

		if !strings.EqualFold(asserted, role) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient role",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
