package middlewares

import (
	"net/http"

	"github.com/geocoder89/gatekeeper/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireSession. A missing session is a 401,
// a session with the wrong role is a 403.
func (m *AuthMiddleware) RequireRole(required user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFromContext(c)

		if !ok {
			abortUnauthorized(c, "Missing identity context")
			return
		}
		if session.Role != required {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":      "forbidden",
					"message":   "Forbidden, " + string(required) + " role required",
					"requestId": c.GetString(CtxRequestID),
				},
			})
			return
		}
		c.Next()
	}
}
