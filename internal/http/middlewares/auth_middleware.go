package middlewares

import (
	"net/http"

	"github.com/geocoder89/gatekeeper/internal/actorctx"
	"github.com/geocoder89/gatekeeper/internal/auth"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokens  auth.TokenService
	cookies auth.CookieJar
}

func NewAuthMiddleware(tokens auth.TokenService, cookies auth.CookieJar) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, cookies: cookies}
}

// RequireSession verifies the session cookie on its own; it never trusts
// what the route guard decided for the same request.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := m.cookies.TokenFrom(c.Request)
		if !ok {
			abortUnauthorized(c, "Unauthorized, please log in")
			return
		}

		session, err := m.tokens.Verify(raw)
		if err != nil {
			abortUnauthorized(c, "Unauthorized, please log in")
			return
		}

		// Stash the identity for handlers and the store layer
		c.Set(ctxSessionKey, session)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), session.UserID))

		c.Next()
	}
}

// Optional helpers so handlers don't need to know the magic keys.

func SessionFromContext(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return auth.Session{}, false
	}
	s, ok := v.(auth.Session)
	return s, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":      "unauthorized",
			"message":   message,
			"requestId": c.GetString(CtxRequestID),
		},
	})
}
