package middlewares

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/geocoder89/gatekeeper/internal/auth"
	"github.com/geocoder89/gatekeeper/internal/observability"
	"github.com/gin-gonic/gin"
)

var (
	DefaultProtectedPrefixes = []string{"/home"}
	DefaultAuthOnlyPaths     = []string{"/login", "/signup"}
)

type PathClass int

const (
	PathOpen PathClass = iota
	PathProtected
	PathAuthOnly
)

type GuardConfig struct {
	// Protected prefixes need a session; anonymous callers go to LoginPath.
	Protected []string
	// AuthOnly pages bounce callers that already have a session to HomePath.
	AuthOnly  []string
	LoginPath string
	HomePath  string
}

// RouteGuard makes the coarse page-level allow/redirect decision. It is UI
// routing only: API handlers enforce access on their own.
type RouteGuard struct {
	cfg     GuardConfig
	tokens  auth.TokenService
	cookies auth.CookieJar
	prom    *observability.Prom
}

func NewRouteGuard(cfg GuardConfig, tokens auth.TokenService, cookies auth.CookieJar, prom *observability.Prom) *RouteGuard {
	if cfg.Protected == nil {
		cfg.Protected = DefaultProtectedPrefixes
	}
	if cfg.AuthOnly == nil {
		cfg.AuthOnly = DefaultAuthOnlyPaths
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/home"
	}

	return &RouteGuard{cfg: cfg, tokens: tokens, cookies: cookies, prom: prom}
}

func (g *RouteGuard) Classify(path string) PathClass {
	for _, p := range g.cfg.Protected {
		if matchesPrefix(path, p) {
			return PathProtected
		}
	}
	for _, p := range g.cfg.AuthOnly {
		if matchesPrefix(path, p) {
			return PathAuthOnly
		}
	}
	return PathOpen
}

func (g *RouteGuard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		var (
			session    auth.Session
			hasSession bool
		)
		if raw, ok := g.cookies.TokenFrom(c.Request); ok {
			s, err := g.tokens.Verify(raw)
			if err == nil {
				session, hasSession = s, true
			}
		}

		switch g.Classify(path) {
		case PathProtected:
			if !hasSession {
				g.prom.ObserveGuard("redirect_login")
				q := url.Values{}
				q.Set("redirect", path)
				c.Redirect(http.StatusTemporaryRedirect, g.cfg.LoginPath+"?"+q.Encode())
				c.Abort()
				return
			}
		case PathAuthOnly:
			if hasSession {
				g.prom.ObserveGuard("redirect_home")
				c.Redirect(http.StatusTemporaryRedirect, g.cfg.HomePath)
				c.Abort()
				return
			}
		}

		if hasSession {
			c.Set(ctxGuardSessionKey, session)
		}

		g.prom.ObserveGuard("allow")
		c.Next()
	}
}

// GuardSessionFromContext returns what the guard saw. Only page handlers may
// rely on it.
func GuardSessionFromContext(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(ctxGuardSessionKey)
	if !ok {
		return auth.Session{}, false
	}
	s, ok := v.(auth.Session)
	return s, ok
}

// "/home" matches "/home" and "/home/3" but not "/homework".
func matchesPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}
