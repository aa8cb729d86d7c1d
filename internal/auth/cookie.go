package auth

import (
	"net/http"
	"time"
)

// DefaultCookieName is the cookie that carries the session token.
const DefaultCookieName = "auth-token"

// CookieJar renders the session token as a Set-Cookie value and reads it
// back from requests. It knows nothing about what the token means.
type CookieJar struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func NewCookieJar(name string, ttl time.Duration, secure bool) CookieJar {
	if name == "" {
		name = DefaultCookieName
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return CookieJar{Name: name, TTL: ttl, Secure: secure}
}

// Issue: Path=/; HttpOnly; SameSite=Lax; Max-Age=<ttl>.
func (j CookieJar) Issue(token string) *http.Cookie {
	return &http.Cookie{
		Name:     j.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(j.TTL.Seconds()),
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Clear overwrites the cookie with an empty, already expired one.
func (j CookieJar) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     j.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // rendered as Max-Age=0
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (j CookieJar) TokenFrom(r *http.Request) (string, bool) {
	c, err := r.Cookie(j.Name)
	if err != nil || c.Value == "" {
		return "", false
	}

	return c.Value, true
}

func (j CookieJar) Write(w http.ResponseWriter, c *http.Cookie) {
	http.SetCookie(w, c)
}
