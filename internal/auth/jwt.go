package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/geocoder89/gatekeeper/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is how long a freshly signed session stays valid.
const DefaultSessionTTL = 24 * time.Hour

// ErrInvalidToken is the only error Verify returns. Expired, tampered and
// malformed tokens are deliberately indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

// Session is the identity carried inside a token. Anyone holding the token
// can read it, so it never includes secrets.
type Session struct {
	UserID int64     `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   user.Role `json:"role"`
}

func (s Session) IsAdmin() bool {
	return s.Role == user.RoleAdmin
}

type Claims struct {
	UserID int64     `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   user.Role `json:"role"`
	jwt.RegisteredClaims
}

// Keep this small interface so handlers and middlewares can fake it easily.
type TokenService interface {
	Sign(s Session) (string, error)
	Verify(token string) (Session, error)
}

// KeySource hands out the HMAC key used for both signing and verification.
type KeySource interface {
	SigningKey() []byte
}

type StaticKey []byte

func (k StaticKey) SigningKey() []byte { return k }

type Manager struct {
	keys KeySource
	ttl  time.Duration
	now  func() time.Time
}

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(keys KeySource, opts ...Option) *Manager {
	m := &Manager{
		keys: keys,
		ttl:  DefaultSessionTTL,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) Sign(s Session) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		UserID: s.UserID,
		Email:  s.Email,
		Name:   s.Name,
		Role:   s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   strconv.FormatInt(s.UserID, 10),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	raw, err := token.SignedString(m.keys.SigningKey())
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return raw, nil
}

func (m *Manager) Verify(tokenStr string) (Session, error) {
	if tokenStr == "" {
		return Session{}, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HMAC; WithValidMethods pins it to HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.keys.SigningKey(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	if claims.UserID <= 0 || claims.Email == "" || !claims.Role.Valid() {
		return Session{}, ErrInvalidToken
	}

	return Session{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   claims.Role,
	}, nil
}
