package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/geocoder89/gatekeeper/internal/auth"
	"github.com/geocoder89/gatekeeper/internal/domain/user"
	"github.com/geocoder89/gatekeeper/internal/observability"
	"github.com/geocoder89/gatekeeper/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, name, email, passwordHash string, role user.Role) (user.User, error)
}

type UserStore interface {
	UserReader
	UserWriter
}

type AuthHandler struct {
	users   UserStore
	hasher  security.Hasher
	tokens  auth.TokenService
	cookies auth.CookieJar
	prom    *observability.Prom
	log     *slog.Logger

	decoyOnce sync.Once
	decoy     string
}

func NewAuthHandler(users UserStore, hasher security.Hasher, tokens auth.TokenService, cookies auth.CookieJar, prom *observability.Prom, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		cookies: cookies,
		prom:    prom,
		log:     log,
	}
}

const storeTimeout = 2 * time.Second

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		h.prom.ObserveAuth("login", "invalid_request")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	found, err := h.users.FindByEmail(cctx, req.Email)

	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		h.log.ErrorContext(cctx, "login lookup failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return
	}

	// Unknown email and wrong password must look identical to the caller.
	if err != nil {
		// keep timing close to the wrong-password path
		h.hasher.Verify(req.Password, h.decoyHash())
		h.rejectLogin(ctx)
		return
	}

	if !h.hasher.Verify(req.Password, found.PasswordHash) {
		h.rejectLogin(ctx)
		return
	}

	if !h.startSession(ctx, found, http.StatusOK, "Login successful") {
		return
	}

	h.prom.ObserveAuth("login", "ok")
	h.log.InfoContext(cctx, "login", "user_id", found.ID, "role", found.Role)
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !BindJSON(ctx, &req) {
		h.prom.ObserveAuth("signup", "invalid_request")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	_, err := h.users.FindByEmail(cctx, req.Email)

	switch {
	case err == nil:
		h.rejectDuplicate(ctx)
		return
	case !errors.Is(err, user.ErrUserNotFound):
		h.log.ErrorContext(cctx, "signup lookup failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return
	}

	hash, err := h.hasher.Hash(req.Password)

	if err != nil {
		h.log.ErrorContext(cctx, "hash password failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return
	}

	// self-registration can only ever produce the user role
	u, err := h.users.Create(cctx, req.Name, req.Email, hash, user.RoleUser)

	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			h.rejectDuplicate(ctx)
			return
		}

		h.log.ErrorContext(cctx, "create user failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return
	}

	if !h.startSession(ctx, u, http.StatusCreated, "Account created successfully") {
		return
	}

	h.prom.ObserveAuth("signup", "ok")
	h.log.InfoContext(cctx, "signup", "user_id", u.ID)
}

// Logout only drops the cookie. The token itself stays valid until it
// expires because there is no server-side session to revoke.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.cookies.Write(ctx.Writer, h.cookies.Clear())
	h.prom.ObserveAuth("logout", "ok")

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	raw, ok := h.cookies.TokenFrom(ctx.Request)

	if !ok {
		h.prom.ObserveAuth("me", "no_session")
		RespondUnauthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	session, err := h.tokens.Verify(raw)

	if err != nil {
		h.prom.ObserveAuth("me", "invalid_token")
		RespondUnauthorized(ctx, "unauthorized", "Token is invalid or expired")
		return
	}

	h.prom.ObserveAuth("me", "ok")

	// payload subset only, the store is not consulted
	ctx.JSON(http.StatusOK, user.Public{
		ID:    session.UserID,
		Email: session.Email,
		Name:  session.Name,
		Role:  session.Role,
	})
}

// Helper functions

func (h *AuthHandler) startSession(ctx *gin.Context, u user.User, status int, message string) bool {
	token, err := h.tokens.Sign(auth.Session{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
	})

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "sign session failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return false
	}

	h.cookies.Write(ctx.Writer, h.cookies.Issue(token))

	ctx.JSON(status, gin.H{
		"message": message,
		"user":    u.Public(),
	})

	return true
}

func (h *AuthHandler) rejectLogin(ctx *gin.Context) {
	h.prom.ObserveAuth("login", "invalid_credentials")
	RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
}

func (h *AuthHandler) rejectDuplicate(ctx *gin.Context) {
	h.prom.ObserveAuth("signup", "email_taken")
	RespondConflict(ctx, "email_taken", "Email is already in use")
}

func (h *AuthHandler) decoyHash() string {
	h.decoyOnce.Do(func() {
		h.decoy, _ = h.hasher.Hash("decoy-password-never-issued")
	})

	return h.decoy
}
