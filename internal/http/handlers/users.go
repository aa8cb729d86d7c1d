package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/gatekeeper/internal/cache"
	"github.com/geocoder89/gatekeeper/internal/domain/directory"
	"github.com/geocoder89/gatekeeper/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type DirectoryStore interface {
	List(ctx context.Context) ([]directory.Entry, error)
	Create(ctx context.Context, req directory.CreateEntryRequest) (directory.Entry, error)
}

const directoryListKey = "directory:list:v1"

type UsersHandler struct {
	repo  DirectoryStore
	cache *cache.TTL[[]directory.Entry]
}

// NewUsersHandler serves GET /users from c until a create invalidates it.
// A nil cache reads the store on every request.
func NewUsersHandler(repo DirectoryStore, c *cache.TTL[[]directory.Entry]) *UsersHandler {
	return &UsersHandler{repo: repo, cache: c}
}

func (h *UsersHandler) list(ctx context.Context) ([]directory.Entry, error) {
	if h.cache == nil {
		return h.repo.List(ctx)
	}

	return h.cache.GetOrLoad(directoryListKey, func() ([]directory.Entry, error) {
		return h.repo.List(ctx)
	})
}

// ListUsers is mounted behind RequireSession; the handler still refuses to
// run without a verified session in case it is ever mounted without it.
func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	if _, ok := middlewares.SessionFromContext(ctx); !ok {
		RespondUnauthorized(ctx, "unauthorized", "Unauthorized, please log in")
		return
	}

	entries, err := h.list(ctx.Request.Context())

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "list users failed", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, entries)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	session, ok := middlewares.SessionFromContext(ctx)

	// authentication before authorization: 401 first, then 403
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Unauthorized, please log in")
		return
	}
	if !session.IsAdmin() {
		RespondForbidden(ctx, "Forbidden, admin role required to create users")
		return
	}

	var req directory.CreateEntryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	entry, err := h.repo.Create(ctx.Request.Context(), req)

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "create directory entry failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	if h.cache != nil {
		h.cache.Invalidate(directoryListKey)
	}

	ctx.JSON(http.StatusCreated, entry)
}
