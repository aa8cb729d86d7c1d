package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/gatekeeper/internal/actorctx"
	"github.com/geocoder89/gatekeeper/internal/domain/directory"
	"github.com/geocoder89/gatekeeper/internal/domain/user"
)

type DirectoryRepo struct {
	mu    sync.RWMutex
	items []directory.Entry
	now   func() time.Time
}

func NewDirectoryRepo() *DirectoryRepo {
	return &DirectoryRepo{
		items: []directory.Entry{
			{ID: 1, Name: "Ravi Kumar", Email: "ravi@example.com", CreatedAt: "2024-01-15"},
			{ID: 2, Name: "Priya Singh", Email: "priya@example.com", CreatedAt: "2024-02-20"},
		},
		now: time.Now,
	}
}

func (r *DirectoryRepo) List(ctx context.Context) ([]directory.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]directory.Entry, len(r.items))
	copy(out, r.items)

	return out, nil
}

func (r *DirectoryRepo) Create(ctx context.Context, req directory.CreateEntryRequest) (directory.Entry, error) {
	e := directory.Entry{
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: user.Today(r.now()),
	}

	if actor, ok := actorctx.UserIDFrom(ctx); ok {
		e.CreatedBy = &actor
	}

	r.mu.Lock()
	e.ID = int64(len(r.items)) + 1
	r.items = append(r.items, e)
	r.mu.Unlock()

	return e, nil
}
