package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/gatekeeper/internal/domain/user"
	"github.com/geocoder89/gatekeeper/internal/security"
)

// UsersRepo is the process-lifetime credential store. It seeds the demo
// accounts on first access. Every read and append runs under mu, so id
// assignment and the email check in Create cannot race.
type UsersRepo struct {
	mu     sync.RWMutex
	items  []user.User
	nextID int64

	hasher security.Hasher
	now    func() time.Time

	seedOnce sync.Once
	seedErr  error
}

func NewUsersRepo(hasher security.Hasher) *UsersRepo {
	return &UsersRepo{
		hasher: hasher,
		now:    time.Now,
		nextID: 1,
	}
}

// Seed inserts the two demo accounts. Calling it again is a no-op.
func (r *UsersRepo) Seed(ctx context.Context) error {
	r.seedOnce.Do(func() {
		r.seedErr = r.seed()
	})

	return r.seedErr
}

func (r *UsersRepo) seed() error {
	hash, err := r.hasher.Hash(user.DemoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) > 0 {
		return nil
	}

	for _, acct := range user.DemoAccounts() {
		r.items = append(r.items, user.User{
			ID:           r.nextID,
			Name:         acct.Name,
			Email:        acct.Email,
			PasswordHash: hash,
			Role:         acct.Role,
			CreatedAt:    user.DemoCreatedAt,
		})
		r.nextID++
	}

	return nil
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	if err := r.Seed(ctx); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.findByEmailLocked(email); ok {
		return u, nil
	}

	return user.User{}, user.ErrUserNotFound
}

func (r *UsersRepo) FindByID(ctx context.Context, id int64) (user.User, error) {
	if err := r.Seed(ctx); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.ID == id {
			return u, nil
		}
	}

	return user.User{}, user.ErrUserNotFound
}

// Create appends a user with the next sequential id. An empty role means
// user.RoleUser.
func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash string, role user.Role) (user.User, error) {
	if err := r.Seed(ctx); err != nil {
		return user.User{}, err
	}

	if role == "" {
		role = user.RoleUser
	}
	if !role.Valid() {
		return user.User{}, fmt.Errorf("create user: invalid role %q", role)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// callers check for duplicates first, this closes the check-then-append window
	if _, exists := r.findByEmailLocked(email); exists {
		return user.User{}, user.ErrEmailAlreadyUsed
	}

	u := user.User{
		ID:           r.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    user.Today(r.now()),
	}
	r.nextID++
	r.items = append(r.items, u)

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	if err := r.Seed(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, len(r.items))
	copy(out, r.items)

	return out, nil
}

// Ping reports whether the store is usable.
func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.Seed(ctx)
}

func (r *UsersRepo) findByEmailLocked(email string) (user.User, bool) {
	for _, u := range r.items {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}

	return user.User{}, false
}
