package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/geocoder89/gatekeeper/internal/db"
	"github.com/geocoder89/gatekeeper/internal/domain/user"
	"github.com/geocoder89/gatekeeper/internal/observability"
	"github.com/geocoder89/gatekeeper/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool   *pgxpool.Pool
	prom   *observability.Prom
	hasher security.Hasher

	seedOnce sync.Once
	seedErr  error
}

func NewUsersRepo(pool *pgxpool.Pool, hasher security.Hasher, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool:   pool,
		prom:   prom,
		hasher: hasher,
	}
}

func (repo *UsersRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Seed creates the schema and the demo accounts once per process.
func (repo *UsersRepo) Seed(ctx context.Context) error {
	repo.seedOnce.Do(func() {
		repo.seedErr = repo.observe("users.seed", func() error {
			if err := db.EnsureSchema(ctx, repo.pool); err != nil {
				return err
			}
			return db.SeedDemoUsers(ctx, repo.pool, repo.hasher)
		})
	})

	return repo.seedErr
}

const selectUserCols = `SELECT id, name, email, password_hash, role, created_at FROM users`

func (repo *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := repo.observe("users.find_by_email", func() error {
		row := repo.pool.QueryRow(ctx, selectUserCols+` WHERE lower(email) = lower($1)`, email)
		var e error
		u, e = scanUser(row)
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (repo *UsersRepo) FindByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := repo.observe("users.find_by_id", func() error {
		row := repo.pool.QueryRow(ctx, selectUserCols+` WHERE id = $1`, id)
		var e error
		u, e = scanUser(row)
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (repo *UsersRepo) Create(ctx context.Context, name, email, passwordHash string, role user.Role) (user.User, error) {
	if role == "" {
		role = user.RoleUser
	}
	if !role.Valid() {
		return user.User{}, fmt.Errorf("create user: invalid role %q", role)
	}

	var u user.User

	err := repo.observe("users.create", func() error {
		row := repo.pool.QueryRow(ctx, `
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1,$2,$3,$4)
			RETURNING id, name, email, password_hash, role, created_at
		`, name, email, passwordHash, string(role))
		var e error
		u, e = scanUser(row)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrEmailAlreadyUsed
		}
		return user.User{}, err
	}

	return u, nil
}

func (repo *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := repo.observe("users.list", func() error {
		rows, e := repo.pool.Query(ctx, selectUserCols+` ORDER BY id`)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			u, e := scanUser(rows)
			if e != nil {
				return e
			}
			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (repo *UsersRepo) Ping(ctx context.Context) error {
	return repo.observe("users.ping", func() error {
		return repo.pool.Ping(ctx)
	})
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		u       user.User
		role    string
		created time.Time
	)

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &created)

	if err != nil {
		return user.User{}, err
	}

	u.Role = user.Role(role)
	u.CreatedAt = created.Format(user.CreatedAtLayout)

	return u, nil
}
