package db

import (
	"context"
	"fmt"

	"github.com/geocoder89/gatekeeper/internal/domain/user"
	"github.com/geocoder89/gatekeeper/internal/security"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedDemoUsers inserts the demo admin and user accounts with ids 1 and 2.
// Rows that already exist are left alone, so it is safe on every boot.
func SeedDemoUsers(ctx context.Context, pool *pgxpool.Pool, hasher security.Hasher) error {
	hash, err := hasher.Hash(user.DemoPassword)

	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	for i, acct := range user.DemoAccounts() {
		_, err = pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, role, created_at)
			VALUES ($1,$2,$3,$4,$5,$6::date)
			ON CONFLICT DO NOTHING`,
			int64(i+1), acct.Name, acct.Email, hash, string(acct.Role), user.DemoCreatedAt,
		)

		if err != nil {
			return fmt.Errorf("seed %s: %w", acct.Email, err)
		}
	}

	// explicit ids do not advance the serial, move it past the seeds
	_, err = pool.Exec(ctx,
		`SELECT setval(pg_get_serial_sequence('users', 'id'), GREATEST((SELECT MAX(id) FROM users), 1))`)

	return err
}
