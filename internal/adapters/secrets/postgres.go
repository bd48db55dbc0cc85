// Package secrets stores employees' TOTP enrollment secrets.
package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

// PostgresStore implements ports.SecretStore on top of Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Lookup returns the enrolled TOTP secret for username. It returns
// ports.ErrNotFound when the user has no enrollment record.
func (s *PostgresStore) Lookup(ctx context.Context, username string) (string, error) {
	var secret string
	err := s.pool.QueryRow(ctx,
		`SELECT secret FROM totp_secrets WHERE username = $1`, username,
	).Scan(&secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ports.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up TOTP secret for %q: %w", username, err)
	}
	return secret, nil
}

// Enroll stores or replaces the TOTP secret for username.
func (s *PostgresStore) Enroll(ctx context.Context, username, secret string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO totp_secrets (username, secret)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET secret = EXCLUDED.secret
	`, username, secret)
	if err != nil {
		return fmt.Errorf("enrolling TOTP secret for %q: %w", username, err)
	}
	return nil
}
