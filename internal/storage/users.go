package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresUserStore implements UserStore on the users and capability_tokens tables.
type PostgresUserStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewPostgresUserStore creates a UserStore using the given connection pool.
func NewPostgresUserStore(pool *pgxpool.Pool, queryTimeout time.Duration) *PostgresUserStore {
	return &PostgresUserStore{pool: pool, queryTimeout: queryTimeout}
}

func (s *PostgresUserStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

func (s *PostgresUserStore) CreateUser(ctx context.Context, u User) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, verified)
		VALUES ($1, $2, $3, $4)
	`, u.ID, u.Email, u.PasswordHash, u.Verified)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return scanUser(s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, verified, created_at
		FROM users WHERE id = $1
	`, id))
}

func (s *PostgresUserStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return scanUser(s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, verified, created_at
		FROM users WHERE email = $1
	`, email))
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Verified, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *PostgresUserStore) SetVerified(ctx context.Context, id uuid.UUID) error {
	return s.updateUser(ctx, `UPDATE users SET verified = true WHERE id = $1`, id)
}

func (s *PostgresUserStore) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return s.updateUser(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (s *PostgresUserStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.updateUser(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (s *PostgresUserStore) updateUser(ctx context.Context, query string, args ...any) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresUserStore) SaveToken(ctx context.Context, tok CapabilityToken) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO capability_tokens (token_hash, purpose, subject, expires_at)
		VALUES ($1, $2, $3, $4)
	`, tok.Hash, string(tok.Purpose), tok.Subject, tok.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) ConsumeToken(ctx context.Context, hash string, purpose TokenPurpose) (*CapabilityToken, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		tok        CapabilityToken
		gotPurpose string
	)
	err := s.pool.QueryRow(ctx, `
		DELETE FROM capability_tokens
		WHERE token_hash = $1 AND purpose = $2
		RETURNING token_hash, purpose, subject, expires_at
	`, hash, string(purpose)).Scan(&tok.Hash, &gotPurpose, &tok.Subject, &tok.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("consume token: %w", err)
	}
	tok.Purpose = TokenPurpose(gotPurpose)
	return &tok, nil
}

func (s *PostgresUserStore) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM capability_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
