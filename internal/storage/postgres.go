package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

// PostgresStore implements PixelStore on the pixels table.
type PostgresStore struct {
	pool         *pgxpool.Pool
	gridSize     int
	queryTimeout time.Duration
}

// NewPostgresStore creates a PixelStore for a gridSize×gridSize canvas.
// queryTimeout sets the per-query context deadline; zero means no timeout.
func NewPostgresStore(pool *pgxpool.Pool, gridSize int, queryTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		pool:         pool,
		gridSize:     gridSize,
		queryTimeout: queryTimeout,
	}
}

// withTimeout derives a child context with the configured query timeout.
// If queryTimeout is zero, the parent context is returned unchanged.
func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

func (s *PostgresStore) checkID(id string) error {
	_, err := pixel.ParseID(id, s.gridSize)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*pixel.Pixel, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var p pixel.Pixel
	err := s.pool.QueryRow(ctx, `
		SELECT id, color, owner_id
		FROM pixels
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Color, &p.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPixelNotFound
		}
		return nil, fmt.Errorf("get pixel: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) List(ctx context.Context) (map[string]pixel.Pixel, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT id, color, owner_id FROM pixels`)
	if err != nil {
		return nil, fmt.Errorf("list pixels: %w", err)
	}
	defer rows.Close()

	out := make(map[string]pixel.Pixel)
	for rows.Next() {
		var p pixel.Pixel
		if err := rows.Scan(&p.ID, &p.Color, &p.OwnerID); err != nil {
			return nil, fmt.Errorf("list pixels scan: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (s *PostgresStore) Upsert(ctx context.Context, id, color string, ownerID *string) error {
	if err := s.checkID(id); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO pixels (id, color, owner_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET color = EXCLUDED.color, owner_id = EXCLUDED.owner_id, updated_at = now()
	`, id, color, ownerID)
	if err != nil {
		return fmt.Errorf("upsert pixel %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) SetColor(ctx context.Context, id, color string) error {
	if err := s.checkID(id); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		UPDATE pixels SET color = $2, updated_at = now()
		WHERE id = $1
	`, id, color)
	if err != nil {
		return fmt.Errorf("set pixel color %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPixelNotFound
	}
	return nil
}

func (s *PostgresStore) Claim(ctx context.Context, id, ownerID, defaultColor string) error {
	if err := s.checkID(id); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO pixels (id, color, owner_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET owner_id = EXCLUDED.owner_id, updated_at = now()
	`, id, defaultColor, ownerID)
	if err != nil {
		return fmt.Errorf("claim pixel %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) ClearOwnerForUser(ctx context.Context, ownerID string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		UPDATE pixels SET owner_id = NULL, updated_at = now()
		WHERE owner_id = $1
	`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("clear owner %s: %w", ownerID, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Seed(ctx context.Context, gridSize int, color string) (int64, error) {
	if gridSize <= 0 || gridSize > pixel.MaxGridSize {
		return 0, fmt.Errorf("%w: grid size %d", pixel.ErrInvalidArgument, gridSize)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO pixels (id, color)
		SELECT r::text || '-' || c::text, $2
		FROM generate_series(0, $1::int - 1) AS r,
		     generate_series(0, $1::int - 1) AS c
		ON CONFLICT (id) DO NOTHING
	`, gridSize, color)
	if err != nil {
		return 0, fmt.Errorf("seed pixels: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM pixels`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pixels: %w", err)
	}
	return n, nil
}
