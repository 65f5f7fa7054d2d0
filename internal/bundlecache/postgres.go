package bundlecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/pkg/logger"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS bundle_cache (
		key        TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`

// Postgres keeps bundles in a table; expired rows are ignored on read and
// removed by CleanExpired
type Postgres struct {
	pool   *pgxpool.Pool
	now    func() time.Time
	logger *logger.Logger
}

// NewPostgres creates the table if needed
func NewPostgres(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) (*Postgres, error) {
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("create bundle_cache table: %w", err)
	}
	return &Postgres{pool: pool, now: time.Now, logger: log}, nil
}

func (c *Postgres) Get(ctx context.Context, key string) (*contracts.Bundle, error) {
	var payload []byte
	err := c.pool.QueryRow(ctx,
		`SELECT payload FROM bundle_cache WHERE key = $1 AND expires_at > $2`,
		key, c.now(),
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("query bundle: %w", err)
	}

	var b contracts.Bundle
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}

func (c *Postgres) Set(ctx context.Context, key string, bundle *contracts.Bundle, ttl time.Duration) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}

	_, err = c.pool.Exec(ctx, `
		INSERT INTO bundle_cache (key, payload, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at`,
		key, payload, c.now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("upsert bundle: %w", err)
	}
	return nil
}

func (c *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM bundle_cache WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}
	return nil
}

func (c *Postgres) Clear(ctx context.Context) (int, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM bundle_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear bundles: %w", err)
	}
	n := int(tag.RowsAffected())
	c.logger.WithField("removed", n).Info("Cleared postgres bundle cache")
	return n, nil
}

// CleanExpired deletes rows past their expiry
func (c *Postgres) CleanExpired(ctx context.Context) (int, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM bundle_cache WHERE expires_at <= $1`, c.now())
	if err != nil {
		return 0, fmt.Errorf("clean expired bundles: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
