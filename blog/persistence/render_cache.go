package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/portfolio/blog/application"
	"github.com/dfryer1193/portfolio/shared/db"
)

var _ application.RenderCache = (*SQLiteRenderCache)(nil)

// SQLiteRenderCache implements application.RenderCache on the rendered_posts table.
// Keys are content hashes, so an entry never goes stale; old entries are only dropped by Prune.
type SQLiteRenderCache struct {
	db *sql.DB
}

// NewRenderCache creates a SQLiteRenderCache from a standard sql.DB
func NewRenderCache(sqlDB *sql.DB) *SQLiteRenderCache {
	return &SQLiteRenderCache{
		db: sqlDB,
	}
}

const getRenderedQuery = `
	SELECT html FROM rendered_posts WHERE hash = ?
`

// Get returns the cached HTML for key and whether it was present.
func (c *SQLiteRenderCache) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("cache key cannot be empty")
	}

	var html string
	err := db.GetExecutor(ctx, c.db).QueryRowContext(ctx, getRenderedQuery, key).Scan(&html)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get rendered post: %w", err)
	}

	return html, true, nil
}

const upsertRenderedQuery = `
	INSERT INTO rendered_posts (hash, html, rendered_at)
	VALUES (?, ?, ?)
	ON CONFLICT(hash) DO UPDATE SET
		html = excluded.html,
		rendered_at = excluded.rendered_at
`

// Put stores html under key, replacing any previous entry.
func (c *SQLiteRenderCache) Put(ctx context.Context, key string, html string) error {
	if key == "" {
		return fmt.Errorf("cache key cannot be empty")
	}

	_, err := db.GetExecutor(ctx, c.db).ExecContext(ctx, upsertRenderedQuery, key, html, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert rendered post: %w", err)
	}

	return nil
}

const pruneRenderedQuery = `
	DELETE FROM rendered_posts WHERE rendered_at < ?
`

const countRenderedQuery = `
	SELECT COUNT(*) FROM rendered_posts
`

// Prune deletes entries rendered before cutoff and returns how many remain.
func (c *SQLiteRenderCache) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	var remaining int
	err := db.RunInTransaction(ctx, c.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, c.db)
		if _, err := executor.ExecContext(txCtx, pruneRenderedQuery, cutoff.UTC()); err != nil {
			return fmt.Errorf("failed to prune rendered posts: %w", err)
		}
		if err := executor.QueryRowContext(txCtx, countRenderedQuery).Scan(&remaining); err != nil {
			return fmt.Errorf("failed to count rendered posts: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return remaining, nil
}
