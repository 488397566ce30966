package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

const linkSelectColumns = `id, product_id, url, category, display_name, added_at`

// LinkRepository is the durable link registry.
type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Upsert registers link. Re-adding a known URL updates its category and product id
// instead of duplicating it. Reports whether a new row was created.
func (r *LinkRepository) Upsert(ctx context.Context, link *models.Link) (bool, error) {
	query := `
		INSERT INTO links (product_id, url, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (url) DO UPDATE SET
			category = EXCLUDED.category,
			product_id = COALESCE(EXCLUDED.product_id, links.product_id)
		RETURNING id, added_at, (xmax = 0) AS inserted
	`

	var row struct {
		ID       int64     `db:"id"`
		AddedAt  time.Time `db:"added_at"`
		Inserted bool      `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &row, query, link.ProductID, link.URL, link.Category); err != nil {
		return false, fmt.Errorf("upsert link %s: %w", link.URL, err)
	}

	link.ID = row.ID
	link.AddedAt = row.AddedAt
	return row.Inserted, nil
}

// List returns every link in registry order.
func (r *LinkRepository) List(ctx context.Context) ([]*models.Link, error) {
	query := `SELECT ` + linkSelectColumns + ` FROM links ORDER BY id ASC`

	var links []*models.Link
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	if links == nil {
		links = []*models.Link{}
	}
	return links, nil
}

// UpdateDisplayName sets the display name for the link with the given URL.
func (r *LinkRepository) UpdateDisplayName(ctx context.Context, url, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE links SET display_name = $2 WHERE url = $1`, url, name)
	if err = execRequireRows(result, err, models.ErrNotFound); err != nil {
		return fmt.Errorf("update display name for %s: %w", url, err)
	}
	return nil
}

// Categories returns the distinct link categories, sorted.
func (r *LinkRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.db.SelectContext(ctx, &categories,
		`SELECT DISTINCT category FROM links WHERE category <> '' ORDER BY category`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (r *LinkRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM links`); err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return n, nil
}
