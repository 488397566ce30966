package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

// CursorRepository stores the per-product extraction high-water marks.
type CursorRepository struct {
	db *sqlx.DB
}

func NewCursorRepository(db *sqlx.DB) *CursorRepository {
	return &CursorRepository{db: db}
}

// Get returns the cursor for productID, or nil when the product was never extracted.
func (r *CursorRepository) Get(ctx context.Context, productID string) (*models.Cursor, error) {
	var c models.Cursor
	err := r.db.GetContext(ctx, &c,
		`SELECT product_id, last_extracted_at FROM incremental_cursors WHERE product_id = $1`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil // absence means never extracted
		}
		return nil, fmt.Errorf("get cursor for %s: %w", productID, err)
	}
	return &c, nil
}

// Touch records an extraction at time at. The stored value never moves backwards.
func (r *CursorRepository) Touch(ctx context.Context, productID string, at time.Time) error {
	query := `
		INSERT INTO incremental_cursors (product_id, last_extracted_at)
		VALUES ($1, $2)
		ON CONFLICT (product_id) DO UPDATE SET
			last_extracted_at = GREATEST(incremental_cursors.last_extracted_at, EXCLUDED.last_extracted_at)
	`

	if _, err := r.db.ExecContext(ctx, query, productID, at.UTC()); err != nil {
		return fmt.Errorf("touch cursor for %s: %w", productID, err)
	}
	return nil
}
