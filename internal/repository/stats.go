package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

// StatsRepository computes the live dashboard counts.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Counts runs the dashboard aggregate as one statement so the four figures share a snapshot.
func (r *StatsRepository) Counts(ctx context.Context) (models.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM links) AS total_links,
			(SELECT COUNT(DISTINCT product_url) FROM review_records) AS processed_products,
			(SELECT COUNT(*) FROM links l
				WHERE NOT EXISTS (SELECT 1 FROM review_records r WHERE r.product_url = l.url)) AS pending_products,
			(SELECT COUNT(*) FROM review_records) AS total_reviews
	`

	var s models.Stats
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return models.Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return s, nil
}
