package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

const reviewSelectColumns = `r.id, r.product_id, r.product_url, r.display_name, r.price, r.avg_rating,
	r.total_reviews, r.review_title, r.review_text, r.rating, r.review_date, r.verified, r.inserted_at`

// ReviewRepository is the durable review store. Rows are unique on (product_url, review_text).
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Insert stores rec unless a row with the same product URL and text already exists.
// A conflict is not an error: it reports false and leaves the existing row untouched.
// The unique index compares md5 digests, so a conflict is confirmed against the stored
// text; a digest match on different text returns models.ErrDigestCollision.
func (r *ReviewRepository) Insert(ctx context.Context, rec *models.ReviewRecord) (bool, error) {
	query := `
		INSERT INTO review_records (
			product_id, product_url, display_name, price, avg_rating, total_reviews,
			review_title, review_text, rating, review_date, verified
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (product_url, md5(review_text)) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		rec.ProductID,
		rec.ProductURL,
		rec.DisplayName,
		rec.Price,
		rec.AvgRating,
		rec.TotalReviews,
		rec.ReviewTitle,
		rec.ReviewText,
		rec.Rating,
		rec.ReviewDate,
		rec.Verified,
	)
	if err != nil {
		return false, fmt.Errorf("insert review for %s: %w", rec.ProductURL, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert review rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	var exact bool
	if err = r.db.GetContext(ctx, &exact, `
		SELECT EXISTS (
			SELECT 1 FROM review_records
			WHERE product_url = $1 AND md5(review_text) = md5($2) AND review_text = $2
		)`, rec.ProductURL, rec.ReviewText); err != nil {
		return false, fmt.Errorf("confirm duplicate review for %s: %w", rec.ProductURL, err)
	}
	if !exact {
		return false, fmt.Errorf("insert review for %s: %w", rec.ProductURL, models.ErrDigestCollision)
	}
	return false, nil
}

// ExistsForURL reports whether at least one review is stored for the product URL.
func (r *ReviewRepository) ExistsForURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM review_records WHERE product_url = $1)`, url); err != nil {
		return false, fmt.Errorf("check reviews for %s: %w", url, err)
	}
	return exists, nil
}

// CountForURL returns the number of stored reviews for the product URL.
func (r *ReviewRepository) CountForURL(ctx context.Context, url string) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM review_records WHERE product_url = $1`, url); err != nil {
		return 0, fmt.Errorf("count reviews for %s: %w", url, err)
	}
	return n, nil
}

// Export returns the reviews matching filter, newest first. A category filter joins the link registry.
func (r *ReviewRepository) Export(ctx context.Context, filter models.ExportFilter) ([]*models.ReviewRecord, error) {
	var (
		sb   strings.Builder
		args []any
		cond []string
	)

	sb.WriteString(`SELECT ` + reviewSelectColumns + ` FROM review_records r`)

	if filter.Category != "" {
		sb.WriteString(` JOIN links l ON l.url = r.product_url`)
		args = append(args, filter.Category)
		cond = append(cond, fmt.Sprintf("l.category = $%d", len(args)))
	}
	if filter.ProductID != "" {
		args = append(args, filter.ProductID)
		cond = append(cond, fmt.Sprintf("r.product_id = $%d", len(args)))
	}
	if len(cond) > 0 {
		sb.WriteString(` WHERE ` + strings.Join(cond, " AND "))
	}
	sb.WriteString(` ORDER BY r.inserted_at DESC, r.id DESC`)

	var records []*models.ReviewRecord
	if err := r.db.SelectContext(ctx, &records, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("export reviews: %w", err)
	}
	if records == nil {
		records = []*models.ReviewRecord{}
	}
	return records, nil
}

// ResetResult reports what a full-refresh purge removed.
type ResetResult struct {
	Reviews int64
	Cursors int64
}

// ResetAll deletes every review and every incremental cursor in a single transaction.
// It is the destructive first step of a full-refresh run.
func (r *ReviewRepository) ResetAll(ctx context.Context) (ResetResult, error) {
	var res ResetResult

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	reviews, err := tx.ExecContext(ctx, `DELETE FROM review_records`)
	if err != nil {
		return res, fmt.Errorf("purge reviews: %w", err)
	}
	cursors, err := tx.ExecContext(ctx, `DELETE FROM incremental_cursors`)
	if err != nil {
		return res, fmt.Errorf("purge cursors: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return res, fmt.Errorf("commit reset: %w", err)
	}

	res.Reviews, _ = reviews.RowsAffected()
	res.Cursors, _ = cursors.RowsAffected()
	return res, nil
}
