package models

import (
	"strings"
	"time"
)

// ProductMetadata is the best-effort product page snapshot. Every field may be nil.
type ProductMetadata struct {
	Title        *string  `json:"title"`
	Price        *string  `json:"price"`
	AvgRating    *float64 `json:"avg_rating"`
	TotalReviews *int     `json:"total_reviews"`
}

// IsEmpty reports whether no field was extracted.
func (m ProductMetadata) IsEmpty() bool {
	return m.Title == nil && m.Price == nil && m.AvgRating == nil && m.TotalReviews == nil
}

// ReviewSnippet is a single review as returned by a review provider.
type ReviewSnippet struct {
	Title      *string    `json:"review_title"`
	Text       string     `json:"review_text"`
	Rating     *float64   `json:"rating"`
	ReviewDate *time.Time `json:"review_date"`
	Verified   bool       `json:"verified"`
}

// ReviewRecord is one stored, deduplicated review. Rows are keyed by (ProductURL, ReviewText).
type ReviewRecord struct {
	ID           int64      `json:"id"            db:"id"`
	ProductID    string     `json:"product_id"    db:"product_id"`
	ProductURL   string     `json:"product_url"   db:"product_url"`
	DisplayName  *string    `json:"display_name"  db:"display_name"`
	Price        *string    `json:"price"         db:"price"`
	AvgRating    *float64   `json:"avg_rating"    db:"avg_rating"`
	TotalReviews *int       `json:"total_reviews" db:"total_reviews"`
	ReviewTitle  *string    `json:"review_title"  db:"review_title"`
	ReviewText   string     `json:"review_text"   db:"review_text"`
	Rating       *float64   `json:"rating"        db:"rating"`
	ReviewDate   *time.Time `json:"review_date"   db:"review_date"`
	Verified     bool       `json:"verified"      db:"verified"`
	InsertedAt   time.Time  `json:"inserted_at"   db:"inserted_at"`
}

// NewReviewRecord builds the row stored for snippet, snapshotting the link's display name
// and the product metadata. Snippets with blank text are rejected.
func NewReviewRecord(link *Link, meta ProductMetadata, snippet ReviewSnippet) (*ReviewRecord, error) {
	text := strings.TrimSpace(snippet.Text)
	if text == "" {
		return nil, ErrMissingReviewText
	}

	displayName := meta.Title
	if displayName == nil {
		displayName = link.DisplayName
	}

	return &ReviewRecord{
		ProductID:    link.ProductIDValue(),
		ProductURL:   link.URL,
		DisplayName:  displayName,
		Price:        meta.Price,
		AvgRating:    meta.AvgRating,
		TotalReviews: meta.TotalReviews,
		ReviewTitle:  snippet.Title,
		ReviewText:   text,
		Rating:       snippet.Rating,
		ReviewDate:   snippet.ReviewDate,
		Verified:     snippet.Verified,
	}, nil
}

// ExportFilter narrows exported reviews. Empty fields do not filter.
type ExportFilter struct {
	ProductID string `form:"product_id" json:"product_id,omitempty"`
	Category  string `form:"category"   json:"category,omitempty"`
}
