// Package provider fetches product metadata and review snippets from external sources.
package provider

import (
	"context"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

// MetadataProvider returns best-effort product metadata for a product URL.
// Ordinary non-200 responses and parse failures degrade to empty metadata with a nil error;
// only transport-level failures are returned as errors.
type MetadataProvider interface {
	GetMetadata(ctx context.Context, productURL string) (models.ProductMetadata, error)
}

// ReviewProvider returns the review snippets available for a product URL.
// It returns an empty, non-nil slice when nothing is found.
type ReviewProvider interface {
	GetReviews(ctx context.Context, productURL string) ([]models.ReviewSnippet, error)
}
