// Package stats computes the live dashboard counts.
package stats

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

// CountSource runs the underlying count queries.
type CountSource interface {
	Counts(ctx context.Context) (models.Stats, error)
}

// Aggregator reports dashboard statistics. Every call queries the stores; nothing is cached.
type Aggregator struct {
	source CountSource
}

func NewAggregator(source CountSource) *Aggregator {
	return &Aggregator{source: source}
}

// Stats returns total links, products with at least one review, links without reviews
// and total review rows.
func (a *Aggregator) Stats(ctx context.Context) (models.Stats, error) {
	s, err := a.source.Counts(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	return s, nil
}
