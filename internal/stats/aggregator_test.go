package stats_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/stats"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/testhelpers"
)

func TestAggregator_Consistency(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	a := store.AddLink("https://www.amazon.com/dp/B00000000A", "B00000000A", "kitchen")
	store.AddLink("https://www.amazon.com/dp/B00000000B", "B00000000B", "kitchen")
	store.AddLink("https://www.amazon.com/dp/B00000000C", "B00000000C", "toys")

	for _, text := range []string{"first", "second"} {
		_, err := store.Insert(context.Background(), &models.ReviewRecord{
			ProductID: "B00000000A", ProductURL: a.URL, ReviewText: text,
		})
		require.NoError(t, err)
	}

	got, err := stats.NewAggregator(store).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Stats{TotalLinks: 3, ProcessedProducts: 1, PendingProducts: 2, TotalReviews: 2}, got)
}

func TestAggregator_ReflectsLiveState(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	agg := stats.NewAggregator(store)
	ctx := context.Background()

	before, err := agg.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, before.TotalLinks)

	store.AddLink("https://www.amazon.com/dp/B00000000A", "B00000000A", "kitchen")
	after, err := agg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.TotalLinks)
	assert.Equal(t, int64(1), after.PendingProducts)
}

type failingSource struct{}

func (failingSource) Counts(context.Context) (models.Stats, error) {
	return models.Stats{}, errors.New("db down")
}

func TestAggregator_Error(t *testing.T) {
	_, err := stats.NewAggregator(failingSource{}).Stats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aggregate stats")
}
