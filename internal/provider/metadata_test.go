package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/config"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/provider"
)

const productPage = `<html><body>
<span id="productTitle">
   Acme Pro Blender 1200W
</span>
<div class="a-price"><span class="a-offscreen">$89.99</span></div>
<i data-hook="average-star-rating"><span>4.6 out of 5 stars</span></i>
<span id="acrCustomerReviewText">1,572 ratings</span>
</body></html>`

func newMetadataProvider(t *testing.T, handler http.HandlerFunc) (*provider.HTMLMetadataProvider, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.MetadataProviderConfig{UserAgent: "review-test", AcceptLanguage: "en-US", Timeout: time.Second}
	return provider.NewHTMLMetadataProvider(cfg, srv.Client(), logger.NewNop()), srv.URL
}

func TestHTMLMetadataProvider_GetMetadata(t *testing.T) {
	var gotUA string
	p, base := newMetadataProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(productPage))
	})

	meta, err := p.GetMetadata(context.Background(), base+"/dp/B000000001")
	require.NoError(t, err)
	assert.Equal(t, "review-test", gotUA)

	require.NotNil(t, meta.Title)
	assert.Equal(t, "Acme Pro Blender 1200W", *meta.Title)
	require.NotNil(t, meta.Price)
	assert.Equal(t, "$89.99", *meta.Price)
	require.NotNil(t, meta.AvgRating)
	assert.InDelta(t, 4.6, *meta.AvgRating, 0.0001)
	require.NotNil(t, meta.TotalReviews)
	assert.Equal(t, 1572, *meta.TotalReviews)
}

func TestHTMLMetadataProvider_Non200DegradesToEmpty(t *testing.T) {
	p, base := newMetadataProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	meta, err := p.GetMetadata(context.Background(), base+"/dp/B000000001")
	require.NoError(t, err)
	assert.True(t, meta.IsEmpty())
}

func TestHTMLMetadataProvider_UnparseableFieldsAreNil(t *testing.T) {
	p, base := newMetadataProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<span id="productTitle">Thing</span>
<span data-hook="rating-out-of-text">n/a</span><span id="acrCustomerReviewText">many ratings</span>`))
	})

	meta, err := p.GetMetadata(context.Background(), base)
	require.NoError(t, err)
	require.NotNil(t, meta.Title)
	assert.Nil(t, meta.Price)
	assert.Nil(t, meta.AvgRating)
	assert.Nil(t, meta.TotalReviews)
}

func TestHTMLMetadataProvider_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	p := provider.NewHTMLMetadataProvider(config.MetadataProviderConfig{Timeout: time.Second}, nil, logger.NewNop())
	_, err := p.GetMetadata(context.Background(), base)
	require.Error(t, err)
}
