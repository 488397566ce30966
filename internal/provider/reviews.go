package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/config"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

const maxSearchResponseBytes = 4 << 20

type searchResponse struct {
	Error          string         `json:"error"`
	OrganicResults []organicEntry `json:"organic_results"`
}

type organicEntry struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// SearchReviewProvider collects review snippets from a SerpAPI-compatible web search endpoint.
// Each organic result snippet becomes one review.
type SearchReviewProvider struct {
	client   *http.Client
	endpoint string
	apiKey   string
	engine   string
	site     string
	retry    RetryConfig
	logger   logger.Logger
}

// NewSearchReviewProvider creates a review provider. A nil client gets the default HTTP client.
func NewSearchReviewProvider(cfg config.SearchProviderConfig, client *http.Client, log logger.Logger) *SearchReviewProvider {
	if client == nil {
		client = NewHTTPClient(cfg.Timeout)
	}
	return &SearchReviewProvider{
		client:   client,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		engine:   cfg.Engine,
		site:     cfg.MarketplaceHost,
		retry:    RetryConfig{MaxAttempts: cfg.RetryAttempts},
		logger:   log,
	}
}

// GetReviews searches for review snippets of the product behind productURL.
// URLs without a product id and API-level errors yield an empty result.
func (p *SearchReviewProvider) GetReviews(ctx context.Context, productURL string) ([]models.ReviewSnippet, error) {
	productID := ExtractProductID(productURL)
	if productID == "" {
		p.logger.Warn("Could not extract product id from URL", logger.URL(productURL))
		return []models.ReviewSnippet{}, nil
	}

	var result searchResponse
	err := Retry(ctx, p.retry, func() error {
		var searchErr error
		result, searchErr = p.search(ctx, productID)
		return searchErr
	})
	if err != nil {
		return nil, fmt.Errorf("search reviews for %s: %w", productID, err)
	}

	if result.Error != "" {
		p.logger.Warn("Search API returned an error",
			logger.ProductID(productID),
			logger.String("api_error", result.Error),
		)
		return []models.ReviewSnippet{}, nil
	}

	snippets := make([]models.ReviewSnippet, 0, len(result.OrganicResults))
	for _, item := range result.OrganicResults {
		text := strings.TrimSpace(item.Snippet)
		if text == "" {
			continue
		}
		snippets = append(snippets, models.ReviewSnippet{
			Title:  models.StringPtr(strings.TrimSpace(item.Title)),
			Text:   text,
			Rating: GuessRating(text),
		})
	}

	p.logger.Info("Fetched review snippets",
		logger.ProductID(productID),
		logger.Int("count", len(snippets)),
	)

	return snippets, nil
}

func (p *SearchReviewProvider) search(ctx context.Context, productID string) (searchResponse, error) {
	params := url.Values{}
	params.Set("engine", p.engine)
	params.Set("q", fmt.Sprintf("site:%s %s customer reviews", p.site, productID))
	params.Set("api_key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return searchResponse{}, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return searchResponse{}, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchResponseBytes))
	if err != nil {
		return searchResponse{}, fmt.Errorf("read search response: %w", err)
	}

	var out searchResponse
	decodeErr := json.Unmarshal(body, &out)

	// SerpAPI reports invalid keys and exhausted plans as a JSON error body with a 4xx status.
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != "" && resp.StatusCode < http.StatusInternalServerError &&
			resp.StatusCode != http.StatusTooManyRequests {
			return out, nil
		}
		return searchResponse{}, &StatusError{StatusCode: resp.StatusCode, URL: p.endpoint}
	}
	if decodeErr != nil {
		return searchResponse{}, fmt.Errorf("decode search response: %w", decodeErr)
	}

	return out, nil
}

// GuessRating finds an "N star", "N stars" or "N-star" phrase in text, checking 5 down to 1.
func GuessRating(text string) *float64 {
	lower := strings.ToLower(text)
	for star := 5; star >= 1; star-- {
		n := strconv.Itoa(star)
		if strings.Contains(lower, n+" star") || strings.Contains(lower, n+"-star") {
			rating := float64(star)
			return &rating
		}
	}
	return nil
}
