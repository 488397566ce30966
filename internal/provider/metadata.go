package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/config"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

const (
	titleSelector        = "#productTitle"
	priceSelector        = ".a-price .a-offscreen, span.a-color-price"
	avgRatingSelector    = "i[data-hook='average-star-rating'] span, span[data-hook='rating-out-of-text']"
	totalReviewsSelector = "#acrCustomerReviewText"
)

// HTMLMetadataProvider scrapes product metadata from the public product page.
type HTMLMetadataProvider struct {
	client         *http.Client
	userAgent      string
	acceptLanguage string
	logger         logger.Logger
}

// NewHTMLMetadataProvider creates a metadata provider. A nil client gets the default HTTP client.
func NewHTMLMetadataProvider(cfg config.MetadataProviderConfig, client *http.Client, log logger.Logger) *HTMLMetadataProvider {
	if client == nil {
		client = NewHTTPClient(cfg.Timeout)
	}
	return &HTMLMetadataProvider{
		client:         client,
		userAgent:      cfg.UserAgent,
		acceptLanguage: cfg.AcceptLanguage,
		logger:         log,
	}
}

// GetMetadata fetches productURL and extracts title, price, average rating and rating count.
func (p *HTMLMetadataProvider) GetMetadata(ctx context.Context, productURL string) (models.ProductMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, productURL, http.NoBody)
	if err != nil {
		return models.ProductMetadata{}, fmt.Errorf("create metadata request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	if p.acceptLanguage != "" {
		req.Header.Set("Accept-Language", p.acceptLanguage)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return models.ProductMetadata{}, fmt.Errorf("fetch product page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("Product page returned non-200 status",
			logger.URL(productURL),
			logger.Int("status", resp.StatusCode),
		)
		return models.ProductMetadata{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		p.logger.Warn("Failed to parse product page",
			logger.URL(productURL),
			logger.Error(err),
		)
		return models.ProductMetadata{}, nil
	}

	meta := ExtractMetadata(doc)

	p.logger.Debug("Extracted product metadata",
		logger.URL(productURL),
		logger.Bool("has_title", meta.Title != nil),
		logger.Bool("has_price", meta.Price != nil),
	)

	return meta, nil
}

// ExtractMetadata reads the product fields from a parsed product page.
func ExtractMetadata(doc *goquery.Document) models.ProductMetadata {
	var meta models.ProductMetadata

	meta.Title = firstText(doc, titleSelector)
	meta.Price = firstText(doc, priceSelector)

	if raw := firstText(doc, avgRatingSelector); raw != nil {
		if v, err := strconv.ParseFloat(firstToken(*raw), 64); err == nil {
			meta.AvgRating = &v
		}
	}

	if raw := firstText(doc, totalReviewsSelector); raw != nil {
		token := strings.ReplaceAll(firstToken(*raw), ",", "")
		if v, err := strconv.Atoi(token); err == nil {
			meta.TotalReviews = &v
		}
	}

	return meta
}

func firstText(doc *goquery.Document, selector string) *string {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return models.StringPtr(strings.TrimSpace(sel.Text()))
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
