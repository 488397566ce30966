// Package links registers product URLs in the link registry, from the API,
// the CLI, or a spreadsheet upload.
package links

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/importer"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/provider"
)

// Upserter writes links into the registry, reporting whether the row is new.
type Upserter interface {
	Upsert(ctx context.Context, link *models.Link) (bool, error)
}

// Result summarises a registration batch.
type Result struct {
	Added   int                    `json:"added"`
	Updated int                    `json:"updated"`
	Errors  []importer.ImportError `json:"errors,omitempty"`
}

// Registrar validates URLs, derives product ids, and upserts links.
type Registrar struct {
	store  Upserter
	logger logger.Logger
}

func NewRegistrar(store Upserter, log logger.Logger) *Registrar {
	return &Registrar{store: store, logger: log}
}

// Register adds urls under category. Invalid URLs are reported per row
// (1-based position in urls) and do not stop the batch; a store failure does.
func (r *Registrar) Register(ctx context.Context, urls []string, category string) (Result, error) {
	rows := make([]importer.LinkRow, 0, len(urls))
	for i, u := range urls {
		rows = append(rows, importer.LinkRow{Row: i + 1, URL: u, Category: category})
	}
	return r.registerRows(ctx, rows, nil)
}

// Import parses an xlsx workbook and registers every valid row. A file-level
// parse failure is returned as a single row-0 error with nothing added.
func (r *Registrar) Import(ctx context.Context, src io.Reader) (Result, error) {
	rows, parseErrs := importer.ParseLinksExcel(src)
	return r.registerRows(ctx, rows, parseErrs)
}

func (r *Registrar) registerRows(ctx context.Context, rows []importer.LinkRow, errs []importer.ImportError) (Result, error) {
	result := Result{Errors: errs}

	for _, row := range rows {
		if msg := importer.ValidateRow(row); msg != "" {
			result.Errors = append(result.Errors, importer.ImportError{Row: row.Row, Error: msg})
			continue
		}

		rawURL, _ := models.ValidateLinkURL(row.URL)
		link := &models.Link{
			URL:       rawURL,
			Category:  strings.TrimSpace(row.Category),
			ProductID: models.StringPtr(provider.ExtractProductID(rawURL)),
		}

		inserted, err := r.store.Upsert(ctx, link)
		if err != nil {
			return result, fmt.Errorf("register link %q: %w", rawURL, err)
		}
		if inserted {
			result.Added++
		} else {
			result.Updated++
		}

		if link.ProductID == nil {
			r.logger.Warn("Registered link without product id; it will be skipped during runs",
				logger.URL(rawURL),
			)
		}
	}

	r.logger.Info("Links registered",
		logger.Int("added", result.Added),
		logger.Int("updated", result.Updated),
		logger.Int("rejected", len(result.Errors)),
	)
	return result, nil
}
