// Package ingest runs the incremental review extraction pipeline.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/provider"
)

// Orchestrator walks the link registry once per run and ingests new review snippets.
// Links are processed sequentially in registry order.
type Orchestrator struct {
	links    LinkStore
	reviews  ReviewStore
	cursors  CursorStore
	metadata provider.MetadataProvider
	source   provider.ReviewProvider

	limiter  *rate.Limiter
	now      func() time.Time
	progress ProgressReporter
	observer Observer
	logger   logger.Logger
}

// Stores groups the persistence collaborators.
type Stores struct {
	Links   LinkStore
	Reviews ReviewStore
	Cursors CursorStore
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLinkDelay sets the minimum spacing between provider fetches. Zero disables pacing.
func WithLinkDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d <= 0 {
			o.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		o.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithClock overrides the clock used for cursor timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithProgress attaches a progress reporter, usually the run register.
func WithProgress(p ProgressReporter) Option {
	return func(o *Orchestrator) { o.progress = p }
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

func NewOrchestrator(
	stores Stores,
	metadata provider.MetadataProvider,
	source provider.ReviewProvider,
	log logger.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		links:    stores.Links,
		reviews:  stores.Reviews,
		cursors:  stores.Cursors,
		metadata: metadata,
		source:   source,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		now:      time.Now,
		progress: nopProgress{},
		observer: nopObserver{},
		logger:   log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes every registered link. With skipExisting, links that already have a cursor
// or at least one stored review are skipped. Provider failures are counted per link and the
// run continues; store failures and cancellation abort it.
func (o *Orchestrator) Run(ctx context.Context, skipExisting bool) (models.RunSummary, error) {
	var summary models.RunSummary
	runID := RunIDFromContext(ctx)

	links, err := o.links.List(ctx)
	if err != nil {
		return summary, storeErr("list links", err)
	}

	o.logger.Info("Extraction run started",
		logger.Int("links", len(links)),
		logger.Bool("skip_existing", skipExisting),
	)

	for i, link := range links {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, fmt.Errorf("run cancelled: %w", ctxErr)
		}

		note := fmt.Sprintf("processing link %d/%d", i+1, len(links))
		o.progress.Heartbeat(runID, note)

		outcome, linkErr := o.processLinkSafely(ctx, link, note, skipExisting, &summary)
		if linkErr != nil {
			var se *StoreError
			if errors.As(linkErr, &se) || ctx.Err() != nil {
				o.logger.Error("Extraction run aborted",
					logger.URL(link.URL),
					logger.Int("position", i+1),
					logger.Error(linkErr),
				)
				return summary, linkErr
			}

			outcome = OutcomeError
			summary.Errors++
			o.logger.Warn("Link processing failed",
				logger.ProductID(link.ProductIDValue()),
				logger.URL(link.URL),
				logger.Error(linkErr),
			)
		}

		o.observer.ObserveLink(outcome)
	}

	o.logger.Info("Extraction run finished",
		logger.Int("processed", summary.Processed),
		logger.Int("skipped", summary.Skipped),
		logger.Int("errors", summary.Errors),
		logger.Int("invalid", summary.Invalid),
		logger.Int("inserted", summary.Inserted),
		logger.Int("duplicates", summary.Duplicates),
	)

	return summary, nil
}

// processLinkSafely turns a panic inside a single link into a per-link error.
func (o *Orchestrator) processLinkSafely(
	ctx context.Context,
	link *models.Link,
	note string,
	skipExisting bool,
	summary *models.RunSummary,
) (outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing link: %v", r)
		}
	}()
	return o.processLink(ctx, link, note, skipExisting, summary)
}

func (o *Orchestrator) processLink(
	ctx context.Context,
	link *models.Link,
	note string,
	skipExisting bool,
	summary *models.RunSummary,
) (string, error) {
	productID := link.ProductIDValue()
	if productID == "" {
		summary.Invalid++
		o.logger.Debug("Skipping link without product id", logger.URL(link.URL))
		return OutcomeInvalid, nil
	}

	cursor, err := o.cursors.Get(ctx, productID)
	if err != nil {
		return "", storeErr("get cursor", err)
	}

	if skipExisting {
		done, doneErr := o.alreadyExtracted(ctx, link, cursor)
		if doneErr != nil {
			return "", doneErr
		}
		if done {
			summary.Skipped++
			o.logger.Debug("Skipping already extracted product",
				logger.ProductID(productID),
				logger.URL(link.URL),
			)
			return OutcomeSkipped, nil
		}
	}

	if err = o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("pacing wait: %w", err)
	}
	// A long pacing wait must not leave the register looking stale.
	o.progress.Heartbeat(RunIDFromContext(ctx), note)

	meta := o.fetchMetadata(ctx, link)

	if err = o.propagateDisplayName(ctx, link, meta); err != nil {
		return "", err
	}

	snippets, err := o.source.GetReviews(ctx, link.URL)
	if err != nil {
		return "", fmt.Errorf("fetch reviews: %w", err)
	}

	candidates, filtered := FilterIncremental(snippets, cursor)
	summary.Filtered += filtered

	inserted, duplicates, rejected, err := o.storeReviews(ctx, link, meta, candidates)
	summary.Inserted += inserted
	summary.Duplicates += duplicates
	summary.Rejected += rejected
	o.observer.ObserveReviews(inserted, duplicates, filtered, rejected)
	if err != nil {
		return "", err
	}

	if err = o.cursors.Touch(ctx, productID, o.now()); err != nil {
		return "", storeErr("touch cursor", err)
	}

	summary.Processed++
	o.logger.Info("Product extracted",
		logger.ProductID(productID),
		logger.URL(link.URL),
		logger.Int("fetched", len(snippets)),
		logger.Int("inserted", inserted),
		logger.Int("duplicates", duplicates),
		logger.Int("filtered", filtered),
	)

	return OutcomeProcessed, nil
}

// alreadyExtracted is the skip signal: a cursor exists or a review row exists for the URL.
func (o *Orchestrator) alreadyExtracted(ctx context.Context, link *models.Link, cursor *models.Cursor) (bool, error) {
	if cursor != nil {
		return true, nil
	}
	exists, err := o.reviews.ExistsForURL(ctx, link.URL)
	if err != nil {
		return false, storeErr("check existing reviews", err)
	}
	return exists, nil
}

func (o *Orchestrator) fetchMetadata(ctx context.Context, link *models.Link) models.ProductMetadata {
	meta, err := o.metadata.GetMetadata(ctx, link.URL)
	if err != nil {
		o.logger.Warn("Metadata fetch failed, continuing without metadata",
			logger.ProductID(link.ProductIDValue()),
			logger.URL(link.URL),
			logger.Error(err),
		)
		return models.ProductMetadata{}
	}
	if meta.IsEmpty() {
		o.logger.Debug("No metadata extracted", logger.URL(link.URL))
	}
	return meta
}

func (o *Orchestrator) propagateDisplayName(ctx context.Context, link *models.Link, meta models.ProductMetadata) error {
	if meta.Title == nil || *meta.Title == link.DisplayNameValue() {
		return nil
	}
	if err := o.links.UpdateDisplayName(ctx, link.URL, *meta.Title); err != nil {
		return storeErr("update display name", err)
	}
	title := *meta.Title
	link.DisplayName = &title
	return nil
}

func (o *Orchestrator) storeReviews(
	ctx context.Context,
	link *models.Link,
	meta models.ProductMetadata,
	candidates []models.ReviewSnippet,
) (inserted, duplicates, rejected int, err error) {
	for _, snippet := range candidates {
		rec, recErr := models.NewReviewRecord(link, meta, snippet)
		if recErr != nil {
			rejected++
			continue
		}

		ok, insertErr := o.reviews.Insert(ctx, rec)
		if errors.Is(insertErr, models.ErrDigestCollision) {
			rejected++
			o.logger.Warn("Review not stored: dedup digest collision",
				logger.ProductID(rec.ProductID),
				logger.URL(link.URL),
			)
			continue
		}
		if insertErr != nil {
			return inserted, duplicates, rejected, storeErr("insert review", insertErr)
		}
		if ok {
			inserted++
		} else {
			duplicates++
		}
	}
	return inserted, duplicates, rejected, nil
}
