package ingest

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/repository"
)

// LinkStore is the link registry as seen by the orchestrator.
type LinkStore interface {
	List(ctx context.Context) ([]*models.Link, error)
	UpdateDisplayName(ctx context.Context, url, name string) error
}

// ReviewStore is the review store as seen by the orchestrator.
type ReviewStore interface {
	Insert(ctx context.Context, rec *models.ReviewRecord) (bool, error)
	ExistsForURL(ctx context.Context, url string) (bool, error)
}

// CursorStore is the incremental cursor store as seen by the orchestrator.
type CursorStore interface {
	Get(ctx context.Context, productID string) (*models.Cursor, error)
	Touch(ctx context.Context, productID string, at time.Time) error
}

// Resetter purges reviews and cursors ahead of a full-refresh run.
type Resetter interface {
	ResetAll(ctx context.Context) (repository.ResetResult, error)
}

// ProgressReporter receives progress notes while a run is active.
// Notes from a run other than the current holder are dropped.
type ProgressReporter interface {
	Heartbeat(runID, message string)
}

// Register is the run status register guarding against overlapping runs.
type Register interface {
	ProgressReporter
	TryAcquireRun(runID string) bool
	Release(runID, message string)
}

// Runner executes one extraction pass.
type Runner interface {
	Run(ctx context.Context, skipExisting bool) (models.RunSummary, error)
}

// Observer receives counters for metrics.
type Observer interface {
	ObserveLink(outcome string)
	ObserveReviews(inserted, duplicates, filtered, rejected int)
	RunStarted()
	RunFinished(result models.RunResult)
}

// Publisher announces finished runs.
type Publisher interface {
	PublishRunFinished(ctx context.Context, result models.RunResult) error
}

// Link outcomes reported to the Observer.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeError     = "error"
	OutcomeInvalid   = "invalid"
)

type nopObserver struct{}

func (nopObserver) ObserveLink(string)                {}
func (nopObserver) ObserveReviews(int, int, int, int) {}
func (nopObserver) RunStarted()                       {}
func (nopObserver) RunFinished(models.RunResult)      {}

type nopProgress struct{}

func (nopProgress) Heartbeat(string, string) {}
