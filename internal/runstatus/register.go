// Package runstatus holds the process-wide run register that prevents overlapping extraction runs.
package runstatus

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

// DefaultStaleAfter is how long a busy register may go without a heartbeat before a new run may reclaim it.
const DefaultStaleAfter = 30 * time.Minute

// Register is a mutex-guarded busy flag with a last-outcome message.
// At most one holder exists between TryAcquire and Release.
type Register struct {
	mu         sync.Mutex
	busy       bool
	message    string
	runID      string
	startedAt  time.Time
	updatedAt  time.Time
	staleAfter time.Duration
	now        func() time.Time
	logger     logger.Logger
}

// Option configures a Register.
type Option func(*Register)

// WithStaleAfter sets the heartbeat timeout after which a busy register can be reclaimed.
// Zero disables reclaim.
func WithStaleAfter(d time.Duration) Option {
	return func(r *Register) { r.staleAfter = d }
}

func WithClock(now func() time.Time) Option {
	return func(r *Register) { r.now = now }
}

func New(log logger.Logger, opts ...Option) *Register {
	r := &Register{
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
		logger:     log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TryAcquire marks the register busy under a fresh run id. It returns false when a run is already active.
func (r *Register) TryAcquire() bool {
	return r.TryAcquireRun(uuid.NewString())
}

// TryAcquireRun marks the register busy for runID. It returns false when another run is active
// and has sent a heartbeat within the stale window.
func (r *Register) TryAcquireRun(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.busy {
		if r.staleAfter <= 0 || now.Sub(r.updatedAt) <= r.staleAfter {
			return false
		}
		r.logger.Warn("Reclaiming stale run register",
			logger.String("stale_run_id", r.runID),
			logger.Time("last_heartbeat", r.updatedAt),
			logger.Duration("stale_after", r.staleAfter),
		)
	}

	r.busy = true
	r.runID = runID
	r.startedAt = now
	r.updatedAt = now
	r.message = "Processing started"
	return true
}

// Heartbeat records a progress note for the active run. It is ignored when idle
// or when runID is not the current holder.
func (r *Register) Heartbeat(runID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.busy || runID != r.runID {
		return
	}
	r.message = message
	r.updatedAt = r.now()
}

// Release clears the busy flag and stores the run's final message. A release from a run
// that was reclaimed as stale leaves the new holder in place.
func (r *Register) Release(runID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if runID != r.runID {
		r.logger.Warn("Ignoring release from superseded run",
			logger.RunID(runID),
			logger.String("holder_run_id", r.runID),
		)
		return
	}

	r.busy = false
	r.message = message
	r.updatedAt = r.now()
}

// Snapshot returns the current state.
func (r *Register) Snapshot() models.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := models.RunStatus{
		IsProcessing: r.busy,
		Message:      r.message,
		RunID:        r.runID,
	}
	if !r.startedAt.IsZero() {
		started := r.startedAt
		status.StartedAt = &started
	}
	if !r.updatedAt.IsZero() {
		updated := r.updatedAt
		status.UpdatedAt = &updated
	}
	return status
}
