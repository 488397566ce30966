package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

const publishTimeout = 5 * time.Second

// Launcher is the trigger side of the pipeline. It owns the check-and-set against the run
// register, the full-refresh purge, and the guaranteed release at the end of every run.
type Launcher struct {
	runner    Runner
	resetter  Resetter
	register  Register
	observer  Observer
	publisher Publisher
	logger    logger.Logger

	// baseCtx parents background runs so shutdown can cancel them.
	baseCtx context.Context
	wg      sync.WaitGroup
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

func WithRunObserver(obs Observer) LauncherOption {
	return func(l *Launcher) { l.observer = obs }
}

func WithPublisher(p Publisher) LauncherOption {
	return func(l *Launcher) { l.publisher = p }
}

// WithBaseContext sets the parent context of background runs.
func WithBaseContext(ctx context.Context) LauncherOption {
	return func(l *Launcher) { l.baseCtx = ctx }
}

func NewLauncher(runner Runner, resetter Resetter, register Register, log logger.Logger, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		runner:   runner,
		resetter: resetter,
		register: register,
		observer: nopObserver{},
		logger:   log,
		baseCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start acquires the run register and launches a run in the background. It returns the run id
// immediately, or models.ErrAlreadyRunning when another run holds the register.
// With skipExisting false every stored review and cursor is purged before the run.
func (l *Launcher) Start(skipExisting bool) (string, error) {
	runID := uuid.NewString()
	if !l.register.TryAcquireRun(runID) {
		return "", models.ErrAlreadyRunning
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		_, _ = l.execute(l.baseCtx, runID, skipExisting)
	}()

	return runID, nil
}

// RunSync runs in the caller's goroutine with the same guard and release semantics as Start.
func (l *Launcher) RunSync(ctx context.Context, skipExisting bool) (models.RunSummary, error) {
	runID := uuid.NewString()
	if !l.register.TryAcquireRun(runID) {
		return models.RunSummary{}, models.ErrAlreadyRunning
	}
	return l.execute(ctx, runID, skipExisting)
}

// Wait blocks until every background run has released the register.
func (l *Launcher) Wait() {
	l.wg.Wait()
}

func (l *Launcher) execute(ctx context.Context, runID string, skipExisting bool) (summary models.RunSummary, err error) {
	started := time.Now()
	log := l.logger.With(logger.RunID(runID))
	ctx = ContextWithRunID(ctx, runID)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}

		finished := time.Now()
		result := models.RunResult{
			RunID:       runID,
			FullRefresh: !skipExisting,
			Summary:     summary,
			StartedAt:   started,
			FinishedAt:  finished,
			Duration:    finished.Sub(started),
		}

		message := summary.Message()
		if err != nil {
			result.Error = err.Error()
			message = "Error: " + err.Error()
			log.Error("Extraction run failed", logger.Error(err), logger.Duration("duration", result.Duration))
		} else {
			log.Info("Extraction run completed",
				logger.String("summary", message),
				logger.Duration("duration", result.Duration),
			)
		}

		l.observer.RunFinished(result)
		l.publish(result, log)
		l.register.Release(runID, message)
	}()

	l.observer.RunStarted()

	if !skipExisting {
		l.register.Heartbeat(runID, "purging stored reviews and cursors")
		res, resetErr := l.resetter.ResetAll(ctx)
		if resetErr != nil {
			return summary, storeErr("full refresh purge", resetErr)
		}
		log.Warn("Full refresh purged stored data",
			logger.Int64("reviews_deleted", res.Reviews),
			logger.Int64("cursors_deleted", res.Cursors),
		)
	}

	return l.runner.Run(ctx, skipExisting)
}

func (l *Launcher) publish(result models.RunResult, log logger.Logger) {
	if l.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := l.publisher.PublishRunFinished(ctx, result); err != nil {
		log.Warn("Failed to publish run event", logger.Error(err))
	}
}
