package ingest_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/ingest"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/runstatus"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/testhelpers"
)

type recordingPublisher struct {
	mu      sync.Mutex
	results []models.RunResult
}

func (p *recordingPublisher) PublishRunFinished(_ context.Context, r models.RunResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
	return nil
}

type recordingObserver struct {
	mu       sync.Mutex
	started  int
	finished []models.RunResult
	links    map[string]int
}

func (o *recordingObserver) ObserveLink(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.links == nil {
		o.links = map[string]int{}
	}
	o.links[outcome]++
}

func (o *recordingObserver) ObserveReviews(int, int, int, int) {}

func (o *recordingObserver) RunStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *recordingObserver) RunFinished(r models.RunResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, r)
}

// blockingRunner holds the run open until released.
type blockingRunner struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingRunner) Run(ctx context.Context, _ bool) (models.RunSummary, error) {
	close(b.entered)
	select {
	case <-b.release:
	case <-ctx.Done():
		return models.RunSummary{}, ctx.Err()
	}
	return models.RunSummary{Processed: 1}, nil
}

type failingRunner struct{ err error }

func (f failingRunner) Run(context.Context, bool) (models.RunSummary, error) {
	return models.RunSummary{Processed: 1}, f.err
}

type panickingRunner struct{}

func (panickingRunner) Run(context.Context, bool) (models.RunSummary, error) {
	panic("boom")
}

func TestLauncher_StartRejectsOverlappingRun(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	register := runstatus.New(logger.NewNop())
	runner := &blockingRunner{entered: make(chan struct{}), release: make(chan struct{})}
	l := ingest.NewLauncher(runner, store, register, logger.NewNop())

	runID, err := l.Start(true)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	<-runner.entered

	_, err = l.Start(true)
	require.ErrorIs(t, err, models.ErrAlreadyRunning)
	assert.True(t, register.Snapshot().IsProcessing)
	assert.Equal(t, runID, register.Snapshot().RunID)

	close(runner.release)
	l.Wait()

	snap := register.Snapshot()
	assert.False(t, snap.IsProcessing)
	assert.Equal(t, models.RunSummary{Processed: 1}.Message(), snap.Message)
}

func TestLauncher_FailureReleasesWithErrorMessage(t *testing.T) {
	register := runstatus.New(logger.NewNop())
	pub := &recordingPublisher{}
	obs := &recordingObserver{}
	l := ingest.NewLauncher(failingRunner{err: errors.New("store insert review: connection lost")},
		testhelpers.NewMemoryStore(), register, logger.NewNop(),
		ingest.WithPublisher(pub), ingest.WithRunObserver(obs))

	_, err := l.RunSync(context.Background(), true)
	require.Error(t, err)

	snap := register.Snapshot()
	assert.False(t, snap.IsProcessing)
	assert.Equal(t, "Error: store insert review: connection lost", snap.Message)

	require.Len(t, pub.results, 1)
	assert.False(t, pub.results[0].Succeeded())
	assert.Equal(t, 1, pub.results[0].Summary.Processed)
	assert.Equal(t, 1, obs.started)
	require.Len(t, obs.finished, 1)
}

func TestLauncher_PanicReleasesRegister(t *testing.T) {
	register := runstatus.New(logger.NewNop())
	l := ingest.NewLauncher(panickingRunner{}, testhelpers.NewMemoryStore(), register, logger.NewNop())

	_, err := l.Start(true)
	require.NoError(t, err)
	l.Wait()

	snap := register.Snapshot()
	assert.False(t, snap.IsProcessing)
	assert.Contains(t, snap.Message, "Error: run panicked")
	assert.True(t, register.TryAcquire())
}

func TestLauncher_FullRefreshPurgesFirst(t *testing.T) {
	f := newFixture()
	link := f.store.AddLink(urlA, pidA, "kitchen")
	_, err := f.store.Insert(context.Background(), &models.ReviewRecord{
		ProductID: pidA, ProductURL: link.URL, ReviewText: "from an older run",
	})
	require.NoError(t, err)
	f.store.SetCursor(pidA, f.clock.Add(-48*time.Hour))
	f.reviews.Set(urlA, testhelpers.Snippet("current a"), testhelpers.Snippet("current b"))

	register := runstatus.New(logger.NewNop())
	l := ingest.NewLauncher(f.orchestrator(), f.store, register, logger.NewNop())

	summary, err := l.RunSync(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 2, f.store.ReviewCount(""))

	recs, err := f.store.Export(context.Background(), models.ExportFilter{})
	require.NoError(t, err)
	for _, r := range recs {
		assert.NotEqual(t, "from an older run", r.ReviewText)
	}

	// a second full refresh with the same provider data must not grow the store
	_, err = l.RunSync(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.ReviewCount(""))
}

func TestLauncher_PurgeFailureIsFatal(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	store.FailReset = errors.New("permission denied")
	register := runstatus.New(logger.NewNop())
	runner := &blockingRunner{entered: make(chan struct{}), release: make(chan struct{})}
	l := ingest.NewLauncher(runner, store, register, logger.NewNop())

	_, err := l.RunSync(context.Background(), false)
	var se *ingest.StoreError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, register.Snapshot().Message, "Error: store full refresh purge")

	select {
	case <-runner.entered:
		t.Fatal("runner must not start after a failed purge")
	default:
	}
}

func TestLauncher_RunSyncRespectsRegister(t *testing.T) {
	register := runstatus.New(logger.NewNop())
	require.True(t, register.TryAcquire())

	l := ingest.NewLauncher(failingRunner{}, testhelpers.NewMemoryStore(), register, logger.NewNop())
	_, err := l.RunSync(context.Background(), true)
	require.ErrorIs(t, err, models.ErrAlreadyRunning)
}

func TestLauncher_BaseContextCancelsBackgroundRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	register := runstatus.New(logger.NewNop())
	runner := &blockingRunner{entered: make(chan struct{}), release: make(chan struct{})}
	l := ingest.NewLauncher(runner, testhelpers.NewMemoryStore(), register, logger.NewNop(),
		ingest.WithBaseContext(ctx))

	_, err := l.Start(true)
	require.NoError(t, err)
	<-runner.entered
	cancel()
	l.Wait()

	assert.Contains(t, register.Snapshot().Message, "Error: context canceled")
}

type steppedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLauncher_ReclaimedRunFinishingLateKeepsNewHolder(t *testing.T) {
	clock := &steppedClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	register := runstatus.New(logger.NewNop(),
		runstatus.WithStaleAfter(time.Minute),
		runstatus.WithClock(clock.Now),
	)
	runner := &blockingRunner{entered: make(chan struct{}), release: make(chan struct{})}
	l := ingest.NewLauncher(runner, testhelpers.NewMemoryStore(), register, logger.NewNop())

	hungRunID, err := l.Start(true)
	require.NoError(t, err)
	<-runner.entered

	clock.Advance(2 * time.Minute)
	require.True(t, register.TryAcquireRun("reclaimer"))

	close(runner.release)
	l.Wait()

	snap := register.Snapshot()
	assert.True(t, snap.IsProcessing)
	assert.Equal(t, "reclaimer", snap.RunID)
	assert.NotEqual(t, hungRunID, snap.RunID)
	assert.False(t, register.TryAcquireRun("third"))
}

type runIDRecorder struct{ seen string }

func (r *runIDRecorder) Run(ctx context.Context, _ bool) (models.RunSummary, error) {
	r.seen = ingest.RunIDFromContext(ctx)
	return models.RunSummary{}, nil
}

func TestLauncher_RunnerSeesRunID(t *testing.T) {
	register := runstatus.New(logger.NewNop())
	runner := &runIDRecorder{}
	l := ingest.NewLauncher(runner, testhelpers.NewMemoryStore(), register, logger.NewNop())

	runID, err := l.Start(true)
	require.NoError(t, err)
	l.Wait()

	assert.Equal(t, runID, runner.seen)
	assert.Equal(t, runID, register.Snapshot().RunID)
	assert.False(t, register.Snapshot().IsProcessing)
}

func TestLauncher_ObserverSeesLinkOutcomes(t *testing.T) {
	f := newFixture()
	f.store.AddLink(urlA, pidA, "kitchen")
	f.store.AddLink("https://example.com/none", "", "misc")
	obs := &recordingObserver{}

	o := ingest.NewOrchestrator(
		ingest.Stores{Links: f.store, Reviews: f.store, Cursors: f.store},
		f.metadata, f.reviews, logger.NewNop(),
		ingest.WithLinkDelay(0), ingest.WithObserver(obs),
	)
	_, err := o.Run(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 1, obs.links[ingest.OutcomeProcessed])
	assert.Equal(t, 1, obs.links[ingest.OutcomeInvalid])
}
