package runstatus_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/runstatus"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRegister_TryAcquireTwice(t *testing.T) {
	r := runstatus.New(logger.NewNop())

	assert.True(t, r.TryAcquire())
	assert.False(t, r.TryAcquire())

	r.Release(r.Snapshot().RunID, "done")
	assert.True(t, r.TryAcquire())
}

func TestRegister_ReleaseStoresMessage(t *testing.T) {
	r := runstatus.New(logger.NewNop())
	require.True(t, r.TryAcquireRun("run-1"))

	snap := r.Snapshot()
	assert.True(t, snap.IsProcessing)
	assert.Equal(t, "run-1", snap.RunID)
	require.NotNil(t, snap.StartedAt)

	r.Heartbeat("run-1", "processing link 1/3")
	assert.Equal(t, "processing link 1/3", r.Snapshot().Message)

	r.Release("run-1", "Completed: 3 processed, 0 skipped, 0 errors (4 new reviews, 0 duplicates)")
	snap = r.Snapshot()
	assert.False(t, snap.IsProcessing)
	assert.Contains(t, snap.Message, "Completed")
}

func TestRegister_HeartbeatIgnoredWhenIdle(t *testing.T) {
	r := runstatus.New(logger.NewNop())
	r.Heartbeat("", "stray")
	assert.Empty(t, r.Snapshot().Message)
}

func TestRegister_StaleReclaim(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := runstatus.New(logger.NewNop(),
		runstatus.WithStaleAfter(10*time.Minute),
		runstatus.WithClock(clock.Now),
	)

	require.True(t, r.TryAcquireRun("crashed"))

	clock.Advance(5 * time.Minute)
	r.Heartbeat("crashed", "processing link 2/9")
	clock.Advance(9 * time.Minute)
	assert.False(t, r.TryAcquireRun("second"), "heartbeat keeps the run alive")

	clock.Advance(2 * time.Minute)
	assert.True(t, r.TryAcquireRun("second"))
	assert.Equal(t, "second", r.Snapshot().RunID)
}

func TestRegister_ReclaimedRunLateReleaseKeepsNewHolder(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := runstatus.New(logger.NewNop(),
		runstatus.WithStaleAfter(time.Minute),
		runstatus.WithClock(clock.Now),
	)

	require.True(t, r.TryAcquireRun("A"))
	clock.Advance(2 * time.Minute)
	require.True(t, r.TryAcquireRun("B"))

	r.Release("A", "Error: context deadline exceeded")

	snap := r.Snapshot()
	assert.True(t, snap.IsProcessing)
	assert.Equal(t, "B", snap.RunID)
	assert.Equal(t, "Processing started", snap.Message)
	assert.False(t, r.TryAcquireRun("C"))

	r.Release("B", "done")
	assert.False(t, r.Snapshot().IsProcessing)
	assert.True(t, r.TryAcquireRun("C"))
}

func TestRegister_ReclaimedRunLateHeartbeatIgnored(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := runstatus.New(logger.NewNop(),
		runstatus.WithStaleAfter(time.Minute),
		runstatus.WithClock(clock.Now),
	)

	require.True(t, r.TryAcquireRun("A"))
	clock.Advance(2 * time.Minute)
	require.True(t, r.TryAcquireRun("B"))
	acquired := *r.Snapshot().UpdatedAt

	clock.Advance(30 * time.Second)
	r.Heartbeat("A", "processing link 7/9")

	snap := r.Snapshot()
	assert.Equal(t, "Processing started", snap.Message)
	assert.Equal(t, acquired, *snap.UpdatedAt)

	clock.Advance(45 * time.Second)
	assert.True(t, r.TryAcquireRun("C"), "stray heartbeats do not keep the new holder alive")
}

func TestRegister_StaleReclaimDisabled(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	r := runstatus.New(logger.NewNop(), runstatus.WithStaleAfter(0), runstatus.WithClock(clock.Now))

	require.True(t, r.TryAcquire())
	clock.Advance(24 * time.Hour)
	assert.False(t, r.TryAcquire())
}

func TestRegister_ConcurrentAcquire(t *testing.T) {
	r := runstatus.New(logger.NewNop())

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryAcquire() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
