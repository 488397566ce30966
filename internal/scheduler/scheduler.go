// Package scheduler triggers extraction runs on a cron schedule.
package scheduler

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

// Starter launches a background run.
type Starter interface {
	Start(skipExisting bool) (string, error)
}

// Scheduler fires Starter.Start on a standard five-field cron expression.
// A tick that finds a run already active is logged and dropped, never queued.
type Scheduler struct {
	cron         *cron.Cron
	parser       cron.Parser
	starter      Starter
	spec         string
	skipExisting bool
	entryID      cron.EntryID
	logger       logger.Logger
}

func New(spec string, skipExisting bool, starter Starter, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		parser:       cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		starter:      starter,
		spec:         spec,
		skipExisting: skipExisting,
		logger:       log,
	}
}

// Start registers the schedule and starts the cron loop.
func (s *Scheduler) Start() error {
	schedule, err := s.parser.Parse(s.spec)
	if err != nil {
		return fmt.Errorf("parse cron expression %q: %w", s.spec, err)
	}

	s.entryID = s.cron.Schedule(schedule, cron.FuncJob(s.Tick))
	s.cron.Start()

	s.logger.Info("Extraction schedule registered",
		logger.String("schedule", s.spec),
		logger.Bool("skip_existing", s.skipExisting),
		logger.Time("next_run", s.cron.Entry(s.entryID).Next),
	)
	return nil
}

// Tick attempts to start one run.
func (s *Scheduler) Tick() {
	runID, err := s.starter.Start(s.skipExisting)
	switch {
	case errors.Is(err, models.ErrAlreadyRunning):
		s.logger.Info("Scheduled run skipped, a run is already in progress")
	case err != nil:
		s.logger.Error("Scheduled run failed to start", logger.Error(err))
	default:
		s.logger.Info("Scheduled run started", logger.RunID(runID))
	}
}

// Stop halts the cron loop. It does not wait for a run started by the schedule.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Extraction schedule stopped")
}
