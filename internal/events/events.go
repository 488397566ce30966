// Package events publishes extraction run lifecycle events to a Redis stream.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

// StreamName is the Redis stream carrying run events.
const StreamName = "review-ingestor:runs"

// EventType identifies a run event.
type EventType string

const (
	RunCompleted EventType = "run.completed"
	RunFailed    EventType = "run.failed"
)

// RunEvent is the payload written to the stream.
type RunEvent struct {
	EventID    uuid.UUID         `json:"event_id"`
	EventType  EventType         `json:"event_type"`
	Timestamp  time.Time         `json:"timestamp"`
	RunID      string            `json:"run_id"`
	Full       bool              `json:"full_refresh"`
	Summary    models.RunSummary `json:"summary"`
	Error      string            `json:"error,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}

// NewRunEvent maps a finished run to its event.
func NewRunEvent(result models.RunResult) RunEvent {
	eventType := RunCompleted
	if !result.Succeeded() {
		eventType = RunFailed
	}
	return RunEvent{
		EventID:    uuid.New(),
		EventType:  eventType,
		Timestamp:  result.FinishedAt.UTC(),
		RunID:      result.RunID,
		Full:       result.FullRefresh,
		Summary:    result.Summary,
		Error:      result.Error,
		DurationMS: result.Duration.Milliseconds(),
	}
}
