package models

import (
	"fmt"
	"time"
)

// Cursor is the per-product extraction high-water mark.
type Cursor struct {
	ProductID       string    `json:"product_id"        db:"product_id"`
	LastExtractedAt time.Time `json:"last_extracted_at" db:"last_extracted_at"`
}

// RunSummary aggregates the outcome of one orchestrator run.
type RunSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	// Invalid counts links without a derivable product id.
	Invalid int `json:"invalid"`
	// Inserted, Duplicates, Filtered and Rejected count review snippets.
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Filtered   int `json:"filtered"`
	Rejected   int `json:"rejected"`
}

// Message renders the summary recorded as the run's final status.
func (s RunSummary) Message() string {
	return fmt.Sprintf(
		"Completed: %d processed, %d skipped, %d errors (%d new reviews, %d duplicates)",
		s.Processed, s.Skipped, s.Errors, s.Inserted, s.Duplicates,
	)
}

// Stats holds the dashboard counts.
type Stats struct {
	TotalLinks        int64 `json:"total_links"        db:"total_links"`
	ProcessedProducts int64 `json:"processed_products" db:"processed_products"`
	PendingProducts   int64 `json:"pending_products"   db:"pending_products"`
	TotalReviews      int64 `json:"total_reviews"      db:"total_reviews"`
}

// RunStatus is a snapshot of the run register.
type RunStatus struct {
	IsProcessing bool       `json:"is_processing"`
	Message      string     `json:"message"`
	RunID        string     `json:"run_id,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// RunResult describes a finished run for events and metrics.
type RunResult struct {
	RunID       string        `json:"run_id"`
	FullRefresh bool          `json:"full_refresh"`
	Summary     RunSummary    `json:"summary"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Duration    time.Duration `json:"duration_ns"`
}

// Succeeded reports whether the run finished without a fatal error.
func (r RunResult) Succeeded() bool {
	return r.Error == ""
}
