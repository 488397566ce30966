package models

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyRunning is returned when a run is requested while another holds the run register.
	ErrAlreadyRunning = errors.New("extraction run already in progress")
	// ErrMissingReviewText rejects review snippets that carry no text.
	ErrMissingReviewText = errors.New("review text is required")
	// ErrInvalidURL is returned for links that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid product url")
	// ErrNoReviews is returned by export paths when the filtered set is empty.
	ErrNoReviews = errors.New("no reviews match the filter")
	// ErrDigestCollision is returned when a review hits the dedup index without matching the stored text.
	ErrDigestCollision = errors.New("review text digest collides with a different stored review")
)
