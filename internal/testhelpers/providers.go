package testhelpers

import (
	"context"
	"sync"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

// StaticMetadata serves fixed metadata per URL. Unknown URLs get empty metadata.
type StaticMetadata struct {
	mu    sync.Mutex
	byURL map[string]models.ProductMetadata
	errs  map[string]error
	Calls int
}

func NewStaticMetadata() *StaticMetadata {
	return &StaticMetadata{byURL: map[string]models.ProductMetadata{}, errs: map[string]error{}}
}

func (m *StaticMetadata) Set(url string, meta models.ProductMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byURL[url] = meta
}

func (m *StaticMetadata) Fail(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[url] = err
}

func (m *StaticMetadata) GetMetadata(_ context.Context, url string) (models.ProductMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := m.errs[url]; err != nil {
		return models.ProductMetadata{}, err
	}
	return m.byURL[url], nil
}

// StaticReviews serves a fixed snippet list per URL and records how often each URL was fetched.
type StaticReviews struct {
	mu    sync.Mutex
	byURL map[string][]models.ReviewSnippet
	errs  map[string]error
	calls map[string]int
	panic map[string]bool
}

func NewStaticReviews() *StaticReviews {
	return &StaticReviews{
		byURL: map[string][]models.ReviewSnippet{},
		errs:  map[string]error{},
		calls: map[string]int{},
		panic: map[string]bool{},
	}
}

func (r *StaticReviews) Set(url string, snippets ...models.ReviewSnippet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byURL[url] = snippets
}

func (r *StaticReviews) Fail(url string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[url] = err
}

// Panic makes the provider panic for url.
func (r *StaticReviews) Panic(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panic[url] = true
}

func (r *StaticReviews) Calls(url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[url]
}

func (r *StaticReviews) GetReviews(_ context.Context, url string) ([]models.ReviewSnippet, error) {
	r.mu.Lock()
	r.calls[url]++
	shouldPanic := r.panic[url]
	err := r.errs[url]
	snippets := append([]models.ReviewSnippet{}, r.byURL[url]...)
	r.mu.Unlock()

	if shouldPanic {
		panic("review provider exploded")
	}
	if err != nil {
		return nil, err
	}
	return snippets, nil
}

// Snippet builds a review snippet with the given text.
func Snippet(text string) models.ReviewSnippet {
	return models.ReviewSnippet{Text: text}
}
