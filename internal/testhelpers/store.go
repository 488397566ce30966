// Package testhelpers provides in-memory stores and scripted providers for pipeline tests.
package testhelpers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/repository"
)

type reviewKey struct {
	url  string
	text string
}

// MemoryStore is an in-memory link registry, review store and cursor store with the same
// uniqueness rules as the PostgreSQL schema.
type MemoryStore struct {
	mu      sync.Mutex
	links   []*models.Link
	reviews []*models.ReviewRecord
	keys    map[reviewKey]struct{}
	cursors map[string]models.Cursor
	nextID  int64

	// Fail* inject store failures for the named operation.
	FailInsert error
	FailTouch  error
	FailList   error
	FailReset  error
	FailUpsert error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys:    make(map[reviewKey]struct{}),
		cursors: make(map[string]models.Cursor),
	}
}

// AddLink registers url under category, deriving nothing: productID may be "".
func (s *MemoryStore) AddLink(url, productID, category string) *models.Link {
	link := &models.Link{ProductID: models.StringPtr(productID), URL: url, Category: category}
	_, _ = s.Upsert(context.Background(), link)
	return link
}

func (s *MemoryStore) Upsert(_ context.Context, link *models.Link) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUpsert != nil {
		return false, s.FailUpsert
	}

	for _, existing := range s.links {
		if existing.URL == link.URL {
			existing.Category = link.Category
			if link.ProductID != nil {
				existing.ProductID = link.ProductID
			}
			link.ID = existing.ID
			return false, nil
		}
	}

	s.nextID++
	stored := *link
	stored.ID = s.nextID
	stored.AddedAt = time.Now()
	s.links = append(s.links, &stored)
	link.ID = stored.ID
	return true, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailList != nil {
		return nil, s.FailList
	}
	out := make([]*models.Link, 0, len(s.links))
	for _, l := range s.links {
		c := *l
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryStore) UpdateDisplayName(_ context.Context, url, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.links {
		if l.URL == url {
			n := name
			l.DisplayName = &n
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *MemoryStore) Categories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]struct{}{}
	out := []string{}
	for _, l := range s.links {
		if _, ok := seen[l.Category]; ok || l.Category == "" {
			continue
		}
		seen[l.Category] = struct{}{}
		out = append(out, l.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Insert(_ context.Context, rec *models.ReviewRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailInsert != nil {
		return false, s.FailInsert
	}
	key := reviewKey{url: rec.ProductURL, text: rec.ReviewText}
	if _, dup := s.keys[key]; dup {
		return false, nil
	}
	s.keys[key] = struct{}{}
	c := *rec
	c.ID = int64(len(s.reviews) + 1)
	c.InsertedAt = time.Now()
	s.reviews = append(s.reviews, &c)
	return true, nil
}

func (s *MemoryStore) ExistsForURL(_ context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.reviews {
		if r.ProductURL == url {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Export(_ context.Context, filter models.ExportFilter) ([]*models.ReviewRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := make(map[string]string, len(s.links))
	for _, l := range s.links {
		categories[l.URL] = l.Category
	}

	out := []*models.ReviewRecord{}
	for i := len(s.reviews) - 1; i >= 0; i-- {
		r := s.reviews[i]
		if filter.ProductID != "" && r.ProductID != filter.ProductID {
			continue
		}
		if filter.Category != "" && categories[r.ProductURL] != filter.Category {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

// ReviewCount returns the number of stored reviews for url, or all reviews when url is "".
func (s *MemoryStore) ReviewCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.reviews {
		if url == "" || r.ProductURL == url {
			n++
		}
	}
	return n
}

func (s *MemoryStore) Get(_ context.Context, productID string) (*models.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cursors[productID]
	if !ok {
		return nil, nil //nolint:nilnil // absence means never extracted
	}
	return &c, nil
}

func (s *MemoryStore) Touch(_ context.Context, productID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailTouch != nil {
		return s.FailTouch
	}
	if c, ok := s.cursors[productID]; ok && c.LastExtractedAt.After(at) {
		return nil
	}
	s.cursors[productID] = models.Cursor{ProductID: productID, LastExtractedAt: at}
	return nil
}

// SetCursor seeds a cursor directly.
func (s *MemoryStore) SetCursor(productID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[productID] = models.Cursor{ProductID: productID, LastExtractedAt: at}
}

func (s *MemoryStore) ResetAll(_ context.Context) (repository.ResetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailReset != nil {
		return repository.ResetResult{}, s.FailReset
	}
	res := repository.ResetResult{Reviews: int64(len(s.reviews)), Cursors: int64(len(s.cursors))}
	s.reviews = nil
	s.keys = make(map[reviewKey]struct{})
	s.cursors = make(map[string]models.Cursor)
	return res, nil
}

// Counts computes the dashboard figures the same way the SQL aggregate does.
func (s *MemoryStore) Counts(_ context.Context) (models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	withReviews := map[string]struct{}{}
	for _, r := range s.reviews {
		withReviews[r.ProductURL] = struct{}{}
	}

	var pending int64
	for _, l := range s.links {
		if _, ok := withReviews[l.URL]; !ok {
			pending++
		}
	}

	return models.Stats{
		TotalLinks:        int64(len(s.links)),
		ProcessedProducts: int64(len(withReviews)),
		PendingProducts:   pending,
		TotalReviews:      int64(len(s.reviews)),
	}, nil
}
