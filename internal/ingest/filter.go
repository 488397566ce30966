package ingest

import "github.com/jonesrussell/north-cloud/review-ingestor/internal/models"

// FilterIncremental keeps the snippets that may be new since cursor.
// Without a cursor every snippet is kept. With one, a dated snippet is kept only when it is
// strictly after the cursor; undated snippets are always kept. It returns the kept snippets
// and the number excluded.
func FilterIncremental(snippets []models.ReviewSnippet, cursor *models.Cursor) ([]models.ReviewSnippet, int) {
	if cursor == nil {
		return snippets, 0
	}

	cutoff := cursor.LastExtractedAt
	kept := make([]models.ReviewSnippet, 0, len(snippets))
	for _, s := range snippets {
		if s.ReviewDate == nil || s.ReviewDate.IsZero() || s.ReviewDate.After(cutoff) {
			kept = append(kept, s)
		}
	}
	return kept, len(snippets) - len(kept)
}
