package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/repository"
)

var linkColumns = []string{"id", "product_id", "url", "category", "display_name", "added_at"}

func TestLinkRepository_Upsert(t *testing.T) {
	tests := []struct {
		name     string
		inserted bool
	}{
		{name: "new url", inserted: true},
		{name: "existing url updates category", inserted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := repository.NewLinkRepository(db)

			pid := "B000000001"
			link := &models.Link{ProductID: &pid, URL: "https://www.amazon.com/dp/B000000001", Category: "kitchen"}
			now := time.Now()

			mock.ExpectQuery(`INSERT INTO links .+ ON CONFLICT \(url\) DO UPDATE`).
				WithArgs(link.ProductID, link.URL, link.Category).
				WillReturnRows(sqlmock.NewRows([]string{"id", "added_at", "inserted"}).AddRow(7, now, tt.inserted))

			got, err := repo.Upsert(context.Background(), link)
			require.NoError(t, err)
			assert.Equal(t, tt.inserted, got)
			assert.Equal(t, int64(7), link.ID)
			assert.Equal(t, now, link.AddedAt)
			expectationsMet(t, mock)
		})
	}
}

func TestLinkRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewLinkRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM links ORDER BY id ASC`).
		WillReturnRows(sqlmock.NewRows(linkColumns).
			AddRow(1, "B000000001", "https://www.amazon.com/dp/B000000001", "kitchen", nil, now).
			AddRow(2, nil, "https://example.com/item", "misc", "Widget", now))

	links, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "B000000001", links[0].ProductIDValue())
	assert.Nil(t, links[1].ProductID)
	assert.Equal(t, "Widget", links[1].DisplayNameValue())
	expectationsMet(t, mock)
}

func TestLinkRepository_List_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewLinkRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM links`).WillReturnRows(sqlmock.NewRows(linkColumns))

	links, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)
}

func TestLinkRepository_UpdateDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		rows    int64
		wantErr error
	}{
		{name: "updated", rows: 1},
		{name: "unknown url", rows: 0, wantErr: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := repository.NewLinkRepository(db)

			mock.ExpectExec(`UPDATE links SET display_name`).
				WithArgs("https://example.com/a", "Blender").
				WillReturnResult(sqlmock.NewResult(0, tt.rows))

			err := repo.UpdateDisplayName(context.Background(), "https://example.com/a", "Blender")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			expectationsMet(t, mock)
		})
	}
}

func TestLinkRepository_Categories(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewLinkRepository(db)

	mock.ExpectQuery(`SELECT DISTINCT category FROM links`).
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("kitchen").AddRow("toys"))

	got, err := repo.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"kitchen", "toys"}, got)
	expectationsMet(t, mock)
}

func TestLinkRepository_Count_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewLinkRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM links`).WillReturnError(errors.New("connection reset"))

	_, err := repo.Count(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count links")
}
