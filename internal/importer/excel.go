// Package importer reads link lists from spreadsheets.
package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

const (
	headerURL      = "url"
	headerCategory = "category"
	headerRows     = 1
)

// LinkRow is one parsed spreadsheet row.
type LinkRow struct {
	Row      int // spreadsheet row number, 1-based
	URL      string
	Category string
}

// ImportError is a validation failure for one row. Row 0 means the whole file.
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ValidateRow returns an error message for row, or "" when it is valid.
func ValidateRow(row LinkRow) string {
	if strings.TrimSpace(row.URL) == "" {
		return "url is required"
	}
	if _, err := models.ValidateLinkURL(row.URL); err != nil {
		return "url must be an absolute http:// or https:// URL"
	}
	if strings.TrimSpace(row.Category) == "" {
		return "category is required"
	}
	return ""
}

// ParseLinksExcel reads the first sheet of an xlsx workbook. The header row must contain
// "url" and "category" columns in any order and case. Blank rows are ignored.
func ParseLinksExcel(r io.Reader) ([]LinkRow, []ImportError) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, []ImportError{{Row: 0, Error: fmt.Sprintf("open spreadsheet: %v", err)}}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, []ImportError{{Row: 0, Error: "spreadsheet has no sheets"}}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, []ImportError{{Row: 0, Error: fmt.Sprintf("read rows: %v", err)}}
	}
	if len(rows) == 0 {
		return nil, []ImportError{{Row: 0, Error: "spreadsheet is empty"}}
	}

	urlCol, categoryCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case headerURL:
			urlCol = i
		case headerCategory:
			categoryCol = i
		}
	}
	if urlCol < 0 || categoryCol < 0 {
		return nil, []ImportError{{Row: headerRows, Error: "header must contain url and category columns"}}
	}

	var (
		parsed []LinkRow
		errs   []ImportError
	)
	for i, cells := range rows[headerRows:] {
		row := LinkRow{
			Row:      i + headerRows + 1,
			URL:      strings.TrimSpace(cellAt(cells, urlCol)),
			Category: strings.TrimSpace(cellAt(cells, categoryCol)),
		}
		if row.URL == "" && row.Category == "" {
			continue
		}
		if msg := ValidateRow(row); msg != "" {
			errs = append(errs, ImportError{Row: row.Row, Error: msg})
			continue
		}
		parsed = append(parsed, row)
	}

	return parsed, errs
}

func cellAt(cells []string, idx int) string {
	if idx < len(cells) {
		return cells[idx]
	}
	return ""
}
