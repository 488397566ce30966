// Package export renders review records as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const sheetName = "Reviews"

// Columns is the exported header, in order.
var Columns = []string{
	"product_id", "product_url", "display_name", "price", "avg_rating", "total_reviews",
	"review_title", "review_text", "rating", "review_date", "verified", "inserted_at",
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// FileName returns reviews_<YYYYmmdd_HHMMSS>.<format>.
func FileName(format string, at time.Time) string {
	return fmt.Sprintf("reviews_%s.%s", at.Format("20060102_150405"), format)
}

// IsSupported reports whether format can be written.
func IsSupported(format string) bool {
	return format == FormatCSV || format == FormatXLSX
}

// Write renders records in format to w.
func Write(w io.Writer, format string, records []*models.ReviewRecord) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(w io.Writer, records []*models.ReviewRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(row(rec)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook named Reviews.
func WriteXLSX(w io.Writer, records []*models.ReviewRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	if err = sw.SetRow("A1", toCells(Columns)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		cell, cellErr := excelize.CoordinatesToCellName(1, i+2)
		if cellErr != nil {
			return fmt.Errorf("cell name: %w", cellErr)
		}
		if err = sw.SetRow(cell, toCells(row(rec))); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err = sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if _, err = f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func row(rec *models.ReviewRecord) []string {
	return []string{
		rec.ProductID,
		rec.ProductURL,
		deref(rec.DisplayName),
		deref(rec.Price),
		formatFloat(rec.AvgRating),
		formatInt(rec.TotalReviews),
		deref(rec.ReviewTitle),
		rec.ReviewText,
		formatFloat(rec.Rating),
		formatTime(rec.ReviewDate),
		strconv.FormatBool(rec.Verified),
		rec.InsertedAt.UTC().Format(time.RFC3339),
	}
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
