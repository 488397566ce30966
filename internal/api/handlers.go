// Package api exposes the link registry, run control, stats and export over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/export"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/links"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

const (
	importFormField = "file"
	maxImportBytes  = 10 << 20
)

// LinkService registers links from a URL list or a spreadsheet.
type LinkService interface {
	Register(ctx context.Context, urls []string, category string) (links.Result, error)
	Import(ctx context.Context, src io.Reader) (links.Result, error)
}

// LinkReader lists the link registry.
type LinkReader interface {
	List(ctx context.Context) ([]*models.Link, error)
	Categories(ctx context.Context) ([]string, error)
}

// RunStarter launches a background extraction run.
type RunStarter interface {
	Start(skipExisting bool) (string, error)
}

// StatusReader reads the run register.
type StatusReader interface {
	Snapshot() models.RunStatus
}

// StatsReader computes the dashboard counts.
type StatsReader interface {
	Stats(ctx context.Context) (models.Stats, error)
}

// ReviewExporter reads stored review records.
type ReviewExporter interface {
	Export(ctx context.Context, filter models.ExportFilter) ([]*models.ReviewRecord, error)
}

// Deps bundles the collaborators of Handler.
type Deps struct {
	Links    LinkService
	Registry LinkReader
	Runs     RunStarter
	Status   StatusReader
	Stats    StatsReader
	Reviews  ReviewExporter
	Logger   logger.Logger
	// Now defaults to time.Now; used for export file names.
	Now func() time.Time
}

// Handler serves the /api/v1 routes.
type Handler struct {
	deps Deps
	log  logger.Logger
}

func NewHandler(deps Deps) *Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Handler{deps: deps, log: deps.Logger}
}

type addLinksRequest struct {
	URLs     []string `json:"urls"`
	Category string   `json:"category"`
}

// AddLinks handles POST /links.
func (h *Handler) AddLinks(c *gin.Context) {
	var req addLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if len(req.URLs) == 0 || strings.TrimSpace(req.Category) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "urls and category are required"})
		return
	}

	result, err := h.deps.Links.Register(c.Request.Context(), req.URLs, req.Category)
	if err != nil {
		h.log.Error("Failed to register links",
			logger.String("category", req.Category),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register links"})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ImportLinks handles POST /links/import with a multipart xlsx upload.
func (h *Handler) ImportLinks(c *gin.Context) {
	header, err := c.FormFile(importFormField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a spreadsheet must be uploaded in the \"file\" field"})
		return
	}
	if header.Size > maxImportBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "spreadsheet is too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.deps.Links.Import(c.Request.Context(), file)
	if err != nil {
		h.log.Error("Failed to import links",
			logger.String("filename", header.Filename),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import links"})
		return
	}

	if result.Added == 0 && result.Updated == 0 && fileLevelFailure(result) {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func fileLevelFailure(result links.Result) bool {
	for _, e := range result.Errors {
		if e.Row <= 1 {
			return true
		}
	}
	return false
}

// ListLinks handles GET /links.
func (h *Handler) ListLinks(c *gin.Context) {
	registered, err := h.deps.Registry.List(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list links", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list links"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"links": registered,
		"count": len(registered),
	})
}

type processRequest struct {
	SkipExisting *bool `json:"skip_existing"`
}

// Process handles POST /process. skip_existing defaults to true; false
// requests a full refresh.
func (h *Handler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	skipExisting := req.SkipExisting == nil || *req.SkipExisting

	runID, err := h.deps.Runs.Start(skipExisting)
	if errors.Is(err, models.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "Processing already in progress"})
		return
	}
	if err != nil {
		h.log.Error("Failed to start run", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start run"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"run_id":        runID,
		"skip_existing": skipExisting,
		"message":       "Extraction started in background",
	})
}

// Status handles GET /status.
func (h *Handler) Status(c *gin.Context) {
	stats, err := h.deps.Stats.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to compute stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"processing": h.deps.Status.Snapshot(),
		"stats":      stats,
	})
}

// Categories handles GET /categories.
func (h *Handler) Categories(c *gin.Context) {
	categories, err := h.deps.Registry.Categories(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list categories", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Export handles GET /export. format is csv (default) or xlsx.
func (h *Handler) Export(c *gin.Context) {
	var filter models.ExportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query", "details": err.Error()})
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", export.FormatCSV))
	if !export.IsSupported(format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported format %q", format)})
		return
	}

	records, err := h.deps.Reviews.Export(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("Failed to export reviews", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export reviews"})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No reviews found"})
		return
	}

	var buf bytes.Buffer
	if writeErr := export.Write(&buf, format, records); writeErr != nil {
		h.log.Error("Failed to render export", logger.String("format", format), logger.Error(writeErr))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export reviews"})
		return
	}

	name := export.FileName(format, h.deps.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
}
