// backend-go/internal/api/handlers/reorder_handler.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/export"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/pipeline"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/pipeline/reorder"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const maxListLimit = 1000

// ReorderService is what the handler needs from service.ReorderService.
type ReorderService interface {
	Recompute(ctx context.Context, trigger pipeline.Trigger) (domain.RecomputeSummary, error)
	FetchAnalytics(ctx context.Context, filter domain.ResultFilter) ([]domain.AnalyticsView, error)
	FetchRecommendations(ctx context.Context, filter domain.ResultFilter) ([]domain.RecommendationView, error)
	GetResultSummary(ctx context.Context) (domain.ResultSummary, error)
	LatestRun(ctx context.Context) (*pipeline.Run, error)
	Export(ctx context.Context, kind service.ResultKind, filter domain.ResultFilter) ([]byte, error)
}

type ReorderHandler struct {
	svc ReorderService
	now func() time.Time
}

func NewReorderHandler(svc ReorderService) *ReorderHandler {
	return &ReorderHandler{svc: svc, now: time.Now}
}

// Recompute runs a full recomputation synchronously and returns its summary.
// A client that disconnects mid-run does not stop it.
func (h *ReorderHandler) Recompute(c *gin.Context) {
	trigger := pipeline.TriggerManual
	if c.Query("trigger") == string(pipeline.TriggerScheduled) {
		trigger = pipeline.TriggerScheduled
	}

	summary, err := h.svc.Recompute(context.WithoutCancel(c.Request.Context()), trigger)
	if err != nil {
		log.Error().Err(err).Msg("recompute failed")
		status := http.StatusInternalServerError
		if errors.Is(err, reorder.ErrCatalogUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "recompute failed", "summary": summary})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ReorderHandler) GetAnalytics(c *gin.Context) {
	filter, err := parseResultFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.svc.FetchAnalytics(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch item analytics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch item analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *ReorderHandler) GetRecommendations(c *gin.Context) {
	filter, err := parseResultFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.svc.FetchRecommendations(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch reorder recommendations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reorder recommendations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *ReorderHandler) GetSummary(c *gin.Context) {
	summary, err := h.svc.GetResultSummary(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch reorder summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ReorderHandler) GetLatestRun(c *gin.Context) {
	run, err := h.svc.LatestRun(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch latest run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch latest run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no runs recorded"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// Export streams an XLSX workbook of the requested kind.
func (h *ReorderHandler) Export(c *gin.Context) {
	kind, err := service.ParseResultKind(c.Query("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter, err := parseResultFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := h.svc.Export(c.Request.Context(), kind, filter)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("failed to export results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export"})
		return
	}

	filename := service.ExportFileName(kind, h.now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, export.ContentTypeXLSX, data)
}

func parseResultFilter(c *gin.Context) (domain.ResultFilter, error) {
	var filter domain.ResultFilter

	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseHealthStatus(raw)
		if !ok {
			return filter, fmt.Errorf("invalid status %q", raw)
		}
		filter.Status = status
	}

	if raw := c.Query("priority"); raw != "" {
		priority, ok := domain.ParsePriority(raw)
		if !ok {
			return filter, fmt.Errorf("invalid priority %q", raw)
		}
		filter.Priority = priority
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, fmt.Errorf("invalid limit %q", raw)
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		filter.Limit = limit
	}

	return filter, nil
}
