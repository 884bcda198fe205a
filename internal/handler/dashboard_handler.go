package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wset-admin-api/internal/dto"
	"github.com/noah-isme/wset-admin-api/internal/middleware"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
	"github.com/noah-isme/wset-admin-api/pkg/export"
	"github.com/noah-isme/wset-admin-api/pkg/response"
)

type dashboardService interface {
	GetDashboardData(ctx context.Context) (*dto.DashboardData, error)
	Statistics(ctx context.Context, from, to time.Time) (*dto.WorkflowStatistics, bool, error)
	ExportDeadlineBoard(ctx context.Context, format export.Format) (*export.Document, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
	now     func() time.Time
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service, now: time.Now}
}

// Overview godoc
// @Summary Workflow dashboard
// @Description Aggregates every workflow with fresh deadline validations. A failed load still answers 200 with empty data and meta.degraded set.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	data, err := h.service.GetDashboardData(c.Request.Context())
	if err != nil {
		if data == nil {
			response.Error(c, err)
			return
		}
		_ = c.Error(err)
		middleware.SetDegraded(c, appErrors.FromError(err).Message)
	}
	response.JSON(c, http.StatusOK, data, nil, middleware.StampProcessingTime(c, start))
}

// Statistics godoc
// @Summary Workflow throughput statistics
// @Tags Dashboard
// @Produce json
// @Param from query string false "Range start (YYYY-MM-DD or RFC3339). Defaults to 30 days ago"
// @Param to query string false "Range end, exclusive. Defaults to now"
// @Success 200 {object} response.Envelope
// @Router /dashboard/statistics [get]
func (h *DashboardHandler) Statistics(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	now := h.now().UTC()
	to, err := parseRangeParam(c.Query("to"), now)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to, expected YYYY-MM-DD or RFC3339"))
		return
	}
	from, err := parseRangeParam(c.Query("from"), to.AddDate(0, 0, -30))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from, expected YYYY-MM-DD or RFC3339"))
		return
	}
	stats, cacheHit, err := h.service.Statistics(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export the deadline board
// @Tags Dashboard
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /dashboard/export [get]
func (h *DashboardHandler) Export(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	doc, err := h.service.ExportDeadlineBoard(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Content)
}

func parseRangeParam(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
