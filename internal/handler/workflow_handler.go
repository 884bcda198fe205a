package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wset-admin-api/internal/dto"
	"github.com/noah-isme/wset-admin-api/internal/models"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
	"github.com/noah-isme/wset-admin-api/pkg/response"
)

type workflowQueryService interface {
	RequiringReview(ctx context.Context, page, pageSize int) ([]models.WorkflowDetail, *models.Pagination, error)
	ByStatus(ctx context.Context, statuses []models.WorkflowStatus, page, pageSize int) ([]models.WorkflowDetail, *models.Pagination, error)
}

type workflowLogService interface {
	UpdateWorkflowState(ctx context.Context, id string, update dto.WorkflowUpdate, entry *models.WorkflowLogEntry) (*models.WorkflowState, error)
	WorkflowLogs(ctx context.Context, workflowStateID string, page, pageSize int) ([]models.WorkflowLogEntry, *models.Pagination, error)
	RecentActivity(ctx context.Context, page, pageSize int) ([]models.WorkflowActivity, *models.Pagination, error)
}

// WorkflowHandler exposes workflow listing, updates and audit trails to staff.
type WorkflowHandler struct {
	queries workflowQueryService
	logs    workflowLogService
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(queries workflowQueryService, logs workflowLogService) *WorkflowHandler {
	return &WorkflowHandler{queries: queries, logs: logs}
}

// List godoc
// @Summary List workflows
// @Tags Workflows
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param review query bool false "Only workflows requiring manual review"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /workflows [get]
func (h *WorkflowHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	if strings.EqualFold(strings.TrimSpace(c.Query("review")), "true") {
		items, pagination, err := h.queries.RequiringReview(c.Request.Context(), page, size)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, items, pagination)
		return
	}

	var statuses []models.WorkflowStatus
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			statuses = append(statuses, models.WorkflowStatus(strings.ToLower(raw)))
		}
	}
	items, pagination, err := h.queries.ByStatus(c.Request.Context(), statuses, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Update godoc
// @Summary Update a workflow
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow state ID"
// @Param payload body dto.UpdateWorkflowRequest true "Partial update"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /workflows/{id} [patch]
func (h *WorkflowHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid workflow update payload"))
		return
	}
	update, err := toWorkflowUpdate(req)
	if err != nil {
		response.Error(c, err)
		return
	}

	var entry *models.WorkflowLogEntry
	if req.Log != nil {
		performedBy := claims.UserID
		entry = &models.WorkflowLogEntry{
			Action:      models.WorkflowAction(strings.ToLower(strings.TrimSpace(req.Log.Action))),
			ExamOrderID: req.Log.ExamOrderID,
			Details:     req.Log.Details,
			PerformedBy: &performedBy,
		}
	}

	state, err := h.logs.UpdateWorkflowState(c.Request.Context(), c.Param("id"), update, entry)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Logs godoc
// @Summary Workflow audit trail
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow state ID"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/logs [get]
func (h *WorkflowHandler) Logs(c *gin.Context) {
	page, size := pageParams(c)
	entries, pagination, err := h.logs.WorkflowLogs(c.Request.Context(), c.Param("id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Activity godoc
// @Summary Recent workflow activity
// @Tags Workflows
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /activity [get]
func (h *WorkflowHandler) Activity(c *gin.Context) {
	page, size := pageParams(c)
	activity, pagination, err := h.logs.RecentActivity(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, pagination)
}

func toWorkflowUpdate(req dto.UpdateWorkflowRequest) (dto.WorkflowUpdate, error) {
	var update dto.WorkflowUpdate
	if req.Status != nil {
		status := models.WorkflowStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		update.Status = &status
	}
	if req.Step != nil {
		done := true
		if req.StepDone != nil {
			done = *req.StepDone
		}
		update.Step = &dto.StepUpdate{
			Step: models.WorkflowStep(strings.ToLower(strings.TrimSpace(*req.Step))),
			Done: done,
		}
	} else if req.StepDone != nil {
		return update, appErrors.Clone(appErrors.ErrValidation, "stepDone requires step")
	}
	if req.RequiresReview != nil {
		update.Review = &dto.ReviewUpdate{Required: *req.RequiresReview, Reason: req.ReviewReason}
	} else if req.ReviewReason != nil {
		return update, appErrors.Clone(appErrors.ErrValidation, "reviewReason requires requiresReview")
	}
	update.Error = req.Error
	if update.Status == nil && update.Step == nil && update.Review == nil && update.Error == nil {
		return update, appErrors.Clone(appErrors.ErrValidation, "update must change at least one field")
	}
	return update, nil
}
