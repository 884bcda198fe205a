package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wset-admin-api/internal/models"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
	"github.com/noah-isme/wset-admin-api/pkg/response"
)

type orderService interface {
	ProcessOrder(ctx context.Context, order models.Order) (*models.ProcessOrderResult, error)
	ReprocessOrder(ctx context.Context, orderID, performedBy string) (*models.WorkflowState, error)
}

// OrderHandler receives storefront orders and staff reprocessing requests.
type OrderHandler struct {
	service orderService
}

// NewOrderHandler constructs the handler.
func NewOrderHandler(service orderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Webhook godoc
// @Summary Receive an order from the storefront
// @Tags Orders
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string false "sha256=<hex HMAC of the body>"
// @Param payload body models.Order true "Order payload"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope "Order already processed"
// @Failure 422 {object} response.Envelope
// @Router /orders/webhook [post]
func (h *OrderHandler) Webhook(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "order intake not configured"))
		return
	}
	var order models.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid order payload"))
		return
	}
	result, err := h.service.ProcessOrder(c.Request.Context(), order)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	response.JSON(c, status, result, nil)
}

// Reprocess godoc
// @Summary Restart a failed order workflow
// @Tags Orders
// @Produce json
// @Param orderId path string true "Source order ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /orders/{orderId}/reprocess [post]
func (h *OrderHandler) Reprocess(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "order intake not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	orderID := strings.TrimSpace(c.Param("orderId"))
	if orderID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "orderId is required"))
		return
	}
	state, err := h.service.ReprocessOrder(c.Request.Context(), orderID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}
