package controllers

import (
	"net/http"

	"pos-order-service/middleware"
	"pos-order-service/models"
	"pos-order-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderController handles HTTP requests for the order lifecycle.
type OrderController struct {
	orderService     services.OrderService
	amendmentService services.AmendmentService
	paymentService   services.PaymentService
}

// NewOrderController creates a new OrderController.
func NewOrderController(orderService services.OrderService, amendmentService services.AmendmentService, paymentService services.PaymentService) *OrderController {
	return &OrderController{
		orderService:     orderService,
		amendmentService: amendmentService,
		paymentService:   paymentService,
	}
}

// scope pulls the tenant and actor identity the middleware attached.
func scope(ctx *gin.Context) (uuid.UUID, string, bool) {
	tenantID, err := middleware.GetTenantID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, "", false
	}
	actorID, err := middleware.GetActorID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, "", false
	}
	return tenantID, actorID, true
}

func orderParam(ctx *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return uuid.Nil, false
	}
	return orderID, true
}

func writeServiceError(ctx *gin.Context, svcErr *services.ServiceError) {
	body := gin.H{"error": svcErr.Message}
	if svcErr.Code != "" {
		body["code"] = svcErr.Code
	}
	ctx.JSON(svcErr.StatusCode, body)
}

// CreateOrder handles POST /orders.
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	tenantID, actorID, ok := scope(ctx)
	if !ok {
		return
	}

	var req models.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.CreateOrder(ctx.Request.Context(), tenantID, actorID, &req)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"order": order})
}

// ListActiveOrders handles GET /orders.
func (oc *OrderController) ListActiveOrders(ctx *gin.Context) {
	tenantID, _, ok := scope(ctx)
	if !ok {
		return
	}

	orders, svcErr := oc.orderService.ListActiveOrders(ctx.Request.Context(), tenantID)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder handles GET /orders/:id.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	tenantID, _, ok := scope(ctx)
	if !ok {
		return
	}
	orderID, ok := orderParam(ctx)
	if !ok {
		return
	}

	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), tenantID, orderID)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus handles PATCH /orders/:id/status.
func (oc *OrderController) UpdateOrderStatus(ctx *gin.Context) {
	tenantID, actorID, ok := scope(ctx)
	if !ok {
		return
	}
	orderID, ok := orderParam(ctx)
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.UpdateOrderStatus(ctx.Request.Context(), tenantID, orderID, actorID, req.Status)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// ProposeAmendment handles POST /orders/:id/amendments.
func (oc *OrderController) ProposeAmendment(ctx *gin.Context) {
	tenantID, actorID, ok := scope(ctx)
	if !ok {
		return
	}
	orderID, ok := orderParam(ctx)
	if !ok {
		return
	}

	var req models.ProposeAmendmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.amendmentService.ProposeAmendment(ctx.Request.Context(), tenantID, orderID, actorID, req.Ops)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// RespondToAmendment handles POST /orders/:id/amendments/respond.
func (oc *OrderController) RespondToAmendment(ctx *gin.Context) {
	tenantID, actorID, ok := scope(ctx)
	if !ok {
		return
	}
	orderID, ok := orderParam(ctx)
	if !ok {
		return
	}

	var req models.RespondAmendmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.amendmentService.RespondToAmendment(ctx.Request.Context(), tenantID, orderID, actorID, req.Approve)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderFinancials handles PATCH /orders/:id/financials.
func (oc *OrderController) UpdateOrderFinancials(ctx *gin.Context) {
	tenantID, actorID, ok := scope(ctx)
	if !ok {
		return
	}
	orderID, ok := orderParam(ctx)
	if !ok {
		return
	}

	var req models.FinancialAdjustments
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.UpdateOrderFinancials(ctx.Request.Context(), tenantID, orderID, actorID, &req)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// CompletePayment handles POST /orders/:id/payment.
func (oc *OrderController) CompletePayment(ctx *gin.Context) {
	tenantID, actorID, ok := scope(ctx)
	if !ok {
		return
	}
	orderID, ok := orderParam(ctx)
	if !ok {
		return
	}

	var req models.CompletePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.paymentService.CompletePayment(ctx.Request.Context(), tenantID, orderID, actorID, middleware.GetRole(ctx), &req)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder handles POST /orders/:id/cancel (manager-gated by PIN).
func (oc *OrderController) CancelOrder(ctx *gin.Context) {
	tenantID, actorID, ok := scope(ctx)
	if !ok {
		return
	}
	orderID, ok := orderParam(ctx)
	if !ok {
		return
	}

	var req models.VerifyPinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.CancelOrder(ctx.Request.Context(), tenantID, orderID, actorID, req.Pin)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}
