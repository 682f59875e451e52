package controllers

import (
	"net/http"

	"pos-order-service/models"
	"pos-order-service/services"

	"github.com/gin-gonic/gin"
)

// SyncController handles terminal synchronization requests.
type SyncController struct {
	syncService services.SyncService
}

// NewSyncController creates a new SyncController.
func NewSyncController(syncService services.SyncService) *SyncController {
	return &SyncController{syncService: syncService}
}

// EnqueueMutation handles POST /sync/mutations.
func (sc *SyncController) EnqueueMutation(ctx *gin.Context) {
	tenantID, actorID, ok := scope(ctx)
	if !ok {
		return
	}

	var req models.EnqueueMutationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if svcErr := sc.syncService.EnqueueMutation(ctx.Request.Context(), tenantID, actorID, &req); svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"message": "Mutation queued"})
}

// SyncOrders handles POST /sync.
func (sc *SyncController) SyncOrders(ctx *gin.Context) {
	tenantID, actorID, ok := scope(ctx)
	if !ok {
		return
	}

	result, svcErr := sc.syncService.SyncOrders(ctx.Request.Context(), tenantID, actorID)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"result": result})
}

// NotifyReconnect handles POST /sync/reconnect.
func (sc *SyncController) NotifyReconnect(ctx *gin.Context) {
	tenantID, actorID, ok := scope(ctx)
	if !ok {
		return
	}

	sc.syncService.NotifyReconnect(tenantID, actorID)
	ctx.JSON(http.StatusAccepted, gin.H{"message": "Flush scheduled"})
}
