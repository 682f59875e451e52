package controllers

import (
	"net/http"

	"pos-order-service/models"
	"pos-order-service/services"

	"github.com/gin-gonic/gin"
)

// RegisterController handles HTTP requests for the till ledger.
type RegisterController struct {
	registerService services.RegisterService
}

// NewRegisterController creates a new RegisterController.
func NewRegisterController(registerService services.RegisterService) *RegisterController {
	return &RegisterController{registerService: registerService}
}

// OpenRegister handles POST /register/open.
func (rc *RegisterController) OpenRegister(ctx *gin.Context) {
	tenantID, _, ok := scope(ctx)
	if !ok {
		return
	}

	var req models.OpenRegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, svcErr := rc.registerService.OpenRegister(ctx.Request.Context(), tenantID, req.OpeningBalance)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"session": session})
}

// AddCashLog handles POST /register/cash-logs.
func (rc *RegisterController) AddCashLog(ctx *gin.Context) {
	tenantID, _, ok := scope(ctx)
	if !ok {
		return
	}

	var req models.CashLogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, svcErr := rc.registerService.AddCashLog(ctx.Request.Context(), tenantID, req.Amount, req.Reason)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": session})
}

// CloseRegister handles POST /register/close.
func (rc *RegisterController) CloseRegister(ctx *gin.Context) {
	tenantID, _, ok := scope(ctx)
	if !ok {
		return
	}

	session, svcErr := rc.registerService.CloseRegister(ctx.Request.Context(), tenantID)
	if svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": session})
}
