package controllers

import (
	"net/http"

	"pos-order-service/models"
	"pos-order-service/services"

	"github.com/gin-gonic/gin"
)

// AuthController handles manager override PIN verification.
type AuthController struct {
	authService services.AuthService
}

// NewAuthController creates a new AuthController.
func NewAuthController(authService services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// VerifyManagerPin handles POST /auth/verify-pin.
func (ac *AuthController) VerifyManagerPin(ctx *gin.Context) {
	tenantID, _, ok := scope(ctx)
	if !ok {
		return
	}

	var req models.VerifyPinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if svcErr := ac.authService.VerifyManagerPin(ctx.Request.Context(), tenantID, req.Pin); svcErr != nil {
		writeServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"verified": true})
}
