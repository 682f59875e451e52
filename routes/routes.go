package routes

import (
	"pos-order-service/controllers"
	"pos-order-service/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all order, register, auth and sync routes.
func RegisterRoutes(r *gin.Engine,
	oc *controllers.OrderController,
	rc *controllers.RegisterController,
	ac *controllers.AuthController,
	sc *controllers.SyncController,
) {
	orders := r.Group("/orders")
	orders.Use(middleware.AuthMiddleware())
	orders.POST("", oc.CreateOrder)
	orders.GET("", oc.ListActiveOrders)
	orders.GET("/:id", oc.GetOrder)
	orders.PATCH("/:id/status", oc.UpdateOrderStatus)
	orders.POST("/:id/amendments", oc.ProposeAmendment)
	orders.POST("/:id/amendments/respond", oc.RespondToAmendment)
	orders.PATCH("/:id/financials", oc.UpdateOrderFinancials)
	orders.POST("/:id/payment", oc.CompletePayment)
	orders.POST("/:id/cancel", oc.CancelOrder)

	register := r.Group("/register")
	register.Use(middleware.AuthMiddleware())
	register.POST("/open", rc.OpenRegister)
	register.POST("/cash-logs", rc.AddCashLog)
	register.POST("/close", middleware.ManagerOnly(), rc.CloseRegister)

	auth := r.Group("/auth")
	auth.Use(middleware.AuthMiddleware())
	auth.POST("/verify-pin", ac.VerifyManagerPin)

	sync := r.Group("/sync")
	sync.Use(middleware.AuthMiddleware())
	sync.POST("", sc.SyncOrders)
	sync.POST("/mutations", sc.EnqueueMutation)
	sync.POST("/reconnect", sc.NotifyReconnect)
}
