package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/interfaces/http/middleware"
)

// RegisterRoutes mounts the order endpoints. Checkout and lookups are open;
// everything that changes an existing order runs as the admin actor.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	orders.POST("", h.Create)
	orders.GET("", h.List)
	orders.GET("/number/:number", h.GetByNumber)
	orders.GET("/:id", h.Get)
	orders.GET("/:id/history", h.History)
	orders.GET("/:id/movements", h.Movements)

	admin := orders.Group("/:id", middleware.Actor(string(order.ActorAdmin)))
	admin.POST("/transitions", h.Transition)
	admin.PATCH("/details", h.UpdateDetails)
	admin.POST("/confirm", h.Confirm)
	admin.POST("/process", h.Process)
	admin.POST("/ship", h.Ship)
	admin.POST("/deliver", h.Deliver)
	admin.POST("/cancel", h.Cancel)
	admin.POST("/refund", h.Refund)
}

// RegisterRoutes mounts the payment feed endpoint
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments", middleware.Actor(string(order.ActorPaymentFeed)))
	payments.POST("/notifications", h.Notify)
}
