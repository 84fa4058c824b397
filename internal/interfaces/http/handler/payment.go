package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	apporder "github.com/mosaico/backend/internal/application/order"
)

// PaymentNotifier applies payment gateway notifications
type PaymentNotifier interface {
	Handle(ctx context.Context, n apporder.PaymentNotification) (*apporder.PaymentNotificationResult, error)
}

// PaymentHandler receives the payment status feed
type PaymentHandler struct {
	BaseHandler
	notifications PaymentNotifier
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(notifications PaymentNotifier) *PaymentHandler {
	return &PaymentHandler{notifications: notifications}
}

// Notify godoc
// @Summary      Receive a payment notification
// @Description  Apply a payment status change from the gateway. Redelivered notifications
// @Description  are acknowledged with 200 and duplicate=true so the gateway stops retrying.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body apporder.PaymentNotification true "Notification"
// @Success      200 {object} dto.Response{data=apporder.PaymentNotificationResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/notifications [post]
func (h *PaymentHandler) Notify(c *gin.Context) {
	var n apporder.PaymentNotification
	if err := c.ShouldBindJSON(&n); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := h.notifications.Handle(c.Request.Context(), n)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
