package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apporder "github.com/mosaico/backend/internal/application/order"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/mosaico/backend/internal/interfaces/http/dto"
)

// OrderCreator places new orders
type OrderCreator interface {
	Create(ctx context.Context, req apporder.CreateOrderRequest) (*apporder.OrderResponse, error)
}

// OrderLifecycle moves existing orders through their states
type OrderLifecycle interface {
	Transition(ctx context.Context, orderID uuid.UUID, req apporder.TransitionRequest) (*apporder.OrderResponse, error)
	UpdateDetails(ctx context.Context, orderID uuid.UUID, req apporder.UpdateDetailsRequest) (*apporder.OrderResponse, error)
	Confirm(ctx context.Context, orderID uuid.UUID) (*apporder.OrderResponse, error)
	StartProcessing(ctx context.Context, orderID uuid.UUID) (*apporder.OrderResponse, error)
	Ship(ctx context.Context, orderID uuid.UUID, trackingNumber string) (*apporder.OrderResponse, error)
	Deliver(ctx context.Context, orderID uuid.UUID) (*apporder.OrderResponse, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*apporder.OrderResponse, error)
	Refund(ctx context.Context, orderID uuid.UUID, reason string) (*apporder.OrderResponse, error)
}

// OrderQueries serves read-only order views
type OrderQueries interface {
	Get(ctx context.Context, orderID uuid.UUID) (*apporder.OrderResponse, error)
	GetByNumber(ctx context.Context, number string) (*apporder.OrderResponse, error)
	List(ctx context.Context, filter apporder.OrderListFilter) (*shared.Paginated[apporder.OrderListItemResponse], error)
	History(ctx context.Context, orderID uuid.UUID) ([]apporder.HistoryEntryResponse, error)
	Movements(ctx context.Context, orderID uuid.UUID) ([]apporder.MovementResponse, error)
}

// OrderHandler serves the order endpoints
type OrderHandler struct {
	BaseHandler
	creation  OrderCreator
	lifecycle OrderLifecycle
	queries   OrderQueries
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(creation OrderCreator, lifecycle OrderLifecycle, queries OrderQueries) *OrderHandler {
	return &OrderHandler{creation: creation, lifecycle: lifecycle, queries: queries}
}

// ShipRequest carries the optional carrier tracking number
type ShipRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"max=100"`
}

// ReasonRequest carries an optional free-form reason
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// Create godoc
// @Summary      Place an order
// @Description  Reserve stock for every line and create a pending order. Prices come from the catalog.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body apporder.CreateOrderRequest true "Cart"
// @Success      201 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req apporder.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	resp, err := h.creation.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Location", "/api/v1/orders/"+resp.ID.String())
	h.Created(c, resp)
}

// Get godoc
// @Summary      Get order by ID
// @Description  Retrieve an order with its items and allowed next actions
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByNumber godoc
// @Summary      Get order by order number
// @Description  Retrieve an order by its public number
// @Tags         orders
// @Produce      json
// @Param        number path string true "Order number" example("ORD-20260115-0042")
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/number/{number} [get]
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	resp, err := h.queries.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @Summary      List orders
// @Description  Paginated order list with optional filters
// @Tags         orders
// @Produce      json
// @Param        status query string false "Fulfilment status" Enums(pending, confirmed, processing, shipped, delivered, cancelled)
// @Param        payment_status query string false "Payment status" Enums(pending, completed, failed, refunded)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        search query string false "Order number fragment"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field" Enums(created_at, total_amount, order_number)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]apporder.OrderListItemResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter apporder.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	if raw := c.Query("customer_id"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			h.ValidationError(c, []dto.FieldDetail{{Field: "customer_id", Message: "must be a UUID"}})
			return
		}
		filter.CustomerID = &customerID
	}

	page, err := h.queries.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// History godoc
// @Summary      Get order history
// @Description  Status and payment transitions, oldest first
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]apporder.HistoryEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/history [get]
func (h *OrderHandler) History(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	entries, err := h.queries.History(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// Movements godoc
// @Summary      Get order stock movements
// @Description  Stock reservations and releases caused by the order, oldest first
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]apporder.MovementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/movements [get]
func (h *OrderHandler) Movements(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	movements, err := h.queries.Movements(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}

// Transition godoc
// @Summary      Transition an order
// @Description  Move exactly one of status or payment_status to its next state
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body apporder.TransitionRequest true "Target state"
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/transitions [post]
func (h *OrderHandler) Transition(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req apporder.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	req.Actor = order.ActorAdmin

	h.respond(c, func(ctx context.Context) (*apporder.OrderResponse, error) {
		return h.lifecycle.Transition(ctx, id, req)
	})
}

// UpdateDetails godoc
// @Summary      Update order details
// @Description  Set the tracking number or admin notes without a transition
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body apporder.UpdateDetailsRequest true "Details"
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/details [patch]
func (h *OrderHandler) UpdateDetails(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req apporder.UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	h.respond(c, func(ctx context.Context) (*apporder.OrderResponse, error) {
		return h.lifecycle.UpdateDetails(ctx, id, req)
	})
}

// Confirm godoc
// @Summary      Confirm an order
// @Description  pending → confirmed
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/confirm [post]
func (h *OrderHandler) Confirm(c *gin.Context) {
	h.simpleAction(c, h.lifecycle.Confirm)
}

// Process godoc
// @Summary      Start processing an order
// @Description  confirmed → processing
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/process [post]
func (h *OrderHandler) Process(c *gin.Context) {
	h.simpleAction(c, h.lifecycle.StartProcessing)
}

// Deliver godoc
// @Summary      Mark an order delivered
// @Description  shipped → delivered
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/deliver [post]
func (h *OrderHandler) Deliver(c *gin.Context) {
	h.simpleAction(c, h.lifecycle.Deliver)
}

// Ship godoc
// @Summary      Ship an order
// @Description  processing → shipped, optionally recording the tracking number
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body ShipRequest false "Tracking number"
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ShipRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	h.respond(c, func(ctx context.Context) (*apporder.OrderResponse, error) {
		return h.lifecycle.Ship(ctx, id, req.TrackingNumber)
	})
}

// Cancel godoc
// @Summary      Cancel an order
// @Description  Cancel a pending, confirmed or processing order and return its stock
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body ReasonRequest false "Reason"
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.reasonAction(c, h.lifecycle.Cancel)
}

// Refund godoc
// @Summary      Refund an order
// @Description  completed → refunded on the payment axis; returns stock if not already returned
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body ReasonRequest false "Reason"
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/refund [post]
func (h *OrderHandler) Refund(c *gin.Context) {
	h.reasonAction(c, h.lifecycle.Refund)
}

func (h *OrderHandler) simpleAction(c *gin.Context, action func(context.Context, uuid.UUID) (*apporder.OrderResponse, error)) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*apporder.OrderResponse, error) {
		return action(ctx, id)
	})
}

func (h *OrderHandler) reasonAction(c *gin.Context, action func(context.Context, uuid.UUID, string) (*apporder.OrderResponse, error)) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ReasonRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	h.respond(c, func(ctx context.Context) (*apporder.OrderResponse, error) {
		return action(ctx, id, req.Reason)
	})
}

func (h *OrderHandler) respond(c *gin.Context, call func(context.Context) (*apporder.OrderResponse, error)) {
	resp, err := call(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
