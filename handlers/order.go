package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"shop-api/enrich"
	"shop-api/events"
	"shop-api/middleware"
	"shop-api/models"
	"shop-api/pricing"
	"shop-api/store"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders   *store.OrderStore
	pricer   *pricing.Engine
	enricher *enrich.Enricher
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewOrderHandler wires the order endpoints. producer may be nil; order
// lifecycle events are then skipped.
func NewOrderHandler(
	orders *store.OrderStore,
	pricer *pricing.Engine,
	enricher *enrich.Enricher,
	producer sarama.SyncProducer,
	topic string,
	logger *zap.Logger,
) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		pricer:   pricer,
		enricher: enricher,
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

func (h *OrderHandler) Create(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "CreateOrder")
	defer span.End()

	actor := middleware.ActorID(c)
	if actor == nil {
		c.JSON(http.StatusUnauthorized, models.APIResponse{Success: false, Message: "Authentication required"})
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: err.Error()})
		return
	}

	if len(req.Products) == 0 {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Products array is required",
		})
		return
	}

	items, ok := validateLineItems(req.Products)
	if !ok {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Each product must include product_id and quantity > 0",
		})
		return
	}

	totals, err := h.pricer.ComputeTotals(ctx, items)
	if err != nil {
		h.pricingError(c, err, "Failed to create order")
		return
	}

	status := true
	if req.Status != nil {
		status = *req.Status
	}

	order, err := h.orders.Create(ctx, store.NewOrder{
		UserID:      *actor,
		Items:       items,
		TotalAmount: totals.TotalAmount,
		Status:      status,
		CreatedBy:   actor,
	})
	if err != nil {
		h.serverError(c, err, "Failed to create order")
		return
	}

	span.SetAttributes(
		attribute.Int("order.id", order.OrderID),
		attribute.Float64("order.total", order.TotalAmount),
	)
	middleware.RecordOrderCreated("success")
	h.publish(ctx, events.OrderCreated, order, actor)

	h.logger.Info("Order created",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.Int("order_id", order.OrderID),
	)
	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Message: "Order created successfully",
		Data: models.OrderWriteData{
			Order: order,
			Summary: &models.OrderSummary{
				TotalAmount: totals.TotalAmount,
				Products:    totals.Details,
			},
		},
	})
}

func (h *OrderHandler) Update(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "UpdateOrder")
	defer span.End()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: "Invalid order id"})
		return
	}
	span.SetAttributes(attribute.Int("order.id", orderID))

	var req models.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: err.Error()})
		return
	}

	existing, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Message: "Order not found"})
			return
		}
		h.serverError(c, err, "Failed to update order")
		return
	}

	// An empty or omitted products list keeps the stored line items;
	// the total is still recomputed against the current catalog.
	var items []models.LineItem
	if len(req.Products) > 0 {
		var ok bool
		items, ok = validateLineItems(req.Products)
		if !ok {
			c.JSON(http.StatusBadRequest, models.APIResponse{
				Success: false,
				Message: "Each product must include product_id and quantity > 0",
			})
			return
		}
	} else {
		items = existing.Products
	}

	totals, err := h.pricer.ComputeTotals(ctx, items)
	if err != nil {
		h.pricingError(c, err, "Failed to update order")
		return
	}

	actor := middleware.ActorID(c)
	order, err := h.orders.Update(ctx, orderID, store.OrderPatch{
		Items:       items,
		TotalAmount: totals.TotalAmount,
		Status:      req.Status,
		UpdatedBy:   actor,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Message: "Order not found"})
			return
		}
		h.serverError(c, err, "Failed to update order")
		return
	}

	h.publish(ctx, events.OrderUpdated, order, actor)

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Order updated successfully",
		Data: models.OrderWriteData{
			Order: order,
			Summary: &models.OrderSummary{
				TotalAmount: totals.TotalAmount,
				Products:    totals.Details,
			},
		},
	})
}

func (h *OrderHandler) Delete(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "DeleteOrder")
	defer span.End()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: "Invalid order id"})
		return
	}
	span.SetAttributes(attribute.Int("order.id", orderID))

	actor := middleware.ActorID(c)
	order, err := h.orders.SoftDelete(ctx, orderID, actor)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Message: "Order not found"})
			return
		}
		h.serverError(c, err, "Failed to delete order")
		return
	}

	h.publish(ctx, events.OrderDeleted, order, actor)

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Order deleted successfully",
		Data:    order,
	})
}

func (h *OrderHandler) GetByID(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "GetOrder")
	defer span.End()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: "Invalid order id"})
		return
	}
	span.SetAttributes(attribute.Int("order.id", orderID))

	order, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Message: "Order not found"})
			return
		}
		h.serverError(c, err, "Failed to fetch order")
		return
	}

	enriched, err := h.enricher.Order(ctx, *order)
	if err != nil {
		h.serverError(c, err, "Failed to fetch order")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Order fetched successfully",
		Data:    enriched,
	})
}

func (h *OrderHandler) GetAll(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "GetAllOrders")
	defer span.End()

	orders, err := h.orders.ListActive(ctx)
	if err != nil {
		h.serverError(c, err, "Failed to fetch orders")
		return
	}

	enriched, err := h.enricher.Orders(ctx, orders)
	if err != nil {
		h.serverError(c, err, "Failed to fetch orders")
		return
	}

	span.SetAttributes(attribute.Int("orders.count", len(enriched)))
	count := len(enriched)
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Orders fetched successfully",
		Data:    enriched,
		Count:   &count,
	})
}

// validateLineItems enforces the boundary rule: every item carries a
// product_id and a positive quantity, or the whole request is rejected.
func validateLineItems(reqs []models.LineItemRequest) ([]models.LineItem, bool) {
	items := make([]models.LineItem, 0, len(reqs))
	for _, r := range reqs {
		if r.ProductID == nil || r.Quantity == nil || *r.Quantity <= 0 {
			return nil, false
		}
		items = append(items, models.LineItem{
			ProductID: *r.ProductID,
			Quantity:  *r.Quantity,
		})
	}
	return items, true
}

func (h *OrderHandler) pricingError(c *gin.Context, err error, fallback string) {
	var notFound *pricing.ProductNotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, models.APIResponse{
			Success: false,
			Message: notFound.Error(),
		})
		return
	}
	h.serverError(c, err, fallback)
}

func (h *OrderHandler) publish(ctx context.Context, eventType string, order *models.Order, actor *int) {
	if h.producer == nil {
		return
	}
	event := events.EntityEvent{
		EventType:   eventType,
		Entity:      "order",
		EntityID:    order.OrderID,
		Actor:       actor,
		TotalAmount: order.TotalAmount,
	}
	if err := events.Publish(ctx, h.producer, h.topic, event, h.logger); err != nil {
		// Never fail the request over an event.
		h.logger.Error("Failed to publish order event", zap.String("event_type", eventType), zap.Error(err))
	}
}

func (h *OrderHandler) serverError(c *gin.Context, err error, message string) {
	trace.SpanFromContext(c.Request.Context()).RecordError(err)
	h.logger.Error(message,
		zap.String("trace_id", middleware.GetTraceID(c.Request.Context())),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, models.APIResponse{
		Success: false,
		Message: message,
	})
}
