package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/api/middleware"
	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/internal/repository"
	"github.com/jafarshop/dropshipapi/internal/service"
	"github.com/jafarshop/dropshipapi/internal/supplierclient"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

// CancelOrderRequest represents cancel order request
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DropshipOrderResponse represents the dropship order response
type DropshipOrderResponse struct {
	ID                 string                      `json:"id"`
	OrderID            string                      `json:"order_id"`
	SupplierID         string                      `json:"supplier_id"`
	Status             domain.DropshipOrderStatus  `json:"status"`
	TotalCost          int64                       `json:"total_cost"`
	TotalRetail        int64                       `json:"total_retail"`
	ProfitMargin       int64                       `json:"profit_margin"`
	ShippingAddress    map[string]interface{}      `json:"shipping_address"`
	SupplierOrderID    *string                     `json:"supplier_order_id,omitempty"`
	TrackingNumber     *string                     `json:"tracking_number,omitempty"`
	Carrier            *string                     `json:"carrier,omitempty"`
	EstimatedDelivery  *string                     `json:"estimated_delivery,omitempty"`
	SentAt             *string                     `json:"sent_at,omitempty"`
	IntegrationType    *domain.IntegrationType     `json:"integration_type,omitempty"`
	RetryCount         int                         `json:"retry_count"`
	MaxRetryAttempts   int                         `json:"max_retry_attempts"`
	AutoRetryEnabled   bool                        `json:"auto_retry_enabled"`
	CancellationReason *string                     `json:"cancellation_reason,omitempty"`
	Notes              *string                     `json:"notes,omitempty"`
	Items              []DropshipOrderItemResponse `json:"items,omitempty"`
	CreatedAt          string                      `json:"created_at"`
	UpdatedAt          string                      `json:"updated_at"`
}

type DropshipOrderItemResponse struct {
	ID                string `json:"id"`
	OrderItemID       string `json:"order_item_id"`
	SupplierProductID string `json:"supplier_product_id"`
	SupplierSKU       string `json:"supplier_sku"`
	Quantity          int    `json:"quantity"`
	SupplierPrice     int64  `json:"supplier_price"`
	RetailPrice       int64  `json:"retail_price"`
	ProfitPerItem     int64  `json:"profit_per_item"`
	Status            string `json:"status"`
}

// OrderEventResponse represents an audit event in the response
type OrderEventResponse struct {
	ID        string                 `json:"id"`
	EventType string                 `json:"event_type"`
	ActorID   *string                `json:"actor_id,omitempty"`
	EventData map[string]interface{} `json:"event_data,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

func toDropshipOrderResponse(o *domain.DropshipOrder, items []*domain.DropshipOrderItem) DropshipOrderResponse {
	resp := DropshipOrderResponse{
		ID:                 o.ID.String(),
		OrderID:            o.OrderID.String(),
		SupplierID:         o.SupplierID.String(),
		Status:             o.Status,
		TotalCost:          o.TotalCost,
		TotalRetail:        o.TotalRetail,
		ProfitMargin:       o.ProfitMargin,
		ShippingAddress:    o.ShippingAddress,
		SupplierOrderID:    o.SupplierOrderID,
		TrackingNumber:     o.TrackingNumber,
		Carrier:            o.Carrier,
		IntegrationType:    o.IntegrationType,
		RetryCount:         o.RetryCount,
		MaxRetryAttempts:   o.MaxRetryAttempts,
		AutoRetryEnabled:   o.AutoRetryEnabled,
		CancellationReason: o.CancellationReason,
		Notes:              o.Notes,
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          o.UpdatedAt.Format(time.RFC3339),
	}

	if o.EstimatedDelivery != nil {
		s := o.EstimatedDelivery.Format(time.RFC3339)
		resp.EstimatedDelivery = &s
	}
	if o.SentAt != nil {
		s := o.SentAt.Format(time.RFC3339)
		resp.SentAt = &s
	}

	for _, item := range items {
		resp.Items = append(resp.Items, DropshipOrderItemResponse{
			ID:                item.ID.String(),
			OrderItemID:       item.OrderItemID.String(),
			SupplierProductID: item.SupplierProductID.String(),
			SupplierSKU:       item.SupplierSKU,
			Quantity:          item.Quantity,
			SupplierPrice:     item.SupplierPrice,
			RetailPrice:       item.RetailPrice,
			ProfitPerItem:     item.ProfitPerItem,
			Status:            string(item.Status),
		})
	}

	return resp
}

func actorFromContext(c *gin.Context) *uuid.UUID {
	key, ok := middleware.GetAPIKeyFromContext(c)
	if !ok {
		return nil
	}
	return &key.ID
}

// HandleCreateDropshipOrder handles POST /v1/dropship-orders
func HandleCreateDropshipOrder(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// An already-seen idempotency key with the same payload returns the
		// original order instead of creating a duplicate.
		idemKey, requestHash, existingOrderID, isExisting := middleware.GetIdempotencyInfo(c)
		if isExisting {
			orderID, err := uuid.Parse(existingOrderID)
			if err == nil {
				order, err := repos.DropshipOrder.GetByID(c.Request.Context(), orderID)
				if err == nil {
					items, _ := repos.DropshipOrderItem.GetByOrderID(c.Request.Context(), orderID)
					c.JSON(http.StatusOK, toDropshipOrderResponse(order, items))
					return
				}
			}
			logger.Warn("Idempotency key references missing order", zap.String("order_id", existingOrderID))
		}

		var req service.CreateDropshipOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewDropshipOrderService(repos, client, logger)
		order, err := orderService.Create(c.Request.Context(), req, actorFromContext(c))
		if err != nil {
			respondOrderError(c, logger, err, "failed to create dropship order")
			return
		}

		if idemKey != "" {
			ik := &domain.IdempotencyKey{
				Key:             idemKey,
				DropshipOrderID: order.ID,
				RequestHash:     requestHash,
			}
			if err := repos.IdempotencyKey.Create(c.Request.Context(), ik); err != nil {
				logger.Warn("Failed to store idempotency key", zap.Error(err))
			}
		}

		items, _ := repos.DropshipOrderItem.GetByOrderID(c.Request.Context(), order.ID)
		c.JSON(http.StatusCreated, toDropshipOrderResponse(order, items))
	}
}

// HandleGetDropshipOrder handles GET /v1/dropship-orders/:id
func HandleGetDropshipOrder(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, err := repos.DropshipOrder.GetByID(c.Request.Context(), orderID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "dropship order not found"})
				return
			}
			logger.Error("Failed to get dropship order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		items, err := repos.DropshipOrderItem.GetByOrderID(c.Request.Context(), orderID)
		if err != nil {
			logger.Error("Failed to get order items", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toDropshipOrderResponse(order, items))
	}
}

// HandleListDropshipOrders handles GET /v1/dropship-orders
func HandleListDropshipOrders(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := parsePagination(c)
		ctx := c.Request.Context()

		var (
			orders []*domain.DropshipOrder
			err    error
		)

		switch {
		case c.Query("status") != "":
			status := domain.DropshipOrderStatus(c.Query("status"))
			if !status.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter: " + c.Query("status")})
				return
			}
			orders, err = repos.DropshipOrder.ListByStatus(ctx, status, limit, offset)
		case c.Query("supplier_id") != "":
			supplierID, parseErr := uuid.Parse(c.Query("supplier_id"))
			if parseErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier_id filter"})
				return
			}
			orders, err = repos.DropshipOrder.ListBySupplierID(ctx, supplierID, limit, offset)
		case c.Query("order_id") != "":
			orderID, parseErr := uuid.Parse(c.Query("order_id"))
			if parseErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order_id filter"})
				return
			}
			orders, err = repos.DropshipOrder.ListByOrderID(ctx, orderID)
		default:
			orders, err = repos.DropshipOrder.List(ctx, limit, offset)
		}

		if err != nil {
			logger.Error("Failed to list dropship orders", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]DropshipOrderResponse, len(orders))
		for i, order := range orders {
			responses[i] = toDropshipOrderResponse(order, nil)
		}

		c.JSON(http.StatusOK, gin.H{"dropship_orders": responses, "count": len(responses)})
	}
}

// HandleGetDropshipOrderEvents handles GET /v1/dropship-orders/:id/events
func HandleGetDropshipOrderEvents(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		if _, err := repos.DropshipOrder.GetByID(c.Request.Context(), orderID); err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "dropship order not found"})
				return
			}
			logger.Error("Failed to get dropship order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		events, err := repos.DropshipOrderEvent.GetByOrderID(c.Request.Context(), orderID)
		if err != nil {
			logger.Error("Failed to get order events", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]OrderEventResponse, len(events))
		for i, event := range events {
			resp := OrderEventResponse{
				ID:        event.ID.String(),
				EventType: event.EventType,
				EventData: event.EventData,
				CreatedAt: event.CreatedAt.Format(time.RFC3339),
			}
			if event.ActorID != nil {
				actor := event.ActorID.String()
				resp.ActorID = &actor
			}
			responses[i] = resp
		}

		c.JSON(http.StatusOK, gin.H{"events": responses, "count": len(responses)})
	}
}

// HandleSendDropshipOrder handles POST /v1/dropship-orders/:id/send
func HandleSendDropshipOrder(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		orderService := service.NewDropshipOrderService(repos, client, logger)
		order, err := orderService.SendToSupplier(c.Request.Context(), orderID, actorFromContext(c))
		if err != nil {
			respondOrderError(c, logger, err, "failed to send dropship order")
			return
		}

		c.JSON(http.StatusOK, toDropshipOrderResponse(order, nil))
	}
}

// HandleConfirmDropshipOrder handles POST /v1/dropship-orders/:id/confirm
func HandleConfirmDropshipOrder(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req service.ConfirmDropshipOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewDropshipOrderService(repos, client, logger)
		order, err := orderService.MarkAsConfirmed(c.Request.Context(), orderID, req, actorFromContext(c))
		if err != nil {
			respondOrderError(c, logger, err, "failed to confirm dropship order")
			return
		}

		c.JSON(http.StatusOK, toDropshipOrderResponse(order, nil))
	}
}

// HandleShipDropshipOrder handles POST /v1/dropship-orders/:id/ship
func HandleShipDropshipOrder(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req service.ShipDropshipOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewDropshipOrderService(repos, client, logger)
		order, err := orderService.MarkAsShipped(c.Request.Context(), orderID, req, actorFromContext(c))
		if err != nil {
			respondOrderError(c, logger, err, "failed to mark dropship order shipped")
			return
		}

		c.JSON(http.StatusOK, toDropshipOrderResponse(order, nil))
	}
}

// HandleDeliverDropshipOrder handles POST /v1/dropship-orders/:id/deliver
func HandleDeliverDropshipOrder(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		orderService := service.NewDropshipOrderService(repos, client, logger)
		order, err := orderService.MarkAsDelivered(c.Request.Context(), orderID, actorFromContext(c))
		if err != nil {
			respondOrderError(c, logger, err, "failed to mark dropship order delivered")
			return
		}

		c.JSON(http.StatusOK, toDropshipOrderResponse(order, nil))
	}
}

// HandleCancelDropshipOrder handles POST /v1/dropship-orders/:id/cancel
func HandleCancelDropshipOrder(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req CancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewDropshipOrderService(repos, client, logger)
		order, err := orderService.MarkAsCancelled(c.Request.Context(), orderID, req.Reason, actorFromContext(c))
		if err != nil {
			respondOrderError(c, logger, err, "failed to cancel dropship order")
			return
		}

		c.JSON(http.StatusOK, toDropshipOrderResponse(order, nil))
	}
}

// HandleRetryDropshipOrder handles POST /v1/dropship-orders/:id/retry
func HandleRetryDropshipOrder(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		orderService := service.NewDropshipOrderService(repos, client, logger)
		order, err := orderService.Retry(c.Request.Context(), orderID, actorFromContext(c))
		if err != nil {
			respondOrderError(c, logger, err, "failed to retry dropship order")
			return
		}

		c.JSON(http.StatusOK, toDropshipOrderResponse(order, nil))
	}
}

// HandleBulkUpdateOrderStatus handles POST /v1/dropship-orders/bulk-status
func HandleBulkUpdateOrderStatus(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.BulkStatusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewDropshipOrderService(repos, client, logger)
		result := orderService.BulkUpdateStatus(c.Request.Context(), req, actorFromContext(c))

		c.JSON(http.StatusOK, result)
	}
}

// HandleDeleteDropshipOrder handles DELETE /v1/dropship-orders/:id
func HandleDeleteDropshipOrder(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		orderService := service.NewDropshipOrderService(repos, client, logger)
		if err := orderService.Delete(c.Request.Context(), orderID, actorFromContext(c)); err != nil {
			respondOrderError(c, logger, err, "failed to delete dropship order")
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// respondOrderError maps order service errors onto HTTP statuses
func respondOrderError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	switch err.(type) {
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case *errors.ErrValidation:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case *errors.ErrInvalidStateTransition:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case *errors.ErrRetryNotAllowed:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case *errors.ErrConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
