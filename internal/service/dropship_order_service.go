package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/internal/repository"
	"github.com/jafarshop/dropshipapi/internal/supplierclient"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

type dropshipOrderService struct {
	repos  *repository.Repositories
	client supplierclient.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewDropshipOrderService creates a new dropship order service
func NewDropshipOrderService(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) *dropshipOrderService {
	return &dropshipOrderService{
		repos:  repos,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Create routes a subset of an internal order's items to a supplier. The
// order and its items are persisted in one transaction; totals are derived
// from the item lines.
func (s *dropshipOrderService) Create(ctx context.Context, req CreateDropshipOrderRequest, actorID *uuid.UUID) (*domain.DropshipOrder, error) {
	supplier, err := s.repos.Supplier.GetByID(ctx, req.SupplierID)
	if err != nil {
		return nil, err
	}
	if !supplier.IsActive() {
		return nil, &errors.ErrValidation{Message: fmt.Sprintf("supplier %s is inactive", supplier.ID)}
	}

	maxRetries := req.MaxRetryAttempts
	if maxRetries <= 0 {
		maxRetries = 3
	}

	order := &domain.DropshipOrder{
		OrderID:          req.OrderID,
		SupplierID:       req.SupplierID,
		Status:           domain.DropshipOrderStatusPending,
		ShippingAddress:  req.ShippingAddress,
		AutoRetryEnabled: req.AutoRetryEnabled,
		MaxRetryAttempts: maxRetries,
		Notes:            req.Notes,
	}

	items := make([]*domain.DropshipOrderItem, 0, len(req.Items))
	for _, input := range req.Items {
		sp, err := s.repos.SupplierProduct.GetByID(ctx, input.SupplierProductID)
		if err != nil {
			return nil, err
		}
		if sp.SupplierID != req.SupplierID {
			return nil, &errors.ErrValidation{
				Message: fmt.Sprintf("supplier product %s does not belong to supplier %s", sp.ID, req.SupplierID),
			}
		}
		if input.Quantity < sp.MinimumOrderQuantity {
			return nil, &errors.ErrValidation{
				Message: fmt.Sprintf("quantity %d below minimum order quantity %d for %s", input.Quantity, sp.MinimumOrderQuantity, sp.SupplierSKU),
			}
		}

		retailPrice := input.RetailPrice
		if retailPrice == 0 && sp.RetailPrice != nil {
			retailPrice = *sp.RetailPrice
		}

		item := &domain.DropshipOrderItem{
			OrderItemID:       input.OrderItemID,
			SupplierProductID: sp.ID,
			SupplierSKU:       sp.SupplierSKU,
			Quantity:          input.Quantity,
			SupplierPrice:     sp.SupplierPrice,
			RetailPrice:       retailPrice,
			ProfitPerItem:     retailPrice - sp.SupplierPrice,
			Status:            domain.DropshipOrderStatusPending,
			ProductDetails: map[string]interface{}{
				"name":         sp.Name,
				"supplier_sku": sp.SupplierSKU,
			},
		}
		items = append(items, item)

		order.TotalCost += sp.SupplierPrice * int64(input.Quantity)
		order.TotalRetail += retailPrice * int64(input.Quantity)
	}
	order.ProfitMargin = order.TotalRetail - order.TotalCost

	if err := s.repos.DropshipOrder.CreateWithItems(ctx, order, items); err != nil {
		return nil, err
	}

	s.logEvent(ctx, order.ID, "order_created", actorID, map[string]interface{}{
		"order_id":    req.OrderID.String(),
		"supplier_id": req.SupplierID.String(),
		"status":      order.Status,
		"item_count":  len(items),
	})

	return order, nil
}

// SendToSupplier transmits a pending order over the supplier's active
// integration and marks it sent.
func (s *dropshipOrderService) SendToSupplier(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID) (*domain.DropshipOrder, error) {
	order, err := s.repos.DropshipOrder.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != domain.DropshipOrderStatusPending {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(domain.DropshipOrderStatusSentToSupplier),
		}
	}

	supplier, err := s.repos.Supplier.GetByID(ctx, order.SupplierID)
	if err != nil {
		return nil, err
	}
	if !supplier.IsActive() {
		return nil, &errors.ErrValidation{Message: fmt.Sprintf("supplier %s is inactive", supplier.ID)}
	}

	integration, err := s.repos.SupplierIntegration.GetActiveBySupplierID(ctx, order.SupplierID)
	if err != nil {
		return nil, err
	}

	items, err := s.repos.DropshipOrderItem.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	payload := supplierclient.OrderPayload{
		Reference:       order.ID.String(),
		ShippingAddress: order.ShippingAddress,
		Items:           make([]supplierclient.OrderPayloadItem, 0, len(items)),
	}
	for _, item := range items {
		payload.Items = append(payload.Items, supplierclient.OrderPayloadItem{
			SupplierSKU: item.SupplierSKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.SupplierPrice,
		})
	}

	if integration.IsAutomated() {
		if _, err := s.client.PlaceOrder(ctx, integration, payload); err != nil {
			s.logger.Error("Failed to place order with supplier",
				zap.String("dropship_order_id", orderID.String()),
				zap.Error(err),
			)
			s.logEvent(ctx, orderID, "send_failed", actorID, map[string]interface{}{
				"error": err.Error(),
			})
			return nil, err
		}
	}

	now := s.now()
	oldStatus := order.Status
	order.Status = domain.DropshipOrderStatusSentToSupplier
	order.SentAt = &now
	order.IntegrationType = &integration.IntegrationType

	if err := s.repos.DropshipOrder.Update(ctx, order); err != nil {
		return nil, err
	}

	s.logStatusChange(ctx, orderID, oldStatus, order.Status, actorID, map[string]interface{}{
		"integration_type": integration.IntegrationType,
	})

	return order, nil
}

// MarkAsConfirmed records the supplier's acknowledgement. Tolerates any
// non-terminal prior state; suppliers sometimes confirm before the send is
// recorded on our side.
func (s *dropshipOrderService) MarkAsConfirmed(ctx context.Context, orderID uuid.UUID, req ConfirmDropshipOrderRequest, actorID *uuid.UUID) (*domain.DropshipOrder, error) {
	order, err := s.repos.DropshipOrder.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status.IsTerminal() {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(domain.DropshipOrderStatusConfirmed),
		}
	}

	oldStatus := order.Status
	order.Status = domain.DropshipOrderStatusConfirmed
	order.SupplierOrderID = &req.SupplierOrderID
	if req.SupplierResponse != nil {
		order.SupplierResponse = req.SupplierResponse
	}
	if req.EstimatedDelivery != nil {
		eta, err := time.Parse(time.RFC3339, *req.EstimatedDelivery)
		if err != nil {
			return nil, &errors.ErrValidation{Message: "estimated_delivery must be RFC 3339"}
		}
		order.EstimatedDelivery = &eta
	}

	if err := s.repos.DropshipOrder.Update(ctx, order); err != nil {
		return nil, err
	}

	s.logStatusChange(ctx, orderID, oldStatus, order.Status, actorID, map[string]interface{}{
		"supplier_order_id": req.SupplierOrderID,
	})

	return order, nil
}

// MarkAsShipped records tracking details. Requires a non-terminal,
// non-pending state.
func (s *dropshipOrderService) MarkAsShipped(ctx context.Context, orderID uuid.UUID, req ShipDropshipOrderRequest, actorID *uuid.UUID) (*domain.DropshipOrder, error) {
	order, err := s.repos.DropshipOrder.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status.IsTerminal() || order.Status == domain.DropshipOrderStatusPending {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(domain.DropshipOrderStatusShipped),
		}
	}

	oldStatus := order.Status
	order.Status = domain.DropshipOrderStatusShipped
	order.TrackingNumber = &req.TrackingNumber
	if req.Carrier != nil {
		order.Carrier = req.Carrier
	}
	if req.EstimatedDelivery != nil {
		eta, err := time.Parse(time.RFC3339, *req.EstimatedDelivery)
		if err != nil {
			return nil, &errors.ErrValidation{Message: "estimated_delivery must be RFC 3339"}
		}
		order.EstimatedDelivery = &eta
	}

	if err := s.repos.DropshipOrder.Update(ctx, order); err != nil {
		return nil, err
	}

	eventData := map[string]interface{}{
		"tracking_number": req.TrackingNumber,
	}
	if req.Carrier != nil {
		eventData["carrier"] = *req.Carrier
	}
	s.logStatusChange(ctx, orderID, oldStatus, order.Status, actorID, eventData)

	return order, nil
}

// MarkAsDelivered moves the order into its happy terminal state
func (s *dropshipOrderService) MarkAsDelivered(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID) (*domain.DropshipOrder, error) {
	order, err := s.repos.DropshipOrder.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status.IsTerminal() {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(domain.DropshipOrderStatusDelivered),
		}
	}

	oldStatus := order.Status
	order.Status = domain.DropshipOrderStatusDelivered

	if err := s.repos.DropshipOrder.Update(ctx, order); err != nil {
		return nil, err
	}

	s.logStatusChange(ctx, orderID, oldStatus, order.Status, actorID, nil)

	return order, nil
}

// MarkAsCancelled cancels the order with a reason. Forbidden once
// delivered; any other prior state is accepted.
func (s *dropshipOrderService) MarkAsCancelled(ctx context.Context, orderID uuid.UUID, reason string, actorID *uuid.UUID) (*domain.DropshipOrder, error) {
	order, err := s.repos.DropshipOrder.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == domain.DropshipOrderStatusDelivered {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(domain.DropshipOrderStatusCancelled),
		}
	}

	oldStatus := order.Status
	order.Status = domain.DropshipOrderStatusCancelled
	order.CancellationReason = &reason

	if err := s.repos.DropshipOrder.Update(ctx, order); err != nil {
		return nil, err
	}

	s.logStatusChange(ctx, orderID, oldStatus, order.Status, actorID, map[string]interface{}{
		"reason": reason,
	})

	return order, nil
}

// Retry resets a failed order back to pending for another attempt. Gated
// by the order's retry policy; there is no silent infinite retry.
func (s *dropshipOrderService) Retry(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID) (*domain.DropshipOrder, error) {
	order, err := s.repos.DropshipOrder.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanRetry() {
		reason := "auto retry disabled"
		switch {
		case order.Status.IsTerminal():
			reason = fmt.Sprintf("order is %s", order.Status)
		case order.RetryCount >= order.MaxRetryAttempts:
			reason = fmt.Sprintf("retry count %d reached limit %d", order.RetryCount, order.MaxRetryAttempts)
		}
		return nil, &errors.ErrRetryNotAllowed{Reason: reason}
	}

	oldStatus := order.Status
	order.RetryCount++
	order.Status = domain.DropshipOrderStatusPending

	if err := s.repos.DropshipOrder.Update(ctx, order); err != nil {
		return nil, err
	}

	s.logStatusChange(ctx, orderID, oldStatus, order.Status, actorID, map[string]interface{}{
		"retry_count": order.RetryCount,
	})

	return order, nil
}

// canApply mirrors the legality rules of the specific transition methods
// so the generic path cannot bypass them.
func canApply(current, target domain.DropshipOrderStatus) bool {
	switch target {
	case domain.DropshipOrderStatusSentToSupplier:
		return current == domain.DropshipOrderStatusPending
	case domain.DropshipOrderStatusConfirmed:
		return !current.IsTerminal()
	case domain.DropshipOrderStatusShipped:
		return !current.IsTerminal() && current != domain.DropshipOrderStatusPending
	case domain.DropshipOrderStatusDelivered:
		return !current.IsTerminal()
	case domain.DropshipOrderStatusCancelled:
		return current != domain.DropshipOrderStatusDelivered
	default:
		return false
	}
}

// UpdateStatus is the generic transition used by bulk operations
func (s *dropshipOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.DropshipOrderStatus, reason *string, actorID *uuid.UUID) (*domain.DropshipOrder, error) {
	if !newStatus.IsValid() {
		return nil, &errors.ErrValidation{Message: fmt.Sprintf("invalid status %q", newStatus)}
	}

	order, err := s.repos.DropshipOrder.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !canApply(order.Status, newStatus) {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(newStatus),
		}
	}

	oldStatus := order.Status
	order.Status = newStatus
	if newStatus == domain.DropshipOrderStatusCancelled && reason != nil {
		order.CancellationReason = reason
	}
	if newStatus == domain.DropshipOrderStatusSentToSupplier {
		now := s.now()
		order.SentAt = &now
	}

	if err := s.repos.DropshipOrder.Update(ctx, order); err != nil {
		return nil, err
	}

	eventData := map[string]interface{}{}
	if reason != nil {
		eventData["reason"] = *reason
	}
	s.logStatusChange(ctx, orderID, oldStatus, order.Status, actorID, eventData)

	return order, nil
}

// BulkUpdateStatus applies the same transition to many orders,
// best-effort. Failures on individual orders are tallied, not propagated;
// the rest of the batch still commits.
func (s *dropshipOrderService) BulkUpdateStatus(ctx context.Context, req BulkStatusUpdateRequest, actorID *uuid.UUID) *BulkStatusResult {
	result := &BulkStatusResult{Errors: []string{}}
	target := domain.DropshipOrderStatus(req.Status)

	for _, orderID := range req.OrderIDs {
		if _, err := s.UpdateStatus(ctx, orderID, target, req.Reason, actorID); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", orderID, err.Error()))
			continue
		}
		result.Success++
	}

	return result
}

// Delete removes an order and its items. Only pending or cancelled orders
// may be deleted.
func (s *dropshipOrderService) Delete(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID) error {
	order, err := s.repos.DropshipOrder.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.IsDeletable() {
		return &errors.ErrConflict{
			Message: fmt.Sprintf("dropship order in status %s cannot be deleted", order.Status),
		}
	}

	if err := s.repos.DropshipOrder.DeleteWithItems(ctx, orderID); err != nil {
		return err
	}

	s.logger.Info("Dropship order deleted",
		zap.String("dropship_order_id", orderID.String()),
		zap.String("status", string(order.Status)),
	)

	return nil
}

func (s *dropshipOrderService) logStatusChange(ctx context.Context, orderID uuid.UUID, from, to domain.DropshipOrderStatus, actorID *uuid.UUID, extra map[string]interface{}) {
	data := map[string]interface{}{
		"from": from,
		"to":   to,
	}
	for k, v := range extra {
		data[k] = v
	}
	s.logEvent(ctx, orderID, "status_change", actorID, data)
}

func (s *dropshipOrderService) logEvent(ctx context.Context, orderID uuid.UUID, eventType string, actorID *uuid.UUID, data map[string]interface{}) {
	event := &domain.DropshipOrderEvent{
		DropshipOrderID: orderID,
		EventType:       eventType,
		ActorID:         actorID,
		EventData:       data,
	}
	if err := s.repos.DropshipOrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to write dropship order event",
			zap.String("dropship_order_id", orderID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
