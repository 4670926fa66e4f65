package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/internal/repository"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

func seedSupplier(store *fakeStore, status domain.SupplierStatus) *domain.Supplier {
	supplier := &domain.Supplier{
		ID:              uuid.New(),
		Name:            "Acme Wholesale",
		Status:          status,
		IntegrationType: domain.IntegrationTypeAPI,
	}
	store.suppliers[supplier.ID] = supplier
	return supplier
}

func seedSupplierProduct(store *fakeStore, supplierID uuid.UUID, price int64, moq int) *domain.SupplierProduct {
	retail := price * 2
	sp := &domain.SupplierProduct{
		ID:                   uuid.New(),
		SupplierID:           supplierID,
		SupplierSKU:          fmt.Sprintf("SKU-%s", uuid.New().String()[:8]),
		Name:                 "Widget",
		SupplierPrice:        price,
		RetailPrice:          &retail,
		StockQuantity:        100,
		MinimumOrderQuantity: moq,
		IsActive:             true,
	}
	store.supplierProducts[sp.ID] = sp
	return sp
}

func seedIntegration(store *fakeStore, supplierID uuid.UUID, typ domain.IntegrationType) *domain.SupplierIntegration {
	integration := &domain.SupplierIntegration{
		ID:                   uuid.New(),
		SupplierID:           supplierID,
		Name:                 "primary channel",
		IntegrationType:      typ,
		IsActive:             true,
		Status:               domain.IntegrationStatusActive,
		SyncFrequencyMinutes: 60,
	}
	store.integrations[integration.ID] = integration
	return integration
}

func seedOrder(store *fakeStore, supplierID uuid.UUID, status domain.DropshipOrderStatus) *domain.DropshipOrder {
	order := &domain.DropshipOrder{
		ID:               uuid.New(),
		OrderID:          uuid.New(),
		SupplierID:       supplierID,
		Status:           status,
		MaxRetryAttempts: 3,
		AutoRetryEnabled: true,
		ShippingAddress:  map[string]interface{}{"city": "Amman"},
	}
	store.orders[order.ID] = order
	return order
}

func TestDropshipOrderCreate(t *testing.T) {
	ctx := context.Background()

	newSvc := func() (*dropshipOrderService, *fakeStore, *repository.Repositories) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())
		return svc, store, repos
	}

	t.Run("computes totals from item lines", func(t *testing.T) {
		svc, store, _ := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		sp := seedSupplierProduct(store, supplier.ID, 1000, 1)

		order, err := svc.Create(ctx, CreateDropshipOrderRequest{
			OrderID:         uuid.New(),
			SupplierID:      supplier.ID,
			ShippingAddress: map[string]interface{}{"city": "Amman"},
			Items: []DropshipOrderItemInput{
				{OrderItemID: uuid.New(), SupplierProductID: sp.ID, Quantity: 3},
			},
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, domain.DropshipOrderStatusPending, order.Status)
		assert.Equal(t, int64(3000), order.TotalCost)
		assert.Equal(t, int64(6000), order.TotalRetail)
		assert.Equal(t, int64(3000), order.ProfitMargin)
		assert.Equal(t, 3, order.MaxRetryAttempts, "defaults when unset")

		items := store.orderItems[order.ID]
		require.Len(t, items, 1)
		assert.Equal(t, int64(1000), items[0].ProfitPerItem)

		events := store.events[order.ID]
		require.Len(t, events, 1)
		assert.Equal(t, "order_created", events[0].EventType)
	})

	t.Run("explicit retail price wins over catalog retail", func(t *testing.T) {
		svc, store, _ := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		sp := seedSupplierProduct(store, supplier.ID, 1000, 1)

		order, err := svc.Create(ctx, CreateDropshipOrderRequest{
			OrderID:         uuid.New(),
			SupplierID:      supplier.ID,
			ShippingAddress: map[string]interface{}{},
			Items: []DropshipOrderItemInput{
				{OrderItemID: uuid.New(), SupplierProductID: sp.ID, Quantity: 1, RetailPrice: 1750},
			},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1750), order.TotalRetail)
	})

	t.Run("inactive supplier is rejected", func(t *testing.T) {
		svc, store, _ := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusInactive)
		sp := seedSupplierProduct(store, supplier.ID, 1000, 1)

		_, err := svc.Create(ctx, CreateDropshipOrderRequest{
			OrderID:         uuid.New(),
			SupplierID:      supplier.ID,
			ShippingAddress: map[string]interface{}{},
			Items: []DropshipOrderItemInput{
				{OrderItemID: uuid.New(), SupplierProductID: sp.ID, Quantity: 1},
			},
		}, nil)
		assert.IsType(t, &errors.ErrValidation{}, err)
	})

	t.Run("quantity below minimum order quantity is rejected", func(t *testing.T) {
		svc, store, _ := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		sp := seedSupplierProduct(store, supplier.ID, 1000, 5)

		_, err := svc.Create(ctx, CreateDropshipOrderRequest{
			OrderID:         uuid.New(),
			SupplierID:      supplier.ID,
			ShippingAddress: map[string]interface{}{},
			Items: []DropshipOrderItemInput{
				{OrderItemID: uuid.New(), SupplierProductID: sp.ID, Quantity: 2},
			},
		}, nil)
		assert.IsType(t, &errors.ErrValidation{}, err)
	})

	t.Run("item from a different supplier is rejected", func(t *testing.T) {
		svc, store, _ := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		other := seedSupplier(store, domain.SupplierStatusActive)
		sp := seedSupplierProduct(store, other.ID, 1000, 1)

		_, err := svc.Create(ctx, CreateDropshipOrderRequest{
			OrderID:         uuid.New(),
			SupplierID:      supplier.ID,
			ShippingAddress: map[string]interface{}{},
			Items: []DropshipOrderItemInput{
				{OrderItemID: uuid.New(), SupplierProductID: sp.ID, Quantity: 1},
			},
		}, nil)
		assert.IsType(t, &errors.ErrValidation{}, err)
	})
}

func TestSendToSupplier(t *testing.T) {
	ctx := context.Background()

	t.Run("places the order over an automated integration", func(t *testing.T) {
		repos, store := newFakeRepos()
		client := &fakeClient{}
		svc := NewDropshipOrderService(repos, client, zap.NewNop())

		supplier := seedSupplier(store, domain.SupplierStatusActive)
		seedIntegration(store, supplier.ID, domain.IntegrationTypeAPI)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusPending)
		store.orderItems[order.ID] = []*domain.DropshipOrderItem{
			{ID: uuid.New(), DropshipOrderID: order.ID, SupplierSKU: "SKU-1", Quantity: 2, SupplierPrice: 500},
		}

		updated, err := svc.SendToSupplier(ctx, order.ID, nil)
		require.NoError(t, err)

		assert.Equal(t, domain.DropshipOrderStatusSentToSupplier, updated.Status)
		assert.NotNil(t, updated.SentAt)
		require.NotNil(t, updated.IntegrationType)
		assert.Equal(t, domain.IntegrationTypeAPI, *updated.IntegrationType)

		require.Len(t, client.placedWith, 1)
		assert.Equal(t, order.ID.String(), client.placedWith[0].Reference)
		require.Len(t, client.placedWith[0].Items, 1)
		assert.Equal(t, "SKU-1", client.placedWith[0].Items[0].SupplierSKU)
	})

	t.Run("manual integration skips the network call", func(t *testing.T) {
		repos, store := newFakeRepos()
		client := &fakeClient{}
		svc := NewDropshipOrderService(repos, client, zap.NewNop())

		supplier := seedSupplier(store, domain.SupplierStatusActive)
		seedIntegration(store, supplier.ID, domain.IntegrationTypeManual)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusPending)

		updated, err := svc.SendToSupplier(ctx, order.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DropshipOrderStatusSentToSupplier, updated.Status)
		assert.Empty(t, client.placedWith)
	})

	t.Run("only pending orders can be sent", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())

		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusConfirmed)

		_, err := svc.SendToSupplier(ctx, order.ID, nil)
		assert.IsType(t, &errors.ErrInvalidStateTransition{}, err)
	})

	t.Run("inactive supplier blocks the send and the order stays pending", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())

		supplier := seedSupplier(store, domain.SupplierStatusInactive)
		seedIntegration(store, supplier.ID, domain.IntegrationTypeAPI)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusPending)

		_, err := svc.SendToSupplier(ctx, order.ID, nil)
		assert.IsType(t, &errors.ErrValidation{}, err)
		assert.Equal(t, domain.DropshipOrderStatusPending, store.orders[order.ID].Status)
	})

	t.Run("supplier API failure leaves the order pending and records the failure", func(t *testing.T) {
		repos, store := newFakeRepos()
		client := &fakeClient{placeErr: fmt.Errorf("supplier API error: status 503")}
		svc := NewDropshipOrderService(repos, client, zap.NewNop())

		supplier := seedSupplier(store, domain.SupplierStatusActive)
		seedIntegration(store, supplier.ID, domain.IntegrationTypeAPI)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusPending)

		_, err := svc.SendToSupplier(ctx, order.ID, nil)
		require.Error(t, err)
		assert.Equal(t, domain.DropshipOrderStatusPending, store.orders[order.ID].Status)

		events := store.events[order.ID]
		require.Len(t, events, 1)
		assert.Equal(t, "send_failed", events[0].EventType)
	})
}

func TestOrderLifecycleTransitions(t *testing.T) {
	ctx := context.Background()

	newSvc := func() (*dropshipOrderService, *fakeStore) {
		repos, store := newFakeRepos()
		return NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop()), store
	}

	t.Run("confirm from sent", func(t *testing.T) {
		svc, store := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusSentToSupplier)

		updated, err := svc.MarkAsConfirmed(ctx, order.ID, ConfirmDropshipOrderRequest{SupplierOrderID: "SUP-77"}, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DropshipOrderStatusConfirmed, updated.Status)
		require.NotNil(t, updated.SupplierOrderID)
		assert.Equal(t, "SUP-77", *updated.SupplierOrderID)
	})

	t.Run("confirm tolerated before send is recorded", func(t *testing.T) {
		svc, store := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusPending)

		updated, err := svc.MarkAsConfirmed(ctx, order.ID, ConfirmDropshipOrderRequest{SupplierOrderID: "SUP-1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DropshipOrderStatusConfirmed, updated.Status)
	})

	t.Run("confirm rejected after cancellation", func(t *testing.T) {
		svc, store := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusCancelled)

		_, err := svc.MarkAsConfirmed(ctx, order.ID, ConfirmDropshipOrderRequest{SupplierOrderID: "SUP-1"}, nil)
		assert.IsType(t, &errors.ErrInvalidStateTransition{}, err)
	})

	t.Run("ship requires a non-pending non-terminal order", func(t *testing.T) {
		svc, store := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)

		confirmed := seedOrder(store, supplier.ID, domain.DropshipOrderStatusConfirmed)
		updated, err := svc.MarkAsShipped(ctx, confirmed.ID, ShipDropshipOrderRequest{TrackingNumber: "TRK-1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DropshipOrderStatusShipped, updated.Status)
		require.NotNil(t, updated.TrackingNumber)
		assert.Equal(t, "TRK-1", *updated.TrackingNumber)

		pending := seedOrder(store, supplier.ID, domain.DropshipOrderStatusPending)
		_, err = svc.MarkAsShipped(ctx, pending.ID, ShipDropshipOrderRequest{TrackingNumber: "TRK-2"}, nil)
		assert.IsType(t, &errors.ErrInvalidStateTransition{}, err)
	})

	t.Run("deliver fails from terminal states", func(t *testing.T) {
		svc, store := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)

		shipped := seedOrder(store, supplier.ID, domain.DropshipOrderStatusShipped)
		updated, err := svc.MarkAsDelivered(ctx, shipped.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DropshipOrderStatusDelivered, updated.Status)

		cancelled := seedOrder(store, supplier.ID, domain.DropshipOrderStatusCancelled)
		_, err = svc.MarkAsDelivered(ctx, cancelled.ID, nil)
		assert.IsType(t, &errors.ErrInvalidStateTransition{}, err)
	})

	t.Run("cancel fails only after delivery", func(t *testing.T) {
		svc, store := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)

		shipped := seedOrder(store, supplier.ID, domain.DropshipOrderStatusShipped)
		updated, err := svc.MarkAsCancelled(ctx, shipped.ID, "customer changed their mind", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DropshipOrderStatusCancelled, updated.Status)
		require.NotNil(t, updated.CancellationReason)

		delivered := seedOrder(store, supplier.ID, domain.DropshipOrderStatusDelivered)
		_, err = svc.MarkAsCancelled(ctx, delivered.ID, "too late", nil)
		assert.IsType(t, &errors.ErrInvalidStateTransition{}, err)
	})

	t.Run("cancelling a cancelled order is accepted", func(t *testing.T) {
		svc, store := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusCancelled)

		updated, err := svc.MarkAsCancelled(ctx, order.ID, "again", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DropshipOrderStatusCancelled, updated.Status)
	})

	t.Run("every transition writes an audit event", func(t *testing.T) {
		svc, store := newSvc()
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusSentToSupplier)

		_, err := svc.MarkAsConfirmed(ctx, order.ID, ConfirmDropshipOrderRequest{SupplierOrderID: "SUP-1"}, nil)
		require.NoError(t, err)
		_, err = svc.MarkAsShipped(ctx, order.ID, ShipDropshipOrderRequest{TrackingNumber: "TRK-1"}, nil)
		require.NoError(t, err)
		_, err = svc.MarkAsDelivered(ctx, order.ID, nil)
		require.NoError(t, err)

		events := store.events[order.ID]
		require.Len(t, events, 3)
		for _, e := range events {
			assert.Equal(t, "status_change", e.EventType)
			assert.Contains(t, e.EventData, "from")
			assert.Contains(t, e.EventData, "to")
		}
	})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("resets the order to pending and counts the attempt", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusSentToSupplier)

		updated, err := svc.Retry(ctx, order.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DropshipOrderStatusPending, updated.Status)
		assert.Equal(t, 1, updated.RetryCount)
	})

	t.Run("exhausted retry budget", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusSentToSupplier)
		order.RetryCount = 3

		_, err := svc.Retry(ctx, order.ID, nil)
		require.Error(t, err)
		assert.IsType(t, &errors.ErrRetryNotAllowed{}, err)
	})

	t.Run("terminal orders are never retried", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusDelivered)

		_, err := svc.Retry(ctx, order.ID, nil)
		assert.IsType(t, &errors.ErrRetryNotAllowed{}, err)
	})

	t.Run("auto retry disabled", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusSentToSupplier)
		order.AutoRetryEnabled = false

		_, err := svc.Retry(ctx, order.ID, nil)
		assert.IsType(t, &errors.ErrRetryNotAllowed{}, err)
	})
}

func TestBulkUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("tallies successes and failures per order", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)

		a := seedOrder(store, supplier.ID, domain.DropshipOrderStatusSentToSupplier)
		b := seedOrder(store, supplier.ID, domain.DropshipOrderStatusPending)
		c := seedOrder(store, supplier.ID, domain.DropshipOrderStatusDelivered)

		result := svc.BulkUpdateStatus(ctx, BulkStatusUpdateRequest{
			OrderIDs: []uuid.UUID{a.ID, b.ID, c.ID},
			Status:   string(domain.DropshipOrderStatusConfirmed),
		}, nil)

		assert.Equal(t, 2, result.Success)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], c.ID.String())

		assert.Equal(t, domain.DropshipOrderStatusConfirmed, store.orders[a.ID].Status)
		assert.Equal(t, domain.DropshipOrderStatusConfirmed, store.orders[b.ID].Status)
		assert.Equal(t, domain.DropshipOrderStatusDelivered, store.orders[c.ID].Status)
	})

	t.Run("invalid target status fails every order", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusPending)

		result := svc.BulkUpdateStatus(ctx, BulkStatusUpdateRequest{
			OrderIDs: []uuid.UUID{order.ID},
			Status:   "returned",
		}, nil)

		assert.Equal(t, 0, result.Success)
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("generic path enforces the same rules as named transitions", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusConfirmed)

		// confirmed orders cannot go back to sent_to_supplier
		_, err := svc.UpdateStatus(ctx, order.ID, domain.DropshipOrderStatusSentToSupplier, nil, nil)
		assert.IsType(t, &errors.ErrInvalidStateTransition{}, err)
	})
}

func TestDeleteDropshipOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("pending and cancelled orders can be deleted", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)

		pending := seedOrder(store, supplier.ID, domain.DropshipOrderStatusPending)
		require.NoError(t, svc.Delete(ctx, pending.ID, nil))
		_, exists := store.orders[pending.ID]
		assert.False(t, exists)

		cancelled := seedOrder(store, supplier.ID, domain.DropshipOrderStatusCancelled)
		require.NoError(t, svc.Delete(ctx, cancelled.ID, nil))
	})

	t.Run("in-flight orders cannot be deleted", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewDropshipOrderService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		order := seedOrder(store, supplier.ID, domain.DropshipOrderStatusShipped)

		err := svc.Delete(ctx, order.ID, nil)
		assert.IsType(t, &errors.ErrConflict{}, err)
		_, exists := store.orders[order.ID]
		assert.True(t, exists)
	})
}
