package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/internal/repository"
	"github.com/jafarshop/dropshipapi/internal/supplierclient"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

// In-memory repositories backing the service tests. They mirror the
// transactional semantics of the postgres layer (primary promotion,
// single-active-integration) without a database.

type fakeStore struct {
	suppliers        map[uuid.UUID]*domain.Supplier
	integrations     map[uuid.UUID]*domain.SupplierIntegration
	products         map[uuid.UUID]*domain.Product
	supplierProducts map[uuid.UUID]*domain.SupplierProduct
	mappings         map[uuid.UUID]*domain.ProductSupplierMapping
	orders           map[uuid.UUID]*domain.DropshipOrder
	orderItems       map[uuid.UUID][]*domain.DropshipOrderItem
	events           map[uuid.UUID][]*domain.DropshipOrderEvent
	apiKeys          map[uuid.UUID]*domain.APIKey
	idempotencyKeys  map[string]*domain.IdempotencyKey
	openItems        map[uuid.UUID]bool // supplier product id -> has open dropship items
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		suppliers:        make(map[uuid.UUID]*domain.Supplier),
		integrations:     make(map[uuid.UUID]*domain.SupplierIntegration),
		products:         make(map[uuid.UUID]*domain.Product),
		supplierProducts: make(map[uuid.UUID]*domain.SupplierProduct),
		mappings:         make(map[uuid.UUID]*domain.ProductSupplierMapping),
		orders:           make(map[uuid.UUID]*domain.DropshipOrder),
		orderItems:       make(map[uuid.UUID][]*domain.DropshipOrderItem),
		events:           make(map[uuid.UUID][]*domain.DropshipOrderEvent),
		apiKeys:          make(map[uuid.UUID]*domain.APIKey),
		idempotencyKeys:  make(map[string]*domain.IdempotencyKey),
		openItems:        make(map[uuid.UUID]bool),
	}
}

func newFakeRepos() (*repository.Repositories, *fakeStore) {
	store := newFakeStore()
	repos := &repository.Repositories{
		Supplier:               &fakeSupplierRepo{store},
		SupplierIntegration:    &fakeIntegrationRepo{store},
		Product:                &fakeProductRepo{store},
		SupplierProduct:        &fakeSupplierProductRepo{store},
		ProductSupplierMapping: &fakeMappingRepo{store},
		DropshipOrder:          &fakeOrderRepo{store},
		DropshipOrderItem:      &fakeOrderItemRepo{store},
		DropshipOrderEvent:     &fakeEventRepo{store},
		APIKey:                 &fakeAPIKeyRepo{store},
		IdempotencyKey:         &fakeIdempotencyRepo{store},
	}
	return repos, store
}

type fakeSupplierRepo struct{ s *fakeStore }

func (r *fakeSupplierRepo) Create(_ context.Context, supplier *domain.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	r.s.suppliers[supplier.ID] = supplier
	return nil
}

func (r *fakeSupplierRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Supplier, error) {
	supplier, ok := r.s.suppliers[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "supplier", ID: id.String()}
	}
	copied := *supplier
	return &copied, nil
}

func (r *fakeSupplierRepo) List(_ context.Context, limit, offset int) ([]*domain.Supplier, error) {
	var out []*domain.Supplier
	for _, s := range r.s.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSupplierRepo) Update(_ context.Context, supplier *domain.Supplier) error {
	if _, ok := r.s.suppliers[supplier.ID]; !ok {
		return &errors.ErrNotFound{Resource: "supplier", ID: supplier.ID.String()}
	}
	r.s.suppliers[supplier.ID] = supplier
	return nil
}

func (r *fakeSupplierRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.suppliers, id)
	return nil
}

type fakeIntegrationRepo struct{ s *fakeStore }

func (r *fakeIntegrationRepo) Create(_ context.Context, integration *domain.SupplierIntegration) error {
	if integration.ID == uuid.Nil {
		integration.ID = uuid.New()
	}
	copied := *integration
	r.s.integrations[integration.ID] = &copied
	return nil
}

func (r *fakeIntegrationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.SupplierIntegration, error) {
	integration, ok := r.s.integrations[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "supplier integration", ID: id.String()}
	}
	copied := *integration
	return &copied, nil
}

func (r *fakeIntegrationRepo) GetActiveBySupplierID(_ context.Context, supplierID uuid.UUID) (*domain.SupplierIntegration, error) {
	for _, i := range r.s.integrations {
		if i.SupplierID == supplierID && i.IsActive {
			copied := *i
			return &copied, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "active supplier integration", ID: supplierID.String()}
}

func (r *fakeIntegrationRepo) ListBySupplierID(_ context.Context, supplierID uuid.UUID) ([]*domain.SupplierIntegration, error) {
	var out []*domain.SupplierIntegration
	for _, i := range r.s.integrations {
		if i.SupplierID == supplierID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *fakeIntegrationRepo) ListNeedingSync(_ context.Context) ([]*domain.SupplierIntegration, error) {
	now := time.Now()
	var out []*domain.SupplierIntegration
	for _, i := range r.s.integrations {
		if i.NeedsSync(now) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *fakeIntegrationRepo) Update(_ context.Context, integration *domain.SupplierIntegration) error {
	if _, ok := r.s.integrations[integration.ID]; !ok {
		return &errors.ErrNotFound{Resource: "supplier integration", ID: integration.ID.String()}
	}
	copied := *integration
	r.s.integrations[integration.ID] = &copied
	return nil
}

func (r *fakeIntegrationRepo) Enable(_ context.Context, id uuid.UUID) error {
	target, ok := r.s.integrations[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "supplier integration", ID: id.String()}
	}
	for _, sibling := range r.s.integrations {
		if sibling.SupplierID == target.SupplierID && sibling.IsActive {
			sibling.IsActive = false
			sibling.Status = domain.IntegrationStatusInactive
		}
	}
	target.IsActive = true
	target.Status = domain.IntegrationStatusActive
	return nil
}

func (r *fakeIntegrationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.integrations, id)
	return nil
}

type fakeProductRepo struct{ s *fakeStore }

func (r *fakeProductRepo) Create(_ context.Context, product *domain.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	copied := *product
	r.s.products[product.ID] = &copied
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := r.s.products[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	copied := *product
	return &copied, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *domain.Product) error {
	copied := *product
	r.s.products[product.ID] = &copied
	return nil
}

func (r *fakeProductRepo) UpdatePrice(_ context.Context, id uuid.UUID, price int64) error {
	product, ok := r.s.products[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	product.Price = price
	return nil
}

func (r *fakeProductRepo) UpdateStock(_ context.Context, id uuid.UUID, quantity int) error {
	product, ok := r.s.products[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	product.StockQuantity = quantity
	return nil
}

func (r *fakeProductRepo) UpdatePrimarySupplier(_ context.Context, id uuid.UUID, supplierID *uuid.UUID) error {
	product, ok := r.s.products[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	product.PrimarySupplierID = supplierID
	return nil
}

type fakeSupplierProductRepo struct{ s *fakeStore }

func (r *fakeSupplierProductRepo) Create(_ context.Context, sp *domain.SupplierProduct) error {
	if sp.ID == uuid.Nil {
		sp.ID = uuid.New()
	}
	copied := *sp
	r.s.supplierProducts[sp.ID] = &copied
	return nil
}

func (r *fakeSupplierProductRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.SupplierProduct, error) {
	sp, ok := r.s.supplierProducts[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "supplier product", ID: id.String()}
	}
	copied := *sp
	return &copied, nil
}

func (r *fakeSupplierProductRepo) GetBySupplierSKU(_ context.Context, supplierID uuid.UUID, sku string) (*domain.SupplierProduct, error) {
	for _, sp := range r.s.supplierProducts {
		if sp.SupplierID == supplierID && sp.SupplierSKU == sku {
			copied := *sp
			return &copied, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "supplier product", ID: sku}
}

func (r *fakeSupplierProductRepo) ListBySupplierID(_ context.Context, supplierID uuid.UUID, limit, offset int) ([]*domain.SupplierProduct, error) {
	var out []*domain.SupplierProduct
	for _, sp := range r.s.supplierProducts {
		if sp.SupplierID == supplierID {
			out = append(out, sp)
		}
	}
	return out, nil
}

func (r *fakeSupplierProductRepo) Update(_ context.Context, sp *domain.SupplierProduct) error {
	copied := *sp
	r.s.supplierProducts[sp.ID] = &copied
	return nil
}

func (r *fakeSupplierProductRepo) UpdateStock(_ context.Context, id uuid.UUID, quantity int) error {
	sp, ok := r.s.supplierProducts[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "supplier product", ID: id.String()}
	}
	sp.StockQuantity = quantity
	return nil
}

func (r *fakeSupplierProductRepo) UpdatePrices(_ context.Context, id uuid.UUID, supplierPrice int64, retailPrice *int64) error {
	sp, ok := r.s.supplierProducts[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "supplier product", ID: id.String()}
	}
	sp.SupplierPrice = supplierPrice
	sp.RetailPrice = retailPrice
	return nil
}

func (r *fakeSupplierProductRepo) UpdateSyncStatus(_ context.Context, id uuid.UUID, status domain.SyncStatus, syncErrors *string) error {
	sp, ok := r.s.supplierProducts[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "supplier product", ID: id.String()}
	}
	sp.SyncStatus = status
	sp.SyncErrors = syncErrors
	return nil
}

func (r *fakeSupplierProductRepo) CreateMappedProduct(_ context.Context, sp *domain.SupplierProduct, product *domain.Product, mapping *domain.ProductSupplierMapping) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}

	mapping.ProductID = product.ID
	mapping.SupplierID = sp.SupplierID
	mapping.SupplierProductID = sp.ID
	if mapping.IsPrimary {
		product.PrimarySupplierID = &sp.SupplierID
	}

	productCopy := *product
	r.s.products[product.ID] = &productCopy
	mappingCopy := *mapping
	r.s.mappings[mapping.ID] = &mappingCopy

	stored := r.s.supplierProducts[sp.ID]
	stored.IsMapped = true
	stored.ProductID = &product.ID
	return nil
}

func (r *fakeSupplierProductRepo) HasOpenDropshipItems(_ context.Context, id uuid.UUID) (bool, error) {
	return r.s.openItems[id], nil
}

func (r *fakeSupplierProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.supplierProducts, id)
	return nil
}

type fakeMappingRepo struct{ s *fakeStore }

func (r *fakeMappingRepo) Create(_ context.Context, mapping *domain.ProductSupplierMapping) error {
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	if mapping.IsPrimary {
		for _, sibling := range r.s.mappings {
			if sibling.ProductID == mapping.ProductID {
				sibling.IsPrimary = false
			}
		}
		if product, ok := r.s.products[mapping.ProductID]; ok {
			supplierID := mapping.SupplierID
			product.PrimarySupplierID = &supplierID
		}
	}
	copied := *mapping
	r.s.mappings[mapping.ID] = &copied

	if sp, ok := r.s.supplierProducts[mapping.SupplierProductID]; ok {
		productID := mapping.ProductID
		sp.IsMapped = true
		sp.ProductID = &productID
	}
	return nil
}

func (r *fakeMappingRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.ProductSupplierMapping, error) {
	mapping, ok := r.s.mappings[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product supplier mapping", ID: id.String()}
	}
	copied := *mapping
	return &copied, nil
}

func (r *fakeMappingRepo) GetBySupplierProductID(_ context.Context, supplierProductID uuid.UUID) (*domain.ProductSupplierMapping, error) {
	for _, m := range r.s.mappings {
		if m.SupplierProductID == supplierProductID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "product supplier mapping", ID: supplierProductID.String()}
}

func (r *fakeMappingRepo) ListByProductID(_ context.Context, productID uuid.UUID) ([]*domain.ProductSupplierMapping, error) {
	var out []*domain.ProductSupplierMapping
	for _, m := range r.s.mappings {
		if m.ProductID == productID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriorityOrder < out[j].PriorityOrder })
	return out, nil
}

func (r *fakeMappingRepo) Update(_ context.Context, mapping *domain.ProductSupplierMapping) error {
	if _, ok := r.s.mappings[mapping.ID]; !ok {
		return &errors.ErrNotFound{Resource: "product supplier mapping", ID: mapping.ID.String()}
	}
	copied := *mapping
	r.s.mappings[mapping.ID] = &copied
	return nil
}

func (r *fakeMappingRepo) MakePrimary(_ context.Context, id uuid.UUID) error {
	target, ok := r.s.mappings[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product supplier mapping", ID: id.String()}
	}
	for _, sibling := range r.s.mappings {
		if sibling.ProductID == target.ProductID {
			sibling.IsPrimary = false
		}
	}
	target.IsPrimary = true
	if product, ok := r.s.products[target.ProductID]; ok {
		supplierID := target.SupplierID
		product.PrimarySupplierID = &supplierID
	}
	return nil
}

func (r *fakeMappingRepo) Delete(_ context.Context, id uuid.UUID) error {
	target, ok := r.s.mappings[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product supplier mapping", ID: id.String()}
	}
	wasPrimary := target.IsPrimary
	productID := target.ProductID
	delete(r.s.mappings, id)

	if !wasPrimary {
		return nil
	}

	var successor *domain.ProductSupplierMapping
	for _, m := range r.s.mappings {
		if m.ProductID != productID || !m.IsActive {
			continue
		}
		if successor == nil || m.PriorityOrder < successor.PriorityOrder {
			successor = m
		}
	}

	product := r.s.products[productID]
	if successor != nil {
		successor.IsPrimary = true
		if product != nil {
			supplierID := successor.SupplierID
			product.PrimarySupplierID = &supplierID
		}
	} else if product != nil {
		product.PrimarySupplierID = nil
	}
	return nil
}

func (r *fakeMappingRepo) UpdatePriceTimestamps(_ context.Context, id uuid.UUID) error {
	mapping, ok := r.s.mappings[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product supplier mapping", ID: id.String()}
	}
	now := time.Now()
	mapping.LastPriceUpdate = &now
	return nil
}

func (r *fakeMappingRepo) UpdateStockTimestamps(_ context.Context, id uuid.UUID) error {
	mapping, ok := r.s.mappings[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product supplier mapping", ID: id.String()}
	}
	now := time.Now()
	mapping.LastStockUpdate = &now
	return nil
}

type fakeOrderRepo struct{ s *fakeStore }

func (r *fakeOrderRepo) CreateWithItems(_ context.Context, order *domain.DropshipOrder, items []*domain.DropshipOrderItem) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.DropshipOrderID = order.ID
	}
	copied := *order
	r.s.orders[order.ID] = &copied
	r.s.orderItems[order.ID] = items
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.DropshipOrder, error) {
	order, ok := r.s.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "dropship order", ID: id.String()}
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepo) ListByOrderID(_ context.Context, orderID uuid.UUID) ([]*domain.DropshipOrder, error) {
	var out []*domain.DropshipOrder
	for _, o := range r.s.orders {
		if o.OrderID == orderID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListBySupplierID(_ context.Context, supplierID uuid.UUID, limit, offset int) ([]*domain.DropshipOrder, error) {
	var out []*domain.DropshipOrder
	for _, o := range r.s.orders {
		if o.SupplierID == supplierID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByStatus(_ context.Context, status domain.DropshipOrderStatus, limit, offset int) ([]*domain.DropshipOrder, error) {
	var out []*domain.DropshipOrder
	for _, o := range r.s.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) List(_ context.Context, limit, offset int) ([]*domain.DropshipOrder, error) {
	var out []*domain.DropshipOrder
	for _, o := range r.s.orders {
		out = append(out, o)
	}
	return out, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, order *domain.DropshipOrder) error {
	if _, ok := r.s.orders[order.ID]; !ok {
		return &errors.ErrNotFound{Resource: "dropship order", ID: order.ID.String()}
	}
	copied := *order
	r.s.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) DeleteWithItems(_ context.Context, id uuid.UUID) error {
	delete(r.s.orders, id)
	delete(r.s.orderItems, id)
	return nil
}

type fakeOrderItemRepo struct{ s *fakeStore }

func (r *fakeOrderItemRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) ([]*domain.DropshipOrderItem, error) {
	return r.s.orderItems[orderID], nil
}

type fakeEventRepo struct{ s *fakeStore }

func (r *fakeEventRepo) Create(_ context.Context, event *domain.DropshipOrderEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	r.s.events[event.DropshipOrderID] = append(r.s.events[event.DropshipOrderID], event)
	return nil
}

func (r *fakeEventRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) ([]*domain.DropshipOrderEvent, error) {
	return r.s.events[orderID], nil
}

type fakeAPIKeyRepo struct{ s *fakeStore }

func (r *fakeAPIKeyRepo) GetByKey(_ context.Context, apiKey string) (*domain.APIKey, error) {
	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *fakeAPIKeyRepo) Create(_ context.Context, key *domain.APIKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	r.s.apiKeys[key.ID] = key
	return nil
}

type fakeIdempotencyRepo struct{ s *fakeStore }

func (r *fakeIdempotencyRepo) GetByKey(_ context.Context, key string) (*domain.IdempotencyKey, error) {
	return r.s.idempotencyKeys[key], nil
}

func (r *fakeIdempotencyRepo) Create(_ context.Context, key *domain.IdempotencyKey) error {
	r.s.idempotencyKeys[key.Key] = key
	return nil
}

// fakeClient is a scriptable supplier client
type fakeClient struct {
	testResult  *supplierclient.TestResult
	catalog     []supplierclient.CatalogEntry
	catalogErr  error
	placeResult *supplierclient.PlaceOrderResult
	placeErr    error
	placedWith  []supplierclient.OrderPayload
}

func (c *fakeClient) TestConnection(_ context.Context, _ *domain.SupplierIntegration) *supplierclient.TestResult {
	if c.testResult != nil {
		return c.testResult
	}
	return &supplierclient.TestResult{Success: true, Message: "connection ok"}
}

func (c *fakeClient) FetchCatalog(_ context.Context, _ *domain.SupplierIntegration) ([]supplierclient.CatalogEntry, error) {
	return c.catalog, c.catalogErr
}

func (c *fakeClient) PlaceOrder(_ context.Context, _ *domain.SupplierIntegration, payload supplierclient.OrderPayload) (*supplierclient.PlaceOrderResult, error) {
	c.placedWith = append(c.placedWith, payload)
	if c.placeErr != nil {
		return nil, c.placeErr
	}
	if c.placeResult != nil {
		return c.placeResult, nil
	}
	return &supplierclient.PlaceOrderResult{SupplierOrderID: "SUP-1"}, nil
}
