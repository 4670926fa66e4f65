package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jafarshop/dropshipapi/internal/domain"
)

// SupplierRepository defines supplier data access methods
type SupplierRepository interface {
	Create(ctx context.Context, supplier *domain.Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Supplier, error)
	Update(ctx context.Context, supplier *domain.Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SupplierIntegrationRepository defines integration data access methods
type SupplierIntegrationRepository interface {
	Create(ctx context.Context, integration *domain.SupplierIntegration) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SupplierIntegration, error)
	GetActiveBySupplierID(ctx context.Context, supplierID uuid.UUID) (*domain.SupplierIntegration, error)
	ListBySupplierID(ctx context.Context, supplierID uuid.UUID) ([]*domain.SupplierIntegration, error)
	ListNeedingSync(ctx context.Context) ([]*domain.SupplierIntegration, error)
	Update(ctx context.Context, integration *domain.SupplierIntegration) error
	// Enable atomically deactivates all sibling integrations for the same
	// supplier and activates the given one.
	Enable(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductRepository defines internal product data access methods
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	UpdatePrice(ctx context.Context, id uuid.UUID, price int64) error
	UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error
	UpdatePrimarySupplier(ctx context.Context, id uuid.UUID, supplierID *uuid.UUID) error
}

// SupplierProductRepository defines supplier catalog data access methods
type SupplierProductRepository interface {
	Create(ctx context.Context, sp *domain.SupplierProduct) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SupplierProduct, error)
	GetBySupplierSKU(ctx context.Context, supplierID uuid.UUID, sku string) (*domain.SupplierProduct, error)
	ListBySupplierID(ctx context.Context, supplierID uuid.UUID, limit, offset int) ([]*domain.SupplierProduct, error)
	Update(ctx context.Context, sp *domain.SupplierProduct) error
	UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error
	UpdatePrices(ctx context.Context, id uuid.UUID, supplierPrice int64, retailPrice *int64) error
	UpdateSyncStatus(ctx context.Context, id uuid.UUID, status domain.SyncStatus, syncErrors *string) error
	// CreateMappedProduct creates the internal product and the supplier
	// mapping for this catalog entry in a single transaction.
	CreateMappedProduct(ctx context.Context, sp *domain.SupplierProduct, product *domain.Product, mapping *domain.ProductSupplierMapping) error
	// HasOpenDropshipItems reports whether any dropship order item that
	// references this supplier product belongs to a non-terminal order.
	HasOpenDropshipItems(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductSupplierMappingRepository defines mapping data access methods
type ProductSupplierMappingRepository interface {
	Create(ctx context.Context, mapping *domain.ProductSupplierMapping) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductSupplierMapping, error)
	GetBySupplierProductID(ctx context.Context, supplierProductID uuid.UUID) (*domain.ProductSupplierMapping, error)
	ListByProductID(ctx context.Context, productID uuid.UUID) ([]*domain.ProductSupplierMapping, error)
	Update(ctx context.Context, mapping *domain.ProductSupplierMapping) error
	// MakePrimary atomically clears is_primary on all sibling mappings for
	// the product, marks the given mapping primary, and mirrors the
	// supplier onto the product's primary_supplier_id.
	MakePrimary(ctx context.Context, id uuid.UUID) error
	// Delete removes the mapping; if it was primary, the next active
	// mapping by priority_order is promoted, or primary_supplier_id is
	// cleared when none remain. Runs in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error
	UpdatePriceTimestamps(ctx context.Context, id uuid.UUID) error
	UpdateStockTimestamps(ctx context.Context, id uuid.UUID) error
}

// DropshipOrderRepository defines dropship order data access methods
type DropshipOrderRepository interface {
	// CreateWithItems persists the order and all of its items in one
	// transaction.
	CreateWithItems(ctx context.Context, order *domain.DropshipOrder, items []*domain.DropshipOrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DropshipOrder, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.DropshipOrder, error)
	ListBySupplierID(ctx context.Context, supplierID uuid.UUID, limit, offset int) ([]*domain.DropshipOrder, error)
	ListByStatus(ctx context.Context, status domain.DropshipOrderStatus, limit, offset int) ([]*domain.DropshipOrder, error)
	List(ctx context.Context, limit, offset int) ([]*domain.DropshipOrder, error)
	Update(ctx context.Context, order *domain.DropshipOrder) error
	// DeleteWithItems removes the order and its items in one transaction.
	DeleteWithItems(ctx context.Context, id uuid.UUID) error
}

// DropshipOrderItemRepository defines order item data access methods
type DropshipOrderItemRepository interface {
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.DropshipOrderItem, error)
}

// DropshipOrderEventRepository defines audit event data access methods
type DropshipOrderEventRepository interface {
	Create(ctx context.Context, event *domain.DropshipOrderEvent) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.DropshipOrderEvent, error)
}

// APIKeyRepository defines admin credential data access methods
type APIKeyRepository interface {
	GetByKey(ctx context.Context, apiKey string) (*domain.APIKey, error)
	Create(ctx context.Context, key *domain.APIKey) error
}

// IdempotencyKeyRepository defines idempotency key data access methods
type IdempotencyKeyRepository interface {
	GetByKey(ctx context.Context, key string) (*domain.IdempotencyKey, error)
	Create(ctx context.Context, key *domain.IdempotencyKey) error
}

// Repositories aggregates all repositories
type Repositories struct {
	Supplier               SupplierRepository
	SupplierIntegration    SupplierIntegrationRepository
	Product                ProductRepository
	SupplierProduct        SupplierProductRepository
	ProductSupplierMapping ProductSupplierMappingRepository
	DropshipOrder          DropshipOrderRepository
	DropshipOrderItem      DropshipOrderItemRepository
	DropshipOrderEvent     DropshipOrderEventRepository
	APIKey                 APIKeyRepository
	IdempotencyKey         IdempotencyKeyRepository
}
