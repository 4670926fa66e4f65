package domain

import (
	"time"

	"github.com/google/uuid"
)

// Supplier represents a vendor of record for dropshipped goods
type Supplier struct {
	ID              uuid.UUID
	Name            string
	Status          SupplierStatus
	IntegrationType IntegrationType
	ContactEmail    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive reports whether the supplier can receive new dropship orders
func (s *Supplier) IsActive() bool {
	return s.Status == SupplierStatusActive
}

// SupplierIntegration represents a configured channel to a supplier's system
type SupplierIntegration struct {
	ID                   uuid.UUID
	SupplierID           uuid.UUID
	Name                 string
	IntegrationType      IntegrationType
	IsActive             bool
	Status               IntegrationStatus
	Configuration        map[string]interface{} // JSONB
	Authentication       map[string]interface{} // JSONB
	SyncFrequencyMinutes int
	AutoRetryEnabled     bool
	MaxRetryAttempts     int
	ConsecutiveFailures  int
	TotalSyncs           int
	SuccessfulSyncs      int
	LastSuccessfulSync   *time.Time
	LastFailedSync       *time.Time
	LastError            *string
	WebhookEvents        []string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsAutomated reports whether the integration can be driven without a human
func (i *SupplierIntegration) IsAutomated() bool {
	return i.IntegrationType.IsAutomated()
}

// NeedsSync reports whether the scheduled sync loop should pick this
// integration up right now.
func (i *SupplierIntegration) NeedsSync(now time.Time) bool {
	if !i.IsAutomated() || !i.IsActive {
		return false
	}
	if i.LastSuccessfulSync == nil {
		return true
	}
	freq := time.Duration(i.SyncFrequencyMinutes) * time.Minute
	return now.Sub(*i.LastSuccessfulSync) >= freq
}

// CanRetry reports whether another automatic attempt is permitted
func (i *SupplierIntegration) CanRetry() bool {
	return i.AutoRetryEnabled && i.ConsecutiveFailures < i.MaxRetryAttempts
}

// SuccessRate returns the fraction of syncs that succeeded, in [0, 1].
// An integration with no history counts as fully healthy.
func (i *SupplierIntegration) SuccessRate() float64 {
	if i.TotalSyncs == 0 {
		return 1.0
	}
	return float64(i.SuccessfulSyncs) / float64(i.TotalSyncs)
}

// Health score weighting: 50 points for the historical success rate,
// 30 for recency of the last successful sync, 20 for the absence of
// consecutive failures. Monotonic: more recent success and fewer
// failures always score higher.
const (
	healthSuccessRateWeight = 50
	healthRecencyWeight     = 30
	healthFailureWeight     = 20
	healthFailurePenalty    = 5
)

// HealthScore derives a 0-100 reliability score for the integration
func (i *SupplierIntegration) HealthScore(now time.Time) int {
	score := int(i.SuccessRate() * healthSuccessRateWeight)

	if i.LastSuccessfulSync != nil {
		age := now.Sub(*i.LastSuccessfulSync)
		switch {
		case age <= time.Hour:
			score += healthRecencyWeight
		case age <= 24*time.Hour:
			score += healthRecencyWeight * 2 / 3
		case age <= 7*24*time.Hour:
			score += healthRecencyWeight / 3
		}
	}

	penalty := i.ConsecutiveFailures * healthFailurePenalty
	if penalty > healthFailureWeight {
		penalty = healthFailureWeight
	}
	score += healthFailureWeight - penalty

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Product represents an internal catalog product sold to customers
type Product struct {
	ID                uuid.UUID
	Name              string
	SKU               string
	Description       *string
	Price             int64 // minor currency units
	StockQuantity     int
	PrimarySupplierID *uuid.UUID
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SupplierProduct represents a supplier's catalog entry
type SupplierProduct struct {
	ID                   uuid.UUID
	SupplierID           uuid.UUID
	ProductID            *uuid.UUID // nil until mapped
	SupplierSKU          string
	Name                 string
	Description          *string
	SupplierPrice        int64 // minor currency units
	RetailPrice          *int64
	StockQuantity        int
	MinimumOrderQuantity int
	IsActive             bool
	IsMapped             bool
	SyncStatus           SyncStatus
	SyncErrors           *string
	LastSyncedAt         *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ProductSupplierMapping binds an internal product to a supplier's catalog
// entry with markup rules and primary/priority ordering
type ProductSupplierMapping struct {
	ID                    uuid.UUID
	ProductID             uuid.UUID
	SupplierID            uuid.UUID
	SupplierProductID     uuid.UUID
	IsPrimary             bool
	IsActive              bool
	PriorityOrder         int
	MarkupType            MarkupType
	MarkupPercentage      float64
	FixedMarkup           int64
	AutoUpdatePrice       bool
	AutoUpdateStock       bool
	AutoUpdateDescription bool
	MinimumStockThreshold int
	LastPriceUpdate       *time.Time
	LastStockUpdate       *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CanUpdatePrice gates automated price write-through for this mapping.
// The supplier product's own active flag is checked by the caller, which
// holds the loaded row.
func (m *ProductSupplierMapping) CanUpdatePrice(supplierProductActive bool) bool {
	return m.AutoUpdatePrice && m.IsActive && supplierProductActive
}

// CanUpdateStock gates automated stock write-through for this mapping
func (m *ProductSupplierMapping) CanUpdateStock(supplierProductActive bool) bool {
	return m.AutoUpdateStock && m.IsActive && supplierProductActive
}

// DropshipOrder represents the fulfillment record sent to a supplier for a
// subset of an internal order's items
type DropshipOrder struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	SupplierID        uuid.UUID
	Status            DropshipOrderStatus
	TotalCost         int64 // minor currency units
	TotalRetail       int64
	ProfitMargin      int64 // TotalRetail - TotalCost
	ShippingAddress   map[string]interface{} // JSONB
	SupplierOrderID   *string                // set on confirmation
	SupplierResponse  map[string]interface{} // JSONB
	TrackingNumber    *string
	Carrier           *string
	EstimatedDelivery *time.Time
	SentAt            *time.Time
	IntegrationType   *IntegrationType // channel used when sent
	RetryCount        int
	MaxRetryAttempts  int
	AutoRetryEnabled  bool
	CancellationReason *string
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanRetry reports whether the explicit retry workflow may run.
// Delivered and cancelled orders are never retried.
func (o *DropshipOrder) CanRetry() bool {
	if o.Status.IsTerminal() {
		return false
	}
	return o.AutoRetryEnabled && o.RetryCount < o.MaxRetryAttempts
}

// IsDeletable reports whether the order may be removed along with its items
func (o *DropshipOrder) IsDeletable() bool {
	return o.Status == DropshipOrderStatusPending || o.Status == DropshipOrderStatusCancelled
}

// DropshipOrderItem represents a line of a dropship order
type DropshipOrderItem struct {
	ID                uuid.UUID
	DropshipOrderID   uuid.UUID
	OrderItemID       uuid.UUID
	SupplierProductID uuid.UUID
	SupplierSKU       string
	Quantity          int
	SupplierPrice     int64
	RetailPrice       int64
	ProfitPerItem     int64 // RetailPrice - SupplierPrice
	Status            DropshipOrderStatus
	ProductDetails    map[string]interface{} // JSONB snapshot
	CreatedAt         time.Time
}

// DropshipOrderEvent represents an audit event for a dropship order
type DropshipOrderEvent struct {
	ID              uuid.UUID
	DropshipOrderID uuid.UUID
	EventType       string
	ActorID         *uuid.UUID
	EventData       map[string]interface{} // JSONB
	CreatedAt       time.Time
}

// APIKey represents an admin credential with an attached permission set
type APIKey struct {
	ID          uuid.UUID
	Name        string
	KeyHash     string
	Permissions []string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasPermission checks the key's permission set. The wildcard "*" grants
// everything.
func (k *APIKey) HasPermission(permission string) bool {
	for _, p := range k.Permissions {
		if p == permission || p == "*" {
			return true
		}
	}
	return false
}

// IdempotencyKey stores idempotency information for order creation
type IdempotencyKey struct {
	Key             string
	DropshipOrderID uuid.UUID
	RequestHash     string
	CreatedAt       time.Time
}
