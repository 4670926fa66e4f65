package domain

// DropshipOrderStatus represents the status of a dropship order
type DropshipOrderStatus string

const (
	DropshipOrderStatusPending        DropshipOrderStatus = "pending"
	DropshipOrderStatusSentToSupplier DropshipOrderStatus = "sent_to_supplier"
	DropshipOrderStatusConfirmed      DropshipOrderStatus = "confirmed"
	DropshipOrderStatusShipped        DropshipOrderStatus = "shipped"
	DropshipOrderStatusDelivered      DropshipOrderStatus = "delivered"
	DropshipOrderStatusCancelled      DropshipOrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s DropshipOrderStatus) IsValid() bool {
	switch s {
	case DropshipOrderStatusPending,
		DropshipOrderStatusSentToSupplier,
		DropshipOrderStatusConfirmed,
		DropshipOrderStatusShipped,
		DropshipOrderStatusDelivered,
		DropshipOrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible
func (s DropshipOrderStatus) IsTerminal() bool {
	return s == DropshipOrderStatusDelivered || s == DropshipOrderStatusCancelled
}

// CanTransitionTo checks if a status transition is valid
func (s DropshipOrderStatus) CanTransitionTo(newStatus DropshipOrderStatus) bool {
	// Cancellation is allowed from any non-terminal state
	if newStatus == DropshipOrderStatusCancelled {
		return !s.IsTerminal()
	}

	switch s {
	case DropshipOrderStatusPending:
		return newStatus == DropshipOrderStatusSentToSupplier
	case DropshipOrderStatusSentToSupplier:
		return newStatus == DropshipOrderStatusConfirmed
	case DropshipOrderStatusConfirmed:
		return newStatus == DropshipOrderStatusShipped
	case DropshipOrderStatusShipped:
		return newStatus == DropshipOrderStatusDelivered
	case DropshipOrderStatusDelivered, DropshipOrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// IntegrationType represents the channel used to reach a supplier's system
type IntegrationType string

const (
	IntegrationTypeAPI     IntegrationType = "api"
	IntegrationTypeWebhook IntegrationType = "webhook"
	IntegrationTypeEmail   IntegrationType = "email"
	IntegrationTypeFTP     IntegrationType = "ftp"
	IntegrationTypeManual  IntegrationType = "manual"
)

// IsValid checks if the integration type is valid
func (t IntegrationType) IsValid() bool {
	switch t {
	case IntegrationTypeAPI, IntegrationTypeWebhook, IntegrationTypeEmail,
		IntegrationTypeFTP, IntegrationTypeManual:
		return true
	default:
		return false
	}
}

// IsAutomated reports whether the channel can be driven by the scheduled
// sync loop. Email and manual channels require a human.
func (t IntegrationType) IsAutomated() bool {
	switch t {
	case IntegrationTypeAPI, IntegrationTypeWebhook, IntegrationTypeFTP:
		return true
	default:
		return false
	}
}

// IntegrationStatus represents the operational state of an integration
type IntegrationStatus string

const (
	IntegrationStatusActive      IntegrationStatus = "active"
	IntegrationStatusInactive    IntegrationStatus = "inactive"
	IntegrationStatusError       IntegrationStatus = "error"
	IntegrationStatusMaintenance IntegrationStatus = "maintenance"
)

// IsValid checks if the integration status is valid
func (s IntegrationStatus) IsValid() bool {
	switch s {
	case IntegrationStatusActive, IntegrationStatusInactive,
		IntegrationStatusError, IntegrationStatusMaintenance:
		return true
	default:
		return false
	}
}

// SyncStatus represents a supplier product's last sync result
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusError   SyncStatus = "error"
)

// IsValid checks if the sync status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusSynced, SyncStatusError:
		return true
	default:
		return false
	}
}

// MarkupType represents how a retail price is derived from a supplier price
type MarkupType string

const (
	MarkupTypePercentage MarkupType = "percentage"
	MarkupTypeFixed      MarkupType = "fixed"
)

// IsValid checks if the markup type is valid
func (t MarkupType) IsValid() bool {
	return t == MarkupTypePercentage || t == MarkupTypeFixed
}

// SupplierStatus represents whether a supplier is open for business
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "active"
	SupplierStatusInactive SupplierStatus = "inactive"
)

// IsValid checks if the supplier status is valid
func (s SupplierStatus) IsValid() bool {
	return s == SupplierStatusActive || s == SupplierStatusInactive
}
