package service

import (
	"github.com/google/uuid"
)

// CreateDropshipOrderRequest is the payload routing part of an internal
// order to a supplier
type CreateDropshipOrderRequest struct {
	OrderID         uuid.UUID                 `json:"order_id" binding:"required"`
	SupplierID      uuid.UUID                 `json:"supplier_id" binding:"required"`
	ShippingAddress map[string]interface{}    `json:"shipping_address" binding:"required"`
	Items           []DropshipOrderItemInput  `json:"items" binding:"required,min=1"`
	AutoRetryEnabled bool                     `json:"auto_retry_enabled"`
	MaxRetryAttempts int                      `json:"max_retry_attempts"`
	Notes           *string                   `json:"notes,omitempty"`
}

// DropshipOrderItemInput is one requested line of a dropship order
type DropshipOrderItemInput struct {
	OrderItemID       uuid.UUID `json:"order_item_id" binding:"required"`
	SupplierProductID uuid.UUID `json:"supplier_product_id" binding:"required"`
	Quantity          int       `json:"quantity" binding:"required,min=1"`
	RetailPrice       int64     `json:"retail_price" binding:"min=0"`
}

// ConfirmDropshipOrderRequest carries the supplier's confirmation
type ConfirmDropshipOrderRequest struct {
	SupplierOrderID   string                 `json:"supplier_order_id" binding:"required"`
	SupplierResponse  map[string]interface{} `json:"supplier_response,omitempty"`
	EstimatedDelivery *string                `json:"estimated_delivery,omitempty"` // RFC 3339 date
}

// ShipDropshipOrderRequest carries tracking information
type ShipDropshipOrderRequest struct {
	TrackingNumber    string  `json:"tracking_number" binding:"required"`
	Carrier           *string `json:"carrier,omitempty"`
	EstimatedDelivery *string `json:"estimated_delivery,omitempty"`
}

// BulkStatusUpdateRequest applies one target status to many orders
type BulkStatusUpdateRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1"`
	Status   string      `json:"status" binding:"required"`
	Reason   *string     `json:"reason,omitempty"`
}

// BulkStatusResult is the tally of a best-effort batch transition.
// Individual failures are collected, not propagated.
type BulkStatusResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// BulkSyncResult is the tally of a best-effort bulk sync/update
type BulkSyncResult struct {
	UpdatedCount   int `json:"updated_count"`
	TotalRequested int `json:"total_requested"`
}

// StockUpdateInput is one line of a bulk stock update
type StockUpdateInput struct {
	SupplierProductID uuid.UUID `json:"supplier_product_id" binding:"required"`
	StockQuantity     int       `json:"stock_quantity" binding:"min=0"`
}

// PriceUpdateInput is one line of a bulk price update
type PriceUpdateInput struct {
	SupplierProductID uuid.UUID `json:"supplier_product_id" binding:"required"`
	SupplierPrice     int64     `json:"supplier_price" binding:"min=0"`
}

// CreateMappedProductRequest creates an internal product from a supplier
// catalog entry plus its mapping, atomically. The supplier product is
// identified by the route path, so the body may omit it.
type CreateMappedProductRequest struct {
	SupplierProductID     uuid.UUID `json:"supplier_product_id"`
	MarkupType            string    `json:"markup_type" binding:"required"`
	MarkupPercentage      float64   `json:"markup_percentage" binding:"min=0"`
	FixedMarkup           int64     `json:"fixed_markup" binding:"min=0"`
	IsPrimary             bool      `json:"is_primary"`
	PriorityOrder         int       `json:"priority_order"`
	AutoUpdatePrice       bool      `json:"auto_update_price"`
	AutoUpdateStock       bool      `json:"auto_update_stock"`
	AutoUpdateDescription bool      `json:"auto_update_description"`
	MinimumStockThreshold int       `json:"minimum_stock_threshold" binding:"min=0"`
}
