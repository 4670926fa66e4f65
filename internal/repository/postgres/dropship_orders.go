package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

type dropshipOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDropshipOrderRepository creates a new dropship order repository
func NewDropshipOrderRepository(db *sql.DB, logger *zap.Logger) *dropshipOrderRepository {
	return &dropshipOrderRepository{
		db:     db,
		logger: logger,
	}
}

const dropshipOrderColumns = `
	id, order_id, supplier_id, status, total_cost, total_retail,
	profit_margin, shipping_address, supplier_order_id, supplier_response,
	tracking_number, carrier, estimated_delivery, sent_at, integration_type,
	retry_count, max_retry_attempts, auto_retry_enabled,
	cancellation_reason, notes, created_at, updated_at
`

// CreateWithItems persists the order and its items in one transaction
func (r *dropshipOrderRepository) CreateWithItems(ctx context.Context, order *domain.DropshipOrder, items []*domain.DropshipOrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	shippingAddressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}
	supplierResponseJSON, err := json.Marshal(order.SupplierResponse)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dropship_orders (`+dropshipOrderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		order.ID,
		order.OrderID,
		order.SupplierID,
		order.Status,
		order.TotalCost,
		order.TotalRetail,
		order.ProfitMargin,
		shippingAddressJSON,
		order.SupplierOrderID,
		supplierResponseJSON,
		order.TrackingNumber,
		order.Carrier,
		order.EstimatedDelivery,
		order.SentAt,
		order.IntegrationType,
		order.RetryCount,
		order.MaxRetryAttempts,
		order.AutoRetryEnabled,
		order.CancellationReason,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to create dropship order", zap.Error(err))
		return err
	}

	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.DropshipOrderID = order.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		if item.Status == "" {
			item.Status = order.Status
		}

		detailsJSON, err := json.Marshal(item.ProductDetails)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dropship_order_items (
				id, dropship_order_id, order_item_id, supplier_product_id,
				supplier_sku, quantity, supplier_price, retail_price,
				profit_per_item, status, product_details, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			item.ID,
			item.DropshipOrderID,
			item.OrderItemID,
			item.SupplierProductID,
			item.SupplierSKU,
			item.Quantity,
			item.SupplierPrice,
			item.RetailPrice,
			item.ProfitPerItem,
			item.Status,
			detailsJSON,
			item.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to create dropship order item", zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func scanDropshipOrder(row rowScanner) (*domain.DropshipOrder, error) {
	var order domain.DropshipOrder
	var shippingJSON, responseJSON []byte
	var supplierOrderID, trackingNumber, carrier, cancellationReason, notes sql.NullString
	var integrationType sql.NullString
	var estimatedDelivery, sentAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.OrderID,
		&order.SupplierID,
		&order.Status,
		&order.TotalCost,
		&order.TotalRetail,
		&order.ProfitMargin,
		&shippingJSON,
		&supplierOrderID,
		&responseJSON,
		&trackingNumber,
		&carrier,
		&estimatedDelivery,
		&sentAt,
		&integrationType,
		&order.RetryCount,
		&order.MaxRetryAttempts,
		&order.AutoRetryEnabled,
		&cancellationReason,
		&notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(shippingJSON) > 0 {
		if err := json.Unmarshal(shippingJSON, &order.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if len(responseJSON) > 0 {
		if err := json.Unmarshal(responseJSON, &order.SupplierResponse); err != nil {
			return nil, err
		}
	}
	if supplierOrderID.Valid {
		order.SupplierOrderID = &supplierOrderID.String
	}
	if trackingNumber.Valid {
		order.TrackingNumber = &trackingNumber.String
	}
	if carrier.Valid {
		order.Carrier = &carrier.String
	}
	if estimatedDelivery.Valid {
		order.EstimatedDelivery = &estimatedDelivery.Time
	}
	if sentAt.Valid {
		order.SentAt = &sentAt.Time
	}
	if integrationType.Valid {
		t := domain.IntegrationType(integrationType.String)
		order.IntegrationType = &t
	}
	if cancellationReason.Valid {
		order.CancellationReason = &cancellationReason.String
	}
	if notes.Valid {
		order.Notes = &notes.String
	}

	return &order, nil
}

func (r *dropshipOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DropshipOrder, error) {
	query := `SELECT ` + dropshipOrderColumns + ` FROM dropship_orders WHERE id = $1`

	order, err := scanDropshipOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "dropship order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get dropship order by ID", zap.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *dropshipOrderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*domain.DropshipOrder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list dropship orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.DropshipOrder
	for rows.Next() {
		order, err := scanDropshipOrder(rows)
		if err != nil {
			r.logger.Error("Failed to scan dropship order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func (r *dropshipOrderRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.DropshipOrder, error) {
	query := `SELECT ` + dropshipOrderColumns + ` FROM dropship_orders WHERE order_id = $1 ORDER BY created_at ASC`
	return r.queryOrders(ctx, query, orderID)
}

func (r *dropshipOrderRepository) ListBySupplierID(ctx context.Context, supplierID uuid.UUID, limit, offset int) ([]*domain.DropshipOrder, error) {
	query := `
		SELECT ` + dropshipOrderColumns + `
		FROM dropship_orders
		WHERE supplier_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryOrders(ctx, query, supplierID, limit, offset)
}

func (r *dropshipOrderRepository) ListByStatus(ctx context.Context, status domain.DropshipOrderStatus, limit, offset int) ([]*domain.DropshipOrder, error) {
	query := `
		SELECT ` + dropshipOrderColumns + `
		FROM dropship_orders
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryOrders(ctx, query, status, limit, offset)
}

func (r *dropshipOrderRepository) List(ctx context.Context, limit, offset int) ([]*domain.DropshipOrder, error) {
	query := `
		SELECT ` + dropshipOrderColumns + `
		FROM dropship_orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.queryOrders(ctx, query, limit, offset)
}

func (r *dropshipOrderRepository) Update(ctx context.Context, order *domain.DropshipOrder) error {
	query := `
		UPDATE dropship_orders
		SET status = $2, total_cost = $3, total_retail = $4, profit_margin = $5,
		    supplier_order_id = $6, supplier_response = $7, tracking_number = $8,
		    carrier = $9, estimated_delivery = $10, sent_at = $11,
		    integration_type = $12, retry_count = $13, max_retry_attempts = $14,
		    auto_retry_enabled = $15, cancellation_reason = $16, notes = $17,
		    updated_at = $18
		WHERE id = $1
	`

	order.UpdatedAt = time.Now()

	supplierResponseJSON, err := json.Marshal(order.SupplierResponse)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.Status,
		order.TotalCost,
		order.TotalRetail,
		order.ProfitMargin,
		order.SupplierOrderID,
		supplierResponseJSON,
		order.TrackingNumber,
		order.Carrier,
		order.EstimatedDelivery,
		order.SentAt,
		order.IntegrationType,
		order.RetryCount,
		order.MaxRetryAttempts,
		order.AutoRetryEnabled,
		order.CancellationReason,
		order.Notes,
		order.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update dropship order", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "dropship order", ID: order.ID.String()}
	}

	return nil
}

// DeleteWithItems removes the items first, then the order, in one
// transaction.
func (r *dropshipOrderRepository) DeleteWithItems(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM dropship_order_items WHERE dropship_order_id = $1`, id,
	); err != nil {
		r.logger.Error("Failed to delete dropship order items", zap.Error(err))
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM dropship_orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete dropship order", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "dropship order", ID: id.String()}
	}

	return tx.Commit()
}
