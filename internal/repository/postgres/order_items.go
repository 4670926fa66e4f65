package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
)

type dropshipOrderItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDropshipOrderItemRepository creates a new order item repository
func NewDropshipOrderItemRepository(db *sql.DB, logger *zap.Logger) *dropshipOrderItemRepository {
	return &dropshipOrderItemRepository{
		db:     db,
		logger: logger,
	}
}

func (r *dropshipOrderItemRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.DropshipOrderItem, error) {
	query := `
		SELECT id, dropship_order_id, order_item_id, supplier_product_id,
		       supplier_sku, quantity, supplier_price, retail_price,
		       profit_per_item, status, product_details, created_at
		FROM dropship_order_items
		WHERE dropship_order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to get dropship order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*domain.DropshipOrderItem
	for rows.Next() {
		var item domain.DropshipOrderItem
		var detailsJSON []byte

		err := rows.Scan(
			&item.ID,
			&item.DropshipOrderID,
			&item.OrderItemID,
			&item.SupplierProductID,
			&item.SupplierSKU,
			&item.Quantity,
			&item.SupplierPrice,
			&item.RetailPrice,
			&item.ProfitPerItem,
			&item.Status,
			&detailsJSON,
			&item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan dropship order item row", zap.Error(err))
			return nil, err
		}

		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &item.ProductDetails); err != nil {
				return nil, err
			}
		}

		items = append(items, &item)
	}

	return items, rows.Err()
}
