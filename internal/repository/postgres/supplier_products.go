package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

type supplierProductRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSupplierProductRepository creates a new supplier product repository
func NewSupplierProductRepository(db *sql.DB, logger *zap.Logger) *supplierProductRepository {
	return &supplierProductRepository{
		db:     db,
		logger: logger,
	}
}

const supplierProductColumns = `
	id, supplier_id, product_id, supplier_sku, name, description,
	supplier_price, retail_price, stock_quantity, minimum_order_quantity,
	is_active, is_mapped, sync_status, sync_errors, last_synced_at,
	created_at, updated_at
`

func (r *supplierProductRepository) Create(ctx context.Context, sp *domain.SupplierProduct) error {
	query := `
		INSERT INTO supplier_products (` + supplierProductColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	now := time.Now()
	if sp.ID == uuid.Nil {
		sp.ID = uuid.New()
	}
	if sp.CreatedAt.IsZero() {
		sp.CreatedAt = now
	}
	if sp.UpdatedAt.IsZero() {
		sp.UpdatedAt = now
	}
	if sp.SyncStatus == "" {
		sp.SyncStatus = domain.SyncStatusPending
	}

	_, err := r.db.ExecContext(ctx, query,
		sp.ID,
		sp.SupplierID,
		sp.ProductID,
		sp.SupplierSKU,
		sp.Name,
		sp.Description,
		sp.SupplierPrice,
		sp.RetailPrice,
		sp.StockQuantity,
		sp.MinimumOrderQuantity,
		sp.IsActive,
		sp.IsMapped,
		sp.SyncStatus,
		sp.SyncErrors,
		sp.LastSyncedAt,
		sp.CreatedAt,
		sp.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create supplier product", zap.Error(err))
		return err
	}

	return nil
}

func scanSupplierProduct(row rowScanner) (*domain.SupplierProduct, error) {
	var sp domain.SupplierProduct
	var productID uuid.NullUUID
	var description, syncErrors sql.NullString
	var retailPrice sql.NullInt64
	var lastSyncedAt sql.NullTime

	err := row.Scan(
		&sp.ID,
		&sp.SupplierID,
		&productID,
		&sp.SupplierSKU,
		&sp.Name,
		&description,
		&sp.SupplierPrice,
		&retailPrice,
		&sp.StockQuantity,
		&sp.MinimumOrderQuantity,
		&sp.IsActive,
		&sp.IsMapped,
		&sp.SyncStatus,
		&syncErrors,
		&lastSyncedAt,
		&sp.CreatedAt,
		&sp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if productID.Valid {
		sp.ProductID = &productID.UUID
	}
	if description.Valid {
		sp.Description = &description.String
	}
	if retailPrice.Valid {
		sp.RetailPrice = &retailPrice.Int64
	}
	if syncErrors.Valid {
		sp.SyncErrors = &syncErrors.String
	}
	if lastSyncedAt.Valid {
		sp.LastSyncedAt = &lastSyncedAt.Time
	}

	return &sp, nil
}

func (r *supplierProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SupplierProduct, error) {
	query := `SELECT ` + supplierProductColumns + ` FROM supplier_products WHERE id = $1`

	sp, err := scanSupplierProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "supplier product", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get supplier product by ID", zap.Error(err))
		return nil, err
	}

	return sp, nil
}

func (r *supplierProductRepository) GetBySupplierSKU(ctx context.Context, supplierID uuid.UUID, sku string) (*domain.SupplierProduct, error) {
	query := `
		SELECT ` + supplierProductColumns + `
		FROM supplier_products
		WHERE supplier_id = $1 AND supplier_sku = $2
	`

	sp, err := scanSupplierProduct(r.db.QueryRowContext(ctx, query, supplierID, sku))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "supplier product", ID: sku}
	}
	if err != nil {
		r.logger.Error("Failed to get supplier product by SKU", zap.Error(err))
		return nil, err
	}

	return sp, nil
}

func (r *supplierProductRepository) ListBySupplierID(ctx context.Context, supplierID uuid.UUID, limit, offset int) ([]*domain.SupplierProduct, error) {
	query := `
		SELECT ` + supplierProductColumns + `
		FROM supplier_products
		WHERE supplier_id = $1
		ORDER BY supplier_sku ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, supplierID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list supplier products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []*domain.SupplierProduct
	for rows.Next() {
		sp, err := scanSupplierProduct(rows)
		if err != nil {
			r.logger.Error("Failed to scan supplier product row", zap.Error(err))
			return nil, err
		}
		products = append(products, sp)
	}

	return products, rows.Err()
}

func (r *supplierProductRepository) Update(ctx context.Context, sp *domain.SupplierProduct) error {
	query := `
		UPDATE supplier_products
		SET product_id = $2, supplier_sku = $3, name = $4, description = $5,
		    supplier_price = $6, retail_price = $7, stock_quantity = $8,
		    minimum_order_quantity = $9, is_active = $10, is_mapped = $11,
		    sync_status = $12, sync_errors = $13, last_synced_at = $14, updated_at = $15
		WHERE id = $1
	`

	sp.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		sp.ID,
		sp.ProductID,
		sp.SupplierSKU,
		sp.Name,
		sp.Description,
		sp.SupplierPrice,
		sp.RetailPrice,
		sp.StockQuantity,
		sp.MinimumOrderQuantity,
		sp.IsActive,
		sp.IsMapped,
		sp.SyncStatus,
		sp.SyncErrors,
		sp.LastSyncedAt,
		sp.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update supplier product", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "supplier product", ID: sp.ID.String()}
	}

	return nil
}

func (r *supplierProductRepository) UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE supplier_products SET stock_quantity = $2, updated_at = $3 WHERE id = $1`,
		id, quantity, time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to update supplier product stock", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "supplier product", ID: id.String()}
	}

	return nil
}

func (r *supplierProductRepository) UpdatePrices(ctx context.Context, id uuid.UUID, supplierPrice int64, retailPrice *int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE supplier_products SET supplier_price = $2, retail_price = $3, updated_at = $4 WHERE id = $1`,
		id, supplierPrice, retailPrice, time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to update supplier product prices", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "supplier product", ID: id.String()}
	}

	return nil
}

func (r *supplierProductRepository) UpdateSyncStatus(ctx context.Context, id uuid.UUID, status domain.SyncStatus, syncErrors *string) error {
	now := time.Now()
	result, err := r.db.ExecContext(ctx,
		`UPDATE supplier_products
		 SET sync_status = $2, sync_errors = $3, last_synced_at = $4, updated_at = $4
		 WHERE id = $1`,
		id, status, syncErrors, now,
	)
	if err != nil {
		r.logger.Error("Failed to update supplier product sync status", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "supplier product", ID: id.String()}
	}

	return nil
}

// CreateMappedProduct creates the internal product, flips the supplier
// product to mapped, and inserts the supplier mapping, all in one
// transaction so a crash cannot leave a mapped catalog entry without its
// mapping row.
func (r *supplierProductRepository) CreateMappedProduct(ctx context.Context, sp *domain.SupplierProduct, product *domain.Product, mapping *domain.ProductSupplierMapping) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO products (id, name, sku, description, price, stock_quantity, primary_supplier_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		product.ID,
		product.Name,
		product.SKU,
		product.Description,
		product.Price,
		product.StockQuantity,
		product.PrimarySupplierID,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to create mapped product", zap.Error(err))
		return err
	}

	sp.ProductID = &product.ID
	sp.IsMapped = true
	sp.UpdatedAt = now
	if _, err := tx.ExecContext(ctx,
		`UPDATE supplier_products SET product_id = $2, is_mapped = true, updated_at = $3 WHERE id = $1`,
		sp.ID, product.ID, now,
	); err != nil {
		r.logger.Error("Failed to mark supplier product as mapped", zap.Error(err))
		return err
	}

	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	mapping.ProductID = product.ID
	mapping.SupplierID = sp.SupplierID
	mapping.SupplierProductID = sp.ID
	mapping.CreatedAt = now
	mapping.UpdatedAt = now

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO product_supplier_mappings (`+mappingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		mapping.ID,
		mapping.ProductID,
		mapping.SupplierID,
		mapping.SupplierProductID,
		mapping.IsPrimary,
		mapping.IsActive,
		mapping.PriorityOrder,
		mapping.MarkupType,
		mapping.MarkupPercentage,
		mapping.FixedMarkup,
		mapping.AutoUpdatePrice,
		mapping.AutoUpdateStock,
		mapping.AutoUpdateDescription,
		mapping.MinimumStockThreshold,
		mapping.LastPriceUpdate,
		mapping.LastStockUpdate,
		mapping.CreatedAt,
		mapping.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to create product supplier mapping", zap.Error(err))
		return err
	}

	if mapping.IsPrimary {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET primary_supplier_id = $2, updated_at = $3 WHERE id = $1`,
			product.ID, mapping.SupplierID, now,
		); err != nil {
			r.logger.Error("Failed to set product primary supplier", zap.Error(err))
			return err
		}
		product.PrimarySupplierID = &mapping.SupplierID
	}

	return tx.Commit()
}

func (r *supplierProductRepository) HasOpenDropshipItems(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM dropship_order_items i
			JOIN dropship_orders o ON o.id = i.dropship_order_id
			WHERE i.supplier_product_id = $1
			  AND o.status NOT IN ('delivered', 'cancelled')
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		r.logger.Error("Failed to check open dropship items", zap.Error(err))
		return false, err
	}

	return exists, nil
}

func (r *supplierProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM supplier_products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete supplier product", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "supplier product", ID: id.String()}
	}

	return nil
}
