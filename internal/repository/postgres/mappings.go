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

type productSupplierMappingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductSupplierMappingRepository creates a new mapping repository
func NewProductSupplierMappingRepository(db *sql.DB, logger *zap.Logger) *productSupplierMappingRepository {
	return &productSupplierMappingRepository{
		db:     db,
		logger: logger,
	}
}

const mappingColumns = `
	id, product_id, supplier_id, supplier_product_id, is_primary, is_active,
	priority_order, markup_type, markup_percentage, fixed_markup,
	auto_update_price, auto_update_stock, auto_update_description,
	minimum_stock_threshold, last_price_update, last_stock_update,
	created_at, updated_at
`

func (r *productSupplierMappingRepository) Create(ctx context.Context, mapping *domain.ProductSupplierMapping) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = now
	}
	if mapping.UpdatedAt.IsZero() {
		mapping.UpdatedAt = now
	}

	if mapping.IsPrimary {
		// Lock the sibling group so two inserts cannot both become primary
		if _, err := tx.ExecContext(ctx,
			`SELECT id FROM product_supplier_mappings WHERE product_id = $1 FOR UPDATE`,
			mapping.ProductID,
		); err != nil {
			r.logger.Error("Failed to lock sibling mappings", zap.Error(err))
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE product_supplier_mappings SET is_primary = false, updated_at = $2 WHERE product_id = $1 AND is_primary = true`,
			mapping.ProductID, now,
		); err != nil {
			r.logger.Error("Failed to clear sibling primary flags", zap.Error(err))
			return err
		}
	}

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

	// The mapped supplier product must carry the link, or price/stock
	// sync skips it
	if _, err := tx.ExecContext(ctx,
		`UPDATE supplier_products SET product_id = $2, is_mapped = true, updated_at = $3 WHERE id = $1`,
		mapping.SupplierProductID, mapping.ProductID, now,
	); err != nil {
		r.logger.Error("Failed to mark supplier product mapped", zap.Error(err))
		return err
	}

	if mapping.IsPrimary {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET primary_supplier_id = $2, updated_at = $3 WHERE id = $1`,
			mapping.ProductID, mapping.SupplierID, now,
		); err != nil {
			r.logger.Error("Failed to mirror primary supplier onto product", zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func scanMapping(row rowScanner) (*domain.ProductSupplierMapping, error) {
	var m domain.ProductSupplierMapping
	var lastPriceUpdate, lastStockUpdate sql.NullTime

	err := row.Scan(
		&m.ID,
		&m.ProductID,
		&m.SupplierID,
		&m.SupplierProductID,
		&m.IsPrimary,
		&m.IsActive,
		&m.PriorityOrder,
		&m.MarkupType,
		&m.MarkupPercentage,
		&m.FixedMarkup,
		&m.AutoUpdatePrice,
		&m.AutoUpdateStock,
		&m.AutoUpdateDescription,
		&m.MinimumStockThreshold,
		&lastPriceUpdate,
		&lastStockUpdate,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastPriceUpdate.Valid {
		m.LastPriceUpdate = &lastPriceUpdate.Time
	}
	if lastStockUpdate.Valid {
		m.LastStockUpdate = &lastStockUpdate.Time
	}

	return &m, nil
}

func (r *productSupplierMappingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductSupplierMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM product_supplier_mappings WHERE id = $1`

	m, err := scanMapping(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product supplier mapping", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get mapping by ID", zap.Error(err))
		return nil, err
	}

	return m, nil
}

func (r *productSupplierMappingRepository) GetBySupplierProductID(ctx context.Context, supplierProductID uuid.UUID) (*domain.ProductSupplierMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM product_supplier_mappings WHERE supplier_product_id = $1`

	m, err := scanMapping(r.db.QueryRowContext(ctx, query, supplierProductID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product supplier mapping", ID: supplierProductID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get mapping by supplier product ID", zap.Error(err))
		return nil, err
	}

	return m, nil
}

func (r *productSupplierMappingRepository) ListByProductID(ctx context.Context, productID uuid.UUID) ([]*domain.ProductSupplierMapping, error) {
	query := `
		SELECT ` + mappingColumns + `
		FROM product_supplier_mappings
		WHERE product_id = $1
		ORDER BY priority_order ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		r.logger.Error("Failed to list mappings", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var mappings []*domain.ProductSupplierMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			r.logger.Error("Failed to scan mapping row", zap.Error(err))
			return nil, err
		}
		mappings = append(mappings, m)
	}

	return mappings, rows.Err()
}

func (r *productSupplierMappingRepository) Update(ctx context.Context, mapping *domain.ProductSupplierMapping) error {
	query := `
		UPDATE product_supplier_mappings
		SET is_active = $2, priority_order = $3, markup_type = $4,
		    markup_percentage = $5, fixed_markup = $6, auto_update_price = $7,
		    auto_update_stock = $8, auto_update_description = $9,
		    minimum_stock_threshold = $10, last_price_update = $11,
		    last_stock_update = $12, updated_at = $13
		WHERE id = $1
	`

	mapping.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		mapping.ID,
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
		mapping.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update mapping", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "product supplier mapping", ID: mapping.ID.String()}
	}

	return nil
}

// MakePrimary clears is_primary on all sibling mappings for the product,
// marks the given mapping primary, and mirrors the supplier onto the
// product row. The sibling group is locked for the duration so two
// concurrent calls cannot both succeed.
func (r *productSupplierMappingRepository) MakePrimary(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	var productID, supplierID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT product_id, supplier_id FROM product_supplier_mappings WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&productID, &supplierID)
	if err == sql.ErrNoRows {
		return &errors.ErrNotFound{Resource: "product supplier mapping", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to lock mapping", zap.Error(err))
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`SELECT id FROM product_supplier_mappings WHERE product_id = $1 FOR UPDATE`,
		productID,
	); err != nil {
		r.logger.Error("Failed to lock sibling mappings", zap.Error(err))
		return err
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE product_supplier_mappings SET is_primary = false, updated_at = $2 WHERE product_id = $1 AND is_primary = true`,
		productID, now,
	); err != nil {
		r.logger.Error("Failed to clear sibling primary flags", zap.Error(err))
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE product_supplier_mappings SET is_primary = true, updated_at = $2 WHERE id = $1`,
		id, now,
	); err != nil {
		r.logger.Error("Failed to set primary flag", zap.Error(err))
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET primary_supplier_id = $2, updated_at = $3 WHERE id = $1`,
		productID, supplierID, now,
	); err != nil {
		r.logger.Error("Failed to mirror primary supplier onto product", zap.Error(err))
		return err
	}

	return tx.Commit()
}

// Delete removes the mapping. If it was primary, the next active mapping by
// priority_order is promoted; when none remain the product's
// primary_supplier_id is cleared. Deactivating a primary mapping does not
// promote a successor; only deletion does.
func (r *productSupplierMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	var productID uuid.UUID
	var wasPrimary bool
	err = tx.QueryRowContext(ctx,
		`SELECT product_id, is_primary FROM product_supplier_mappings WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&productID, &wasPrimary)
	if err == sql.ErrNoRows {
		return &errors.ErrNotFound{Resource: "product supplier mapping", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to lock mapping", zap.Error(err))
		return err
	}

	if wasPrimary {
		if _, err := tx.ExecContext(ctx,
			`SELECT id FROM product_supplier_mappings WHERE product_id = $1 FOR UPDATE`,
			productID,
		); err != nil {
			r.logger.Error("Failed to lock sibling mappings", zap.Error(err))
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM product_supplier_mappings WHERE id = $1`, id,
	); err != nil {
		r.logger.Error("Failed to delete mapping", zap.Error(err))
		return err
	}

	if wasPrimary {
		now := time.Now()

		var nextID uuid.UUID
		var nextSupplierID uuid.UUID
		err := tx.QueryRowContext(ctx,
			`SELECT id, supplier_id
			 FROM product_supplier_mappings
			 WHERE product_id = $1 AND is_active = true
			 ORDER BY priority_order ASC
			 LIMIT 1`,
			productID,
		).Scan(&nextID, &nextSupplierID)

		switch {
		case err == sql.ErrNoRows:
			if _, err := tx.ExecContext(ctx,
				`UPDATE products SET primary_supplier_id = NULL, updated_at = $2 WHERE id = $1`,
				productID, now,
			); err != nil {
				r.logger.Error("Failed to clear product primary supplier", zap.Error(err))
				return err
			}
		case err != nil:
			r.logger.Error("Failed to find promotion candidate", zap.Error(err))
			return err
		default:
			if _, err := tx.ExecContext(ctx,
				`UPDATE product_supplier_mappings SET is_primary = true, updated_at = $2 WHERE id = $1`,
				nextID, now,
			); err != nil {
				r.logger.Error("Failed to promote mapping to primary", zap.Error(err))
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE products SET primary_supplier_id = $2, updated_at = $3 WHERE id = $1`,
				productID, nextSupplierID, now,
			); err != nil {
				r.logger.Error("Failed to mirror promoted supplier onto product", zap.Error(err))
				return err
			}
		}
	}

	return tx.Commit()
}

func (r *productSupplierMappingRepository) UpdatePriceTimestamps(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`UPDATE product_supplier_mappings SET last_price_update = $2, updated_at = $2 WHERE id = $1`,
		id, now,
	)
	if err != nil {
		r.logger.Error("Failed to update mapping price timestamp", zap.Error(err))
	}
	return err
}

func (r *productSupplierMappingRepository) UpdateStockTimestamps(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`UPDATE product_supplier_mappings SET last_stock_update = $2, updated_at = $2 WHERE id = $1`,
		id, now,
	)
	if err != nil {
		r.logger.Error("Failed to update mapping stock timestamp", zap.Error(err))
	}
	return err
}
