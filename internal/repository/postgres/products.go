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

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, sku, description, price, stock_quantity, primary_supplier_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
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
	)

	if err != nil {
		r.logger.Error("Failed to create product", zap.Error(err))
		return err
	}

	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, name, sku, description, price, stock_quantity, primary_supplier_id, is_active, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product domain.Product
	var description sql.NullString
	var primarySupplierID uuid.NullUUID

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.SKU,
		&description,
		&product.Price,
		&product.StockQuantity,
		&primarySupplierID,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get product by ID", zap.Error(err))
		return nil, err
	}

	if description.Valid {
		product.Description = &description.String
	}
	if primarySupplierID.Valid {
		product.PrimarySupplierID = &primarySupplierID.UUID
	}

	return &product, nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, sku = $3, description = $4, price = $5, stock_quantity = $6,
		    primary_supplier_id = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`

	product.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.SKU,
		product.Description,
		product.Price,
		product.StockQuantity,
		product.PrimarySupplierID,
		product.IsActive,
		product.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update product", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: product.ID.String()}
	}

	return nil
}

func (r *productRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET price = $2, updated_at = $3 WHERE id = $1`,
		id, price, time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to update product price", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}

	return nil
}

func (r *productRepository) UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock_quantity = $2, updated_at = $3 WHERE id = $1`,
		id, quantity, time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to update product stock", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}

	return nil
}

func (r *productRepository) UpdatePrimarySupplier(ctx context.Context, id uuid.UUID, supplierID *uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET primary_supplier_id = $2, updated_at = $3 WHERE id = $1`,
		id, supplierID, time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to update product primary supplier", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}

	return nil
}
