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

type supplierRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *sql.DB, logger *zap.Logger) *supplierRepository {
	return &supplierRepository{
		db:     db,
		logger: logger,
	}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		INSERT INTO suppliers (id, name, status, integration_type, contact_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now()
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = now
	}
	if supplier.UpdatedAt.IsZero() {
		supplier.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		supplier.ID,
		supplier.Name,
		supplier.Status,
		supplier.IntegrationType,
		supplier.ContactEmail,
		supplier.CreatedAt,
		supplier.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create supplier", zap.Error(err))
		return err
	}

	return nil
}

func (r *supplierRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	query := `
		SELECT id, name, status, integration_type, contact_email, created_at, updated_at
		FROM suppliers
		WHERE id = $1
	`

	var supplier domain.Supplier
	var contactEmail sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&supplier.ID,
		&supplier.Name,
		&supplier.Status,
		&supplier.IntegrationType,
		&contactEmail,
		&supplier.CreatedAt,
		&supplier.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "supplier", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get supplier by ID", zap.Error(err))
		return nil, err
	}

	if contactEmail.Valid {
		supplier.ContactEmail = &contactEmail.String
	}

	return &supplier, nil
}

func (r *supplierRepository) List(ctx context.Context, limit, offset int) ([]*domain.Supplier, error) {
	query := `
		SELECT id, name, status, integration_type, contact_email, created_at, updated_at
		FROM suppliers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list suppliers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var suppliers []*domain.Supplier
	for rows.Next() {
		var supplier domain.Supplier
		var contactEmail sql.NullString

		err := rows.Scan(
			&supplier.ID,
			&supplier.Name,
			&supplier.Status,
			&supplier.IntegrationType,
			&contactEmail,
			&supplier.CreatedAt,
			&supplier.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan supplier row", zap.Error(err))
			return nil, err
		}

		if contactEmail.Valid {
			supplier.ContactEmail = &contactEmail.String
		}
		suppliers = append(suppliers, &supplier)
	}

	return suppliers, rows.Err()
}

func (r *supplierRepository) Update(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $2, status = $3, integration_type = $4, contact_email = $5, updated_at = $6
		WHERE id = $1
	`

	supplier.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		supplier.ID,
		supplier.Name,
		supplier.Status,
		supplier.IntegrationType,
		supplier.ContactEmail,
		supplier.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update supplier", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "supplier", ID: supplier.ID.String()}
	}

	return nil
}

func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete supplier", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "supplier", ID: id.String()}
	}

	return nil
}
