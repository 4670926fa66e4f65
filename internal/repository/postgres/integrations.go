package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

type supplierIntegrationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSupplierIntegrationRepository creates a new supplier integration repository
func NewSupplierIntegrationRepository(db *sql.DB, logger *zap.Logger) *supplierIntegrationRepository {
	return &supplierIntegrationRepository{
		db:     db,
		logger: logger,
	}
}

const integrationColumns = `
	id, supplier_id, name, integration_type, is_active, status,
	configuration, authentication, sync_frequency_minutes,
	auto_retry_enabled, max_retry_attempts, consecutive_failures,
	total_syncs, successful_syncs, last_successful_sync, last_failed_sync,
	last_error, webhook_events, created_at, updated_at
`

func (r *supplierIntegrationRepository) Create(ctx context.Context, integration *domain.SupplierIntegration) error {
	query := `
		INSERT INTO supplier_integrations (` + integrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	now := time.Now()
	if integration.ID == uuid.Nil {
		integration.ID = uuid.New()
	}
	if integration.CreatedAt.IsZero() {
		integration.CreatedAt = now
	}
	if integration.UpdatedAt.IsZero() {
		integration.UpdatedAt = now
	}

	configJSON, err := json.Marshal(integration.Configuration)
	if err != nil {
		return err
	}
	authJSON, err := json.Marshal(integration.Authentication)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		integration.ID,
		integration.SupplierID,
		integration.Name,
		integration.IntegrationType,
		integration.IsActive,
		integration.Status,
		configJSON,
		authJSON,
		integration.SyncFrequencyMinutes,
		integration.AutoRetryEnabled,
		integration.MaxRetryAttempts,
		integration.ConsecutiveFailures,
		integration.TotalSyncs,
		integration.SuccessfulSyncs,
		integration.LastSuccessfulSync,
		integration.LastFailedSync,
		integration.LastError,
		pq.Array(integration.WebhookEvents),
		integration.CreatedAt,
		integration.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create supplier integration", zap.Error(err))
		return err
	}

	return nil
}

func scanIntegration(row rowScanner) (*domain.SupplierIntegration, error) {
	var integration domain.SupplierIntegration
	var configJSON, authJSON []byte
	var lastSuccess, lastFailed sql.NullTime
	var lastError sql.NullString

	err := row.Scan(
		&integration.ID,
		&integration.SupplierID,
		&integration.Name,
		&integration.IntegrationType,
		&integration.IsActive,
		&integration.Status,
		&configJSON,
		&authJSON,
		&integration.SyncFrequencyMinutes,
		&integration.AutoRetryEnabled,
		&integration.MaxRetryAttempts,
		&integration.ConsecutiveFailures,
		&integration.TotalSyncs,
		&integration.SuccessfulSyncs,
		&lastSuccess,
		&lastFailed,
		&lastError,
		pq.Array(&integration.WebhookEvents),
		&integration.CreatedAt,
		&integration.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &integration.Configuration); err != nil {
			return nil, err
		}
	}
	if len(authJSON) > 0 {
		if err := json.Unmarshal(authJSON, &integration.Authentication); err != nil {
			return nil, err
		}
	}
	if lastSuccess.Valid {
		integration.LastSuccessfulSync = &lastSuccess.Time
	}
	if lastFailed.Valid {
		integration.LastFailedSync = &lastFailed.Time
	}
	if lastError.Valid {
		integration.LastError = &lastError.String
	}

	return &integration, nil
}

func (r *supplierIntegrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SupplierIntegration, error) {
	query := `SELECT ` + integrationColumns + ` FROM supplier_integrations WHERE id = $1`

	integration, err := scanIntegration(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "supplier integration", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get supplier integration by ID", zap.Error(err))
		return nil, err
	}

	return integration, nil
}

func (r *supplierIntegrationRepository) GetActiveBySupplierID(ctx context.Context, supplierID uuid.UUID) (*domain.SupplierIntegration, error) {
	query := `
		SELECT ` + integrationColumns + `
		FROM supplier_integrations
		WHERE supplier_id = $1 AND is_active = true
	`

	integration, err := scanIntegration(r.db.QueryRowContext(ctx, query, supplierID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "active supplier integration", ID: supplierID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get active supplier integration", zap.Error(err))
		return nil, err
	}

	return integration, nil
}

func (r *supplierIntegrationRepository) ListBySupplierID(ctx context.Context, supplierID uuid.UUID) ([]*domain.SupplierIntegration, error) {
	query := `
		SELECT ` + integrationColumns + `
		FROM supplier_integrations
		WHERE supplier_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, supplierID)
	if err != nil {
		r.logger.Error("Failed to list supplier integrations", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var integrations []*domain.SupplierIntegration
	for rows.Next() {
		integration, err := scanIntegration(rows)
		if err != nil {
			r.logger.Error("Failed to scan supplier integration row", zap.Error(err))
			return nil, err
		}
		integrations = append(integrations, integration)
	}

	return integrations, rows.Err()
}

// ListNeedingSync returns active automated integrations whose sync interval
// has elapsed (or that have never synced). The same predicate as
// SupplierIntegration.NeedsSync, pushed into SQL so the sync loop does not
// load the entire table.
func (r *supplierIntegrationRepository) ListNeedingSync(ctx context.Context) ([]*domain.SupplierIntegration, error) {
	query := `
		SELECT ` + integrationColumns + `
		FROM supplier_integrations
		WHERE is_active = true
		  AND integration_type IN ('api', 'webhook', 'ftp')
		  AND (last_successful_sync IS NULL
		       OR last_successful_sync <= now() - (sync_frequency_minutes * interval '1 minute'))
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list integrations needing sync", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var integrations []*domain.SupplierIntegration
	for rows.Next() {
		integration, err := scanIntegration(rows)
		if err != nil {
			r.logger.Error("Failed to scan supplier integration row", zap.Error(err))
			return nil, err
		}
		integrations = append(integrations, integration)
	}

	return integrations, rows.Err()
}

func (r *supplierIntegrationRepository) Update(ctx context.Context, integration *domain.SupplierIntegration) error {
	query := `
		UPDATE supplier_integrations
		SET name = $2, integration_type = $3, is_active = $4, status = $5,
		    configuration = $6, authentication = $7, sync_frequency_minutes = $8,
		    auto_retry_enabled = $9, max_retry_attempts = $10,
		    consecutive_failures = $11, total_syncs = $12, successful_syncs = $13,
		    last_successful_sync = $14, last_failed_sync = $15, last_error = $16,
		    webhook_events = $17, updated_at = $18
		WHERE id = $1
	`

	integration.UpdatedAt = time.Now()

	configJSON, err := json.Marshal(integration.Configuration)
	if err != nil {
		return err
	}
	authJSON, err := json.Marshal(integration.Authentication)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query,
		integration.ID,
		integration.Name,
		integration.IntegrationType,
		integration.IsActive,
		integration.Status,
		configJSON,
		authJSON,
		integration.SyncFrequencyMinutes,
		integration.AutoRetryEnabled,
		integration.MaxRetryAttempts,
		integration.ConsecutiveFailures,
		integration.TotalSyncs,
		integration.SuccessfulSyncs,
		integration.LastSuccessfulSync,
		integration.LastFailedSync,
		integration.LastError,
		pq.Array(integration.WebhookEvents),
		integration.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update supplier integration", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "supplier integration", ID: integration.ID.String()}
	}

	return nil
}

// Enable activates the integration and deactivates its siblings in one
// transaction. The sibling rows are locked first so two concurrent enables
// cannot both end up active.
func (r *supplierIntegrationRepository) Enable(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	var supplierID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT supplier_id FROM supplier_integrations WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&supplierID)
	if err == sql.ErrNoRows {
		return &errors.ErrNotFound{Resource: "supplier integration", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to lock supplier integration", zap.Error(err))
		return err
	}

	// Lock the sibling group before flipping flags
	if _, err := tx.ExecContext(ctx,
		`SELECT id FROM supplier_integrations WHERE supplier_id = $1 FOR UPDATE`,
		supplierID,
	); err != nil {
		r.logger.Error("Failed to lock sibling integrations", zap.Error(err))
		return err
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE supplier_integrations
		 SET is_active = false, status = $3, updated_at = $2
		 WHERE supplier_id = $1 AND is_active = true`,
		supplierID, now, domain.IntegrationStatusInactive,
	); err != nil {
		r.logger.Error("Failed to deactivate sibling integrations", zap.Error(err))
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE supplier_integrations
		 SET is_active = true, status = $3, updated_at = $2
		 WHERE id = $1`,
		id, now, domain.IntegrationStatusActive,
	); err != nil {
		r.logger.Error("Failed to activate supplier integration", zap.Error(err))
		return err
	}

	return tx.Commit()
}

func (r *supplierIntegrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM supplier_integrations WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete supplier integration", zap.Error(err))
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &errors.ErrNotFound{Resource: "supplier integration", ID: id.String()}
	}

	return nil
}
