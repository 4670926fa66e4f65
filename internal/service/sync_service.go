package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/internal/repository"
	"github.com/jafarshop/dropshipapi/internal/supplierclient"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

type syncService struct {
	repos   *repository.Repositories
	client  supplierclient.Client
	mapping *mappingService
	logger  *zap.Logger
	now     func() time.Time

	syncMu sync.Mutex
}

// NewSyncService creates a new price/stock sync service
func NewSyncService(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) *syncService {
	return &syncService{
		repos:   repos,
		client:  client,
		mapping: NewMappingService(repos, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// BulkUpdateStock applies stock quantities to many supplier products,
// best-effort. A failure on one line is recorded and the rest proceed.
func (s *syncService) BulkUpdateStock(ctx context.Context, updates []StockUpdateInput) *BulkSyncResult {
	result := &BulkSyncResult{TotalRequested: len(updates)}

	for _, update := range updates {
		if err := s.mapping.UpdateStock(ctx, update.SupplierProductID, update.StockQuantity); err != nil {
			s.logger.Warn("Bulk stock update: line failed",
				zap.String("supplier_product_id", update.SupplierProductID.String()),
				zap.Error(err),
			)
			continue
		}
		result.UpdatedCount++
	}

	return result
}

// BulkUpdatePrices applies supplier prices to many supplier products,
// deriving retail prices through each owning mapping, best-effort.
func (s *syncService) BulkUpdatePrices(ctx context.Context, updates []PriceUpdateInput) *BulkSyncResult {
	result := &BulkSyncResult{TotalRequested: len(updates)}

	for _, update := range updates {
		if err := s.mapping.UpdatePrice(ctx, update.SupplierProductID, update.SupplierPrice, nil); err != nil {
			s.logger.Warn("Bulk price update: line failed",
				zap.String("supplier_product_id", update.SupplierProductID.String()),
				zap.Error(err),
			)
			continue
		}
		result.UpdatedCount++
	}

	return result
}

// SyncIntegration pulls the supplier's catalog over the integration and
// applies price and stock to the matching supplier products, propagating
// through mapping rules. The integration's health state is updated with
// the outcome.
func (s *syncService) SyncIntegration(ctx context.Context, integrationID uuid.UUID) (*BulkSyncResult, error) {
	integration, err := s.repos.SupplierIntegration.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	if !integration.IsAutomated() {
		return nil, &errors.ErrValidation{
			Message: "integration type " + string(integration.IntegrationType) + " cannot be synced automatically",
		}
	}

	integrationSvc := NewIntegrationService(s.repos, s.client, s.logger)

	entries, err := s.client.FetchCatalog(ctx, integration)
	if err != nil {
		if recErr := integrationSvc.RecordFailedSync(ctx, integrationID, err.Error()); recErr != nil {
			s.logger.Error("Failed to record failed sync", zap.Error(recErr))
		}
		return nil, err
	}

	result := &BulkSyncResult{TotalRequested: len(entries)}
	for _, entry := range entries {
		if err := s.applyCatalogEntry(ctx, integration.SupplierID, entry); err != nil {
			s.logger.Warn("Catalog sync: entry failed",
				zap.String("supplier_id", integration.SupplierID.String()),
				zap.String("supplier_sku", entry.SupplierSKU),
				zap.Error(err),
			)
			continue
		}
		result.UpdatedCount++
	}

	if err := integrationSvc.RecordSuccessfulSync(ctx, integrationID); err != nil {
		s.logger.Error("Failed to record successful sync", zap.Error(err))
	}

	s.logger.Info("Catalog sync completed",
		zap.String("integration_id", integrationID.String()),
		zap.Int("updated", result.UpdatedCount),
		zap.Int("total", result.TotalRequested),
	)

	return result, nil
}

// applyCatalogEntry updates one supplier product from a catalog row.
// Unknown SKUs are inserted as unmapped catalog entries.
func (s *syncService) applyCatalogEntry(ctx context.Context, supplierID uuid.UUID, entry supplierclient.CatalogEntry) error {
	sp, err := s.repos.SupplierProduct.GetBySupplierSKU(ctx, supplierID, entry.SupplierSKU)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); !ok {
			return err
		}
		sp = &domain.SupplierProduct{
			SupplierID:           supplierID,
			SupplierSKU:          entry.SupplierSKU,
			Name:                 entry.Name,
			SupplierPrice:        entry.SupplierPrice,
			StockQuantity:        entry.StockQuantity,
			MinimumOrderQuantity: 1,
			IsActive:             true,
			SyncStatus:           domain.SyncStatusSynced,
		}
		now := s.now()
		sp.LastSyncedAt = &now
		return s.repos.SupplierProduct.Create(ctx, sp)
	}

	if err := s.mapping.UpdatePrice(ctx, sp.ID, entry.SupplierPrice, nil); err != nil {
		errMsg := err.Error()
		if recErr := s.repos.SupplierProduct.UpdateSyncStatus(ctx, sp.ID, domain.SyncStatusError, &errMsg); recErr != nil {
			s.logger.Error("Failed to record sync error", zap.Error(recErr))
		}
		return err
	}

	if err := s.mapping.UpdateStock(ctx, sp.ID, entry.StockQuantity); err != nil {
		errMsg := err.Error()
		if recErr := s.repos.SupplierProduct.UpdateSyncStatus(ctx, sp.ID, domain.SyncStatusError, &errMsg); recErr != nil {
			s.logger.Error("Failed to record sync error", zap.Error(recErr))
		}
		return err
	}

	return s.repos.SupplierProduct.UpdateSyncStatus(ctx, sp.ID, domain.SyncStatusSynced, nil)
}

// RunSyncOnce finds every automated integration whose sync interval has
// elapsed and syncs each one. Overlapping runs are serialized.
func (s *syncService) RunSyncOnce(ctx context.Context) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	integrations, err := s.repos.SupplierIntegration.ListNeedingSync(ctx)
	if err != nil {
		s.logger.Error("Failed to list integrations due for sync", zap.Error(err))
		return
	}

	for _, integration := range integrations {
		if _, err := s.SyncIntegration(ctx, integration.ID); err != nil {
			s.logger.Error("Scheduled sync failed",
				zap.String("integration_id", integration.ID.String()),
				zap.String("supplier_id", integration.SupplierID.String()),
				zap.Error(err),
			)
		}
	}
}

// RunSyncLoop ticks RunSyncOnce at the given interval until ctx is done.
// Intended to run in its own goroutine from main.
func (s *syncService) RunSyncLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Supplier sync loop started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Supplier sync loop stopped")
			return
		case <-ticker.C:
			s.RunSyncOnce(ctx)
		}
	}
}
