package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/internal/repository"
	"github.com/jafarshop/dropshipapi/internal/supplierclient"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

// consecutive failures at or beyond this flip the integration to error
const failureThreshold = 3

type integrationService struct {
	repos  *repository.Repositories
	client supplierclient.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewIntegrationService creates a new supplier integration service
func NewIntegrationService(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) *integrationService {
	return &integrationService{
		repos:  repos,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Create registers a new integration for a supplier. Integrations start
// inactive unless explicitly activated, in which case siblings are
// deactivated in the same transaction.
func (s *integrationService) Create(ctx context.Context, integration *domain.SupplierIntegration, activate bool) error {
	if !integration.IntegrationType.IsValid() {
		return &errors.ErrValidation{Message: fmt.Sprintf("invalid integration type %q", integration.IntegrationType)}
	}
	if integration.SyncFrequencyMinutes < 1 {
		return &errors.ErrValidation{Message: "sync_frequency_minutes must be at least 1"}
	}

	if _, err := s.repos.Supplier.GetByID(ctx, integration.SupplierID); err != nil {
		return err
	}

	integration.IsActive = false
	integration.Status = domain.IntegrationStatusInactive

	if err := s.repos.SupplierIntegration.Create(ctx, integration); err != nil {
		return err
	}

	if activate {
		if err := s.repos.SupplierIntegration.Enable(ctx, integration.ID); err != nil {
			return err
		}
		integration.IsActive = true
		integration.Status = domain.IntegrationStatusActive
	}

	return nil
}

// TestConnection probes the supplier endpoint. It never mutates the
// integration; the caller decides whether to record the outcome.
func (s *integrationService) TestConnection(ctx context.Context, integrationID uuid.UUID) (*supplierclient.TestResult, error) {
	integration, err := s.repos.SupplierIntegration.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	return s.client.TestConnection(ctx, integration), nil
}

// RecordSuccessfulSync clears the failure streak and stamps the sync time
func (s *integrationService) RecordSuccessfulSync(ctx context.Context, integrationID uuid.UUID) error {
	integration, err := s.repos.SupplierIntegration.GetByID(ctx, integrationID)
	if err != nil {
		return err
	}

	now := s.now()
	integration.LastSuccessfulSync = &now
	integration.ConsecutiveFailures = 0
	integration.Status = domain.IntegrationStatusActive
	integration.TotalSyncs++
	integration.SuccessfulSyncs++

	return s.repos.SupplierIntegration.Update(ctx, integration)
}

// RecordFailedSync increments the failure streak; at the threshold the
// integration drops into error status.
func (s *integrationService) RecordFailedSync(ctx context.Context, integrationID uuid.UUID, errorMessage string) error {
	integration, err := s.repos.SupplierIntegration.GetByID(ctx, integrationID)
	if err != nil {
		return err
	}

	now := s.now()
	integration.LastFailedSync = &now
	integration.ConsecutiveFailures++
	integration.LastError = &errorMessage
	integration.TotalSyncs++
	if integration.ConsecutiveFailures >= failureThreshold {
		integration.Status = domain.IntegrationStatusError
	}

	if err := s.repos.SupplierIntegration.Update(ctx, integration); err != nil {
		return err
	}

	s.logger.Warn("Supplier integration sync failed",
		zap.String("integration_id", integrationID.String()),
		zap.Int("consecutive_failures", integration.ConsecutiveFailures),
		zap.String("error", errorMessage),
	)

	return nil
}

// ResetFailures clears the failure state. Only meaningful once the
// underlying problem has been resolved on the supplier side.
func (s *integrationService) ResetFailures(ctx context.Context, integrationID uuid.UUID) error {
	integration, err := s.repos.SupplierIntegration.GetByID(ctx, integrationID)
	if err != nil {
		return err
	}

	integration.ConsecutiveFailures = 0
	integration.LastError = nil
	integration.Status = domain.IntegrationStatusActive

	return s.repos.SupplierIntegration.Update(ctx, integration)
}

// Enable activates the integration, deactivating all siblings for the
// same supplier in one transaction.
func (s *integrationService) Enable(ctx context.Context, integrationID uuid.UUID) error {
	return s.repos.SupplierIntegration.Enable(ctx, integrationID)
}

// Disable deactivates the integration. Historical counters are kept.
func (s *integrationService) Disable(ctx context.Context, integrationID uuid.UUID) error {
	integration, err := s.repos.SupplierIntegration.GetByID(ctx, integrationID)
	if err != nil {
		return err
	}

	integration.IsActive = false
	integration.Status = domain.IntegrationStatusInactive

	return s.repos.SupplierIntegration.Update(ctx, integration)
}

// Delete removes an integration. Active integrations must be disabled
// first.
func (s *integrationService) Delete(ctx context.Context, integrationID uuid.UUID) error {
	integration, err := s.repos.SupplierIntegration.GetByID(ctx, integrationID)
	if err != nil {
		return err
	}

	if integration.IsActive {
		return &errors.ErrConflict{Message: "active integration cannot be deleted; disable it first"}
	}

	return s.repos.SupplierIntegration.Delete(ctx, integrationID)
}

// HealthScore derives the integration's 0-100 reliability score
func (s *integrationService) HealthScore(ctx context.Context, integrationID uuid.UUID) (int, error) {
	integration, err := s.repos.SupplierIntegration.GetByID(ctx, integrationID)
	if err != nil {
		return 0, err
	}

	return integration.HealthScore(s.now()), nil
}
