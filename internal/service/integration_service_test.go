package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

func TestIntegrationCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("starts inactive by default", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewIntegrationService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)

		integration := &domain.SupplierIntegration{
			SupplierID:           supplier.ID,
			Name:                 "nightly feed",
			IntegrationType:      domain.IntegrationTypeAPI,
			SyncFrequencyMinutes: 60,
		}
		require.NoError(t, svc.Create(ctx, integration, false))

		stored := store.integrations[integration.ID]
		assert.False(t, stored.IsActive)
		assert.Equal(t, domain.IntegrationStatusInactive, stored.Status)
	})

	t.Run("activation deactivates the supplier's other integrations", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewIntegrationService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		existing := seedIntegration(store, supplier.ID, domain.IntegrationTypeFTP)

		integration := &domain.SupplierIntegration{
			SupplierID:           supplier.ID,
			Name:                 "replacement API feed",
			IntegrationType:      domain.IntegrationTypeAPI,
			SyncFrequencyMinutes: 15,
		}
		require.NoError(t, svc.Create(ctx, integration, true))

		assert.True(t, store.integrations[integration.ID].IsActive)
		assert.False(t, store.integrations[existing.ID].IsActive)
		assert.Equal(t, domain.IntegrationStatusInactive, store.integrations[existing.ID].Status)
	})

	t.Run("rejects unknown integration types", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewIntegrationService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)

		err := svc.Create(ctx, &domain.SupplierIntegration{
			SupplierID:           supplier.ID,
			IntegrationType:      "carrier_pigeon",
			SyncFrequencyMinutes: 60,
		}, false)
		assert.IsType(t, &errors.ErrValidation{}, err)
	})

	t.Run("rejects sub-minute sync frequency", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewIntegrationService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)

		err := svc.Create(ctx, &domain.SupplierIntegration{
			SupplierID:           supplier.ID,
			IntegrationType:      domain.IntegrationTypeAPI,
			SyncFrequencyMinutes: 0,
		}, false)
		assert.IsType(t, &errors.ErrValidation{}, err)
	})

	t.Run("rejects unknown suppliers", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewIntegrationService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		delete(store.suppliers, supplier.ID)

		err := svc.Create(ctx, &domain.SupplierIntegration{
			SupplierID:           supplier.ID,
			IntegrationType:      domain.IntegrationTypeAPI,
			SyncFrequencyMinutes: 60,
		}, false)
		assert.IsType(t, &errors.ErrNotFound{}, err)
	})
}

func TestSyncBookkeeping(t *testing.T) {
	ctx := context.Background()

	t.Run("successful sync clears the failure streak", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewIntegrationService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		integration := seedIntegration(store, supplier.ID, domain.IntegrationTypeAPI)
		integration.ConsecutiveFailures = 2
		integration.Status = domain.IntegrationStatusError

		require.NoError(t, svc.RecordSuccessfulSync(ctx, integration.ID))

		stored := store.integrations[integration.ID]
		assert.Equal(t, 0, stored.ConsecutiveFailures)
		assert.Equal(t, domain.IntegrationStatusActive, stored.Status)
		assert.Equal(t, 1, stored.TotalSyncs)
		assert.Equal(t, 1, stored.SuccessfulSyncs)
		assert.NotNil(t, stored.LastSuccessfulSync)
	})

	t.Run("third consecutive failure flips the status to error", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewIntegrationService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		integration := seedIntegration(store, supplier.ID, domain.IntegrationTypeAPI)

		require.NoError(t, svc.RecordFailedSync(ctx, integration.ID, "timeout"))
		require.NoError(t, svc.RecordFailedSync(ctx, integration.ID, "timeout"))
		assert.Equal(t, domain.IntegrationStatusActive, store.integrations[integration.ID].Status)

		require.NoError(t, svc.RecordFailedSync(ctx, integration.ID, "timeout"))

		stored := store.integrations[integration.ID]
		assert.Equal(t, 3, stored.ConsecutiveFailures)
		assert.Equal(t, domain.IntegrationStatusError, stored.Status)
		assert.Equal(t, 3, stored.TotalSyncs)
		require.NotNil(t, stored.LastError)
		assert.Equal(t, "timeout", *stored.LastError)
	})

	t.Run("reset clears failures and the last error", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewIntegrationService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		integration := seedIntegration(store, supplier.ID, domain.IntegrationTypeAPI)
		msg := "bad credentials"
		integration.ConsecutiveFailures = 4
		integration.Status = domain.IntegrationStatusError
		integration.LastError = &msg

		require.NoError(t, svc.ResetFailures(ctx, integration.ID))

		stored := store.integrations[integration.ID]
		assert.Equal(t, 0, stored.ConsecutiveFailures)
		assert.Nil(t, stored.LastError)
		assert.Equal(t, domain.IntegrationStatusActive, stored.Status)
	})
}

func TestEnableDisableDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("enable deactivates siblings", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewIntegrationService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		active := seedIntegration(store, supplier.ID, domain.IntegrationTypeAPI)
		dormant := seedIntegration(store, supplier.ID, domain.IntegrationTypeFTP)
		dormant.IsActive = false
		dormant.Status = domain.IntegrationStatusInactive

		require.NoError(t, svc.Enable(ctx, dormant.ID))

		assert.True(t, store.integrations[dormant.ID].IsActive)
		assert.False(t, store.integrations[active.ID].IsActive)
	})

	t.Run("active integration refuses deletion", func(t *testing.T) {
		repos, store := newFakeRepos()
		svc := NewIntegrationService(repos, &fakeClient{}, zap.NewNop())
		supplier := seedSupplier(store, domain.SupplierStatusActive)
		integration := seedIntegration(store, supplier.ID, domain.IntegrationTypeAPI)

		err := svc.Delete(ctx, integration.ID)
		assert.IsType(t, &errors.ErrConflict{}, err)

		require.NoError(t, svc.Disable(ctx, integration.ID))
		require.NoError(t, svc.Delete(ctx, integration.ID))
		_, exists := store.integrations[integration.ID]
		assert.False(t, exists)
	})
}

func TestIntegrationHealthScore(t *testing.T) {
	ctx := context.Background()

	repos, store := newFakeRepos()
	svc := NewIntegrationService(repos, &fakeClient{}, zap.NewNop())
	supplier := seedSupplier(store, domain.SupplierStatusActive)
	integration := seedIntegration(store, supplier.ID, domain.IntegrationTypeAPI)

	// never synced, no history
	score, err := svc.HealthScore(ctx, integration.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, score)
}

func TestTestConnection(t *testing.T) {
	ctx := context.Background()

	repos, store := newFakeRepos()
	client := &fakeClient{}
	svc := NewIntegrationService(repos, client, zap.NewNop())
	supplier := seedSupplier(store, domain.SupplierStatusActive)
	integration := seedIntegration(store, supplier.ID, domain.IntegrationTypeAPI)

	result, err := svc.TestConnection(ctx, integration.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)

	// probing never mutates the integration
	assert.Equal(t, 0, store.integrations[integration.ID].TotalSyncs)
}
