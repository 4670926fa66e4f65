package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/internal/repository"
	"github.com/jafarshop/dropshipapi/internal/service"
	"github.com/jafarshop/dropshipapi/internal/supplierclient"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

// CreateIntegrationRequest represents create integration request
type CreateIntegrationRequest struct {
	SupplierID           uuid.UUID              `json:"supplier_id" binding:"required"`
	Name                 string                 `json:"name" binding:"required"`
	IntegrationType      string                 `json:"integration_type" binding:"required"`
	Configuration        map[string]interface{} `json:"configuration"`
	Authentication       map[string]interface{} `json:"authentication"`
	SyncFrequencyMinutes int                    `json:"sync_frequency_minutes"`
	AutoRetryEnabled     bool                   `json:"auto_retry_enabled"`
	MaxRetryAttempts     int                    `json:"max_retry_attempts"`
	WebhookEvents        []string               `json:"webhook_events"`
	Activate             bool                   `json:"activate"`
}

// IntegrationResponse represents the integration response
type IntegrationResponse struct {
	ID                   string   `json:"id"`
	SupplierID           string   `json:"supplier_id"`
	Name                 string   `json:"name"`
	IntegrationType      string   `json:"integration_type"`
	IsActive             bool     `json:"is_active"`
	Status               string   `json:"status"`
	SyncFrequencyMinutes int      `json:"sync_frequency_minutes"`
	AutoRetryEnabled     bool     `json:"auto_retry_enabled"`
	MaxRetryAttempts     int      `json:"max_retry_attempts"`
	ConsecutiveFailures  int      `json:"consecutive_failures"`
	TotalSyncs           int      `json:"total_syncs"`
	SuccessfulSyncs      int      `json:"successful_syncs"`
	LastSuccessfulSync   *string  `json:"last_successful_sync,omitempty"`
	LastFailedSync       *string  `json:"last_failed_sync,omitempty"`
	LastError            *string  `json:"last_error,omitempty"`
	WebhookEvents        []string `json:"webhook_events,omitempty"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

func toIntegrationResponse(i *domain.SupplierIntegration) IntegrationResponse {
	resp := IntegrationResponse{
		ID:                   i.ID.String(),
		SupplierID:           i.SupplierID.String(),
		Name:                 i.Name,
		IntegrationType:      string(i.IntegrationType),
		IsActive:             i.IsActive,
		Status:               string(i.Status),
		SyncFrequencyMinutes: i.SyncFrequencyMinutes,
		AutoRetryEnabled:     i.AutoRetryEnabled,
		MaxRetryAttempts:     i.MaxRetryAttempts,
		ConsecutiveFailures:  i.ConsecutiveFailures,
		TotalSyncs:           i.TotalSyncs,
		SuccessfulSyncs:      i.SuccessfulSyncs,
		LastError:            i.LastError,
		WebhookEvents:        i.WebhookEvents,
		CreatedAt:            i.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            i.UpdatedAt.Format(time.RFC3339),
	}

	if i.LastSuccessfulSync != nil {
		s := i.LastSuccessfulSync.Format(time.RFC3339)
		resp.LastSuccessfulSync = &s
	}
	if i.LastFailedSync != nil {
		s := i.LastFailedSync.Format(time.RFC3339)
		resp.LastFailedSync = &s
	}

	return resp
}

// HandleCreateIntegration handles POST /v1/integrations
func HandleCreateIntegration(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateIntegrationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		integration := &domain.SupplierIntegration{
			SupplierID:           req.SupplierID,
			Name:                 req.Name,
			IntegrationType:      domain.IntegrationType(req.IntegrationType),
			Configuration:        req.Configuration,
			Authentication:       req.Authentication,
			SyncFrequencyMinutes: req.SyncFrequencyMinutes,
			AutoRetryEnabled:     req.AutoRetryEnabled,
			MaxRetryAttempts:     req.MaxRetryAttempts,
			WebhookEvents:        req.WebhookEvents,
		}

		integrationService := service.NewIntegrationService(repos, client, logger)
		if err := integrationService.Create(c.Request.Context(), integration, req.Activate); err != nil {
			respondIntegrationError(c, logger, err, "failed to create integration")
			return
		}

		created, err := repos.SupplierIntegration.GetByID(c.Request.Context(), integration.ID)
		if err != nil {
			logger.Error("Failed to reload integration", zap.Error(err))
			c.JSON(http.StatusCreated, toIntegrationResponse(integration))
			return
		}

		c.JSON(http.StatusCreated, toIntegrationResponse(created))
	}
}

// HandleGetIntegration handles GET /v1/integrations/:id
func HandleGetIntegration(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		integrationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration ID"})
			return
		}

		integration, err := repos.SupplierIntegration.GetByID(c.Request.Context(), integrationID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
				return
			}
			logger.Error("Failed to get integration", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toIntegrationResponse(integration))
	}
}

// HandleListSupplierIntegrations handles GET /v1/suppliers/:id/integrations
func HandleListSupplierIntegrations(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplierID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier ID"})
			return
		}

		integrations, err := repos.SupplierIntegration.ListBySupplierID(c.Request.Context(), supplierID)
		if err != nil {
			logger.Error("Failed to list integrations", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]IntegrationResponse, len(integrations))
		for i, integration := range integrations {
			responses[i] = toIntegrationResponse(integration)
		}

		c.JSON(http.StatusOK, gin.H{"integrations": responses, "count": len(responses)})
	}
}

// HandleEnableIntegration handles POST /v1/integrations/:id/enable
func HandleEnableIntegration(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		integrationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration ID"})
			return
		}

		integrationService := service.NewIntegrationService(repos, client, logger)
		if err := integrationService.Enable(c.Request.Context(), integrationID); err != nil {
			respondIntegrationError(c, logger, err, "failed to enable integration")
			return
		}

		integration, err := repos.SupplierIntegration.GetByID(c.Request.Context(), integrationID)
		if err != nil {
			logger.Error("Failed to reload integration", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toIntegrationResponse(integration))
	}
}

// HandleDisableIntegration handles POST /v1/integrations/:id/disable
func HandleDisableIntegration(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		integrationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration ID"})
			return
		}

		integrationService := service.NewIntegrationService(repos, client, logger)
		if err := integrationService.Disable(c.Request.Context(), integrationID); err != nil {
			respondIntegrationError(c, logger, err, "failed to disable integration")
			return
		}

		integration, err := repos.SupplierIntegration.GetByID(c.Request.Context(), integrationID)
		if err != nil {
			logger.Error("Failed to reload integration", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toIntegrationResponse(integration))
	}
}

// HandleTestIntegration handles POST /v1/integrations/:id/test
func HandleTestIntegration(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		integrationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration ID"})
			return
		}

		integrationService := service.NewIntegrationService(repos, client, logger)
		result, err := integrationService.TestConnection(c.Request.Context(), integrationID)
		if err != nil {
			respondIntegrationError(c, logger, err, "failed to test integration")
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleResetIntegrationFailures handles POST /v1/integrations/:id/reset-failures
func HandleResetIntegrationFailures(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		integrationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration ID"})
			return
		}

		integrationService := service.NewIntegrationService(repos, client, logger)
		if err := integrationService.ResetFailures(c.Request.Context(), integrationID); err != nil {
			respondIntegrationError(c, logger, err, "failed to reset integration failures")
			return
		}

		integration, err := repos.SupplierIntegration.GetByID(c.Request.Context(), integrationID)
		if err != nil {
			logger.Error("Failed to reload integration", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toIntegrationResponse(integration))
	}
}

// HandleIntegrationHealth handles GET /v1/integrations/:id/health
func HandleIntegrationHealth(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		integrationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration ID"})
			return
		}

		integrationService := service.NewIntegrationService(repos, client, logger)
		score, err := integrationService.HealthScore(c.Request.Context(), integrationID)
		if err != nil {
			respondIntegrationError(c, logger, err, "failed to compute health score")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"integration_id": integrationID.String(),
			"health_score":   score,
		})
	}
}

// HandleSyncIntegration handles POST /v1/integrations/:id/sync
func HandleSyncIntegration(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		integrationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration ID"})
			return
		}

		syncService := service.NewSyncService(repos, client, logger)
		result, err := syncService.SyncIntegration(c.Request.Context(), integrationID)
		if err != nil {
			respondIntegrationError(c, logger, err, "sync failed")
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleDeleteIntegration handles DELETE /v1/integrations/:id
func HandleDeleteIntegration(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		integrationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration ID"})
			return
		}

		integrationService := service.NewIntegrationService(repos, client, logger)
		if err := integrationService.Delete(c.Request.Context(), integrationID); err != nil {
			respondIntegrationError(c, logger, err, "failed to delete integration")
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// respondIntegrationError maps service errors onto HTTP statuses
func respondIntegrationError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	switch err.(type) {
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case *errors.ErrValidation:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case *errors.ErrConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
