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
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

// CreateMappingRequest represents create mapping request
type CreateMappingRequest struct {
	ProductID             uuid.UUID `json:"product_id" binding:"required"`
	SupplierID            uuid.UUID `json:"supplier_id" binding:"required"`
	SupplierProductID     uuid.UUID `json:"supplier_product_id" binding:"required"`
	IsPrimary             bool      `json:"is_primary"`
	PriorityOrder         int       `json:"priority_order"`
	MarkupType            string    `json:"markup_type" binding:"required"`
	MarkupPercentage      float64   `json:"markup_percentage" binding:"min=0"`
	FixedMarkup           int64     `json:"fixed_markup" binding:"min=0"`
	AutoUpdatePrice       bool      `json:"auto_update_price"`
	AutoUpdateStock       bool      `json:"auto_update_stock"`
	AutoUpdateDescription bool      `json:"auto_update_description"`
	MinimumStockThreshold int       `json:"minimum_stock_threshold" binding:"min=0"`
}

// UpdateMappingPricingRequest represents a pricing write-through request
type UpdateMappingPricingRequest struct {
	SupplierPrice int64 `json:"supplier_price" binding:"min=0"`
}

// MappingResponse represents the mapping response
type MappingResponse struct {
	ID                    string  `json:"id"`
	ProductID             string  `json:"product_id"`
	SupplierID            string  `json:"supplier_id"`
	SupplierProductID     string  `json:"supplier_product_id"`
	IsPrimary             bool    `json:"is_primary"`
	IsActive              bool    `json:"is_active"`
	PriorityOrder         int     `json:"priority_order"`
	MarkupType            string  `json:"markup_type"`
	MarkupPercentage      float64 `json:"markup_percentage"`
	FixedMarkup           int64   `json:"fixed_markup"`
	AutoUpdatePrice       bool    `json:"auto_update_price"`
	AutoUpdateStock       bool    `json:"auto_update_stock"`
	AutoUpdateDescription bool    `json:"auto_update_description"`
	MinimumStockThreshold int     `json:"minimum_stock_threshold"`
	LastPriceUpdate       *string `json:"last_price_update,omitempty"`
	LastStockUpdate       *string `json:"last_stock_update,omitempty"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

func toMappingResponse(m *domain.ProductSupplierMapping) MappingResponse {
	resp := MappingResponse{
		ID:                    m.ID.String(),
		ProductID:             m.ProductID.String(),
		SupplierID:            m.SupplierID.String(),
		SupplierProductID:     m.SupplierProductID.String(),
		IsPrimary:             m.IsPrimary,
		IsActive:              m.IsActive,
		PriorityOrder:         m.PriorityOrder,
		MarkupType:            string(m.MarkupType),
		MarkupPercentage:      m.MarkupPercentage,
		FixedMarkup:           m.FixedMarkup,
		AutoUpdatePrice:       m.AutoUpdatePrice,
		AutoUpdateStock:       m.AutoUpdateStock,
		AutoUpdateDescription: m.AutoUpdateDescription,
		MinimumStockThreshold: m.MinimumStockThreshold,
		CreatedAt:             m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             m.UpdatedAt.Format(time.RFC3339),
	}

	if m.LastPriceUpdate != nil {
		s := m.LastPriceUpdate.Format(time.RFC3339)
		resp.LastPriceUpdate = &s
	}
	if m.LastStockUpdate != nil {
		s := m.LastStockUpdate.Format(time.RFC3339)
		resp.LastStockUpdate = &s
	}

	return resp
}

// HandleCreateMapping handles POST /v1/mappings
func HandleCreateMapping(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateMappingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		markupType := domain.MarkupType(req.MarkupType)
		if !markupType.IsValid() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid markup type: " + req.MarkupType})
			return
		}

		mapping := &domain.ProductSupplierMapping{
			ProductID:             req.ProductID,
			SupplierID:            req.SupplierID,
			SupplierProductID:     req.SupplierProductID,
			IsPrimary:             req.IsPrimary,
			IsActive:              true,
			PriorityOrder:         req.PriorityOrder,
			MarkupType:            markupType,
			MarkupPercentage:      req.MarkupPercentage,
			FixedMarkup:           req.FixedMarkup,
			AutoUpdatePrice:       req.AutoUpdatePrice,
			AutoUpdateStock:       req.AutoUpdateStock,
			AutoUpdateDescription: req.AutoUpdateDescription,
			MinimumStockThreshold: req.MinimumStockThreshold,
		}

		if err := repos.ProductSupplierMapping.Create(c.Request.Context(), mapping); err != nil {
			logger.Error("Failed to create mapping", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create mapping"})
			return
		}

		c.JSON(http.StatusCreated, toMappingResponse(mapping))
	}
}

// HandleGetMapping handles GET /v1/mappings/:id
func HandleGetMapping(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mappingID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mapping ID"})
			return
		}

		mapping, err := repos.ProductSupplierMapping.GetByID(c.Request.Context(), mappingID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "mapping not found"})
				return
			}
			logger.Error("Failed to get mapping", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toMappingResponse(mapping))
	}
}

// HandleListProductMappings handles GET /v1/products/:id/mappings
func HandleListProductMappings(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		mappings, err := repos.ProductSupplierMapping.ListByProductID(c.Request.Context(), productID)
		if err != nil {
			logger.Error("Failed to list mappings", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]MappingResponse, len(mappings))
		for i, m := range mappings {
			responses[i] = toMappingResponse(m)
		}

		c.JSON(http.StatusOK, gin.H{"mappings": responses, "count": len(responses)})
	}
}

// HandleMakeMappingPrimary handles POST /v1/mappings/:id/make-primary
func HandleMakeMappingPrimary(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mappingID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mapping ID"})
			return
		}

		mappingService := service.NewMappingService(repos, logger)
		if err := mappingService.MakePrimary(c.Request.Context(), mappingID); err != nil {
			respondIntegrationError(c, logger, err, "failed to make mapping primary")
			return
		}

		mapping, err := repos.ProductSupplierMapping.GetByID(c.Request.Context(), mappingID)
		if err != nil {
			logger.Error("Failed to reload mapping", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toMappingResponse(mapping))
	}
}

// HandleActivateMapping handles POST /v1/mappings/:id/activate
func HandleActivateMapping(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mappingID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mapping ID"})
			return
		}

		mappingService := service.NewMappingService(repos, logger)
		if err := mappingService.Activate(c.Request.Context(), mappingID); err != nil {
			respondIntegrationError(c, logger, err, "failed to activate mapping")
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": mappingID.String(), "is_active": true})
	}
}

// HandleDeactivateMapping handles POST /v1/mappings/:id/deactivate
func HandleDeactivateMapping(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mappingID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mapping ID"})
			return
		}

		mappingService := service.NewMappingService(repos, logger)
		if err := mappingService.Deactivate(c.Request.Context(), mappingID); err != nil {
			respondIntegrationError(c, logger, err, "failed to deactivate mapping")
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": mappingID.String(), "is_active": false})
	}
}

// HandleUpdateMappingPricing handles POST /v1/mappings/:id/update-pricing
func HandleUpdateMappingPricing(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mappingID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mapping ID"})
			return
		}

		var req UpdateMappingPricingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		mappingService := service.NewMappingService(repos, logger)
		if err := mappingService.UpdatePricing(c.Request.Context(), mappingID, req.SupplierPrice); err != nil {
			respondIntegrationError(c, logger, err, "failed to update mapping pricing")
			return
		}

		mapping, err := repos.ProductSupplierMapping.GetByID(c.Request.Context(), mappingID)
		if err != nil {
			logger.Error("Failed to reload mapping", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toMappingResponse(mapping))
	}
}

// HandleDeleteMapping handles DELETE /v1/mappings/:id
func HandleDeleteMapping(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mappingID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mapping ID"})
			return
		}

		mappingService := service.NewMappingService(repos, logger)
		if err := mappingService.Delete(c.Request.Context(), mappingID); err != nil {
			respondIntegrationError(c, logger, err, "failed to delete mapping")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
