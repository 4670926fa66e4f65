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

// CreateSupplierProductRequest represents create supplier product request
type CreateSupplierProductRequest struct {
	SupplierID           uuid.UUID `json:"supplier_id" binding:"required"`
	SupplierSKU          string    `json:"supplier_sku" binding:"required"`
	Name                 string    `json:"name" binding:"required"`
	Description          *string   `json:"description,omitempty"`
	SupplierPrice        int64     `json:"supplier_price" binding:"min=0"`
	RetailPrice          *int64    `json:"retail_price,omitempty"`
	StockQuantity        int       `json:"stock_quantity" binding:"min=0"`
	MinimumOrderQuantity int       `json:"minimum_order_quantity"`
}

// BulkStockUpdateRequest represents bulk stock update request
type BulkStockUpdateRequest struct {
	Updates []service.StockUpdateInput `json:"updates" binding:"required,min=1"`
}

// BulkPriceUpdateRequest represents bulk price update request
type BulkPriceUpdateRequest struct {
	Updates []service.PriceUpdateInput `json:"updates" binding:"required,min=1"`
}

// SupplierProductResponse represents the supplier product response
type SupplierProductResponse struct {
	ID                   string  `json:"id"`
	SupplierID           string  `json:"supplier_id"`
	ProductID            *string `json:"product_id,omitempty"`
	SupplierSKU          string  `json:"supplier_sku"`
	Name                 string  `json:"name"`
	Description          *string `json:"description,omitempty"`
	SupplierPrice        int64   `json:"supplier_price"`
	RetailPrice          *int64  `json:"retail_price,omitempty"`
	StockQuantity        int     `json:"stock_quantity"`
	MinimumOrderQuantity int     `json:"minimum_order_quantity"`
	IsActive             bool    `json:"is_active"`
	IsMapped             bool    `json:"is_mapped"`
	SyncStatus           string  `json:"sync_status"`
	SyncErrors           *string `json:"sync_errors,omitempty"`
	LastSyncedAt         *string `json:"last_synced_at,omitempty"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

func toSupplierProductResponse(sp *domain.SupplierProduct) SupplierProductResponse {
	resp := SupplierProductResponse{
		ID:                   sp.ID.String(),
		SupplierID:           sp.SupplierID.String(),
		SupplierSKU:          sp.SupplierSKU,
		Name:                 sp.Name,
		Description:          sp.Description,
		SupplierPrice:        sp.SupplierPrice,
		RetailPrice:          sp.RetailPrice,
		StockQuantity:        sp.StockQuantity,
		MinimumOrderQuantity: sp.MinimumOrderQuantity,
		IsActive:             sp.IsActive,
		IsMapped:             sp.IsMapped,
		SyncStatus:           string(sp.SyncStatus),
		SyncErrors:           sp.SyncErrors,
		CreatedAt:            sp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            sp.UpdatedAt.Format(time.RFC3339),
	}

	if sp.ProductID != nil {
		id := sp.ProductID.String()
		resp.ProductID = &id
	}
	if sp.LastSyncedAt != nil {
		s := sp.LastSyncedAt.Format(time.RFC3339)
		resp.LastSyncedAt = &s
	}

	return resp
}

// HandleCreateSupplierProduct handles POST /v1/supplier-products
func HandleCreateSupplierProduct(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSupplierProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		moq := req.MinimumOrderQuantity
		if moq < 1 {
			moq = 1
		}

		sp := &domain.SupplierProduct{
			SupplierID:           req.SupplierID,
			SupplierSKU:          req.SupplierSKU,
			Name:                 req.Name,
			Description:          req.Description,
			SupplierPrice:        req.SupplierPrice,
			RetailPrice:          req.RetailPrice,
			StockQuantity:        req.StockQuantity,
			MinimumOrderQuantity: moq,
			IsActive:             true,
			SyncStatus:           domain.SyncStatusPending,
		}

		if err := repos.SupplierProduct.Create(c.Request.Context(), sp); err != nil {
			logger.Error("Failed to create supplier product", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create supplier product"})
			return
		}

		c.JSON(http.StatusCreated, toSupplierProductResponse(sp))
	}
}

// HandleGetSupplierProduct handles GET /v1/supplier-products/:id
func HandleGetSupplierProduct(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		spID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier product ID"})
			return
		}

		sp, err := repos.SupplierProduct.GetByID(c.Request.Context(), spID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "supplier product not found"})
				return
			}
			logger.Error("Failed to get supplier product", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toSupplierProductResponse(sp))
	}
}

// HandleListSupplierProducts handles GET /v1/suppliers/:id/products
func HandleListSupplierProducts(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplierID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier ID"})
			return
		}

		limit, offset := parsePagination(c)

		products, err := repos.SupplierProduct.ListBySupplierID(c.Request.Context(), supplierID, limit, offset)
		if err != nil {
			logger.Error("Failed to list supplier products", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]SupplierProductResponse, len(products))
		for i, sp := range products {
			responses[i] = toSupplierProductResponse(sp)
		}

		c.JSON(http.StatusOK, gin.H{"supplier_products": responses, "count": len(responses)})
	}
}

// HandleBulkUpdateStock handles POST /v1/supplier-products/bulk-stock
func HandleBulkUpdateStock(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkStockUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		syncService := service.NewSyncService(repos, client, logger)
		result := syncService.BulkUpdateStock(c.Request.Context(), req.Updates)

		c.JSON(http.StatusOK, result)
	}
}

// HandleBulkUpdatePrices handles POST /v1/supplier-products/bulk-prices
func HandleBulkUpdatePrices(repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkPriceUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		syncService := service.NewSyncService(repos, client, logger)
		result := syncService.BulkUpdatePrices(c.Request.Context(), req.Updates)

		c.JSON(http.StatusOK, result)
	}
}

// HandleCreateMappedProduct handles POST /v1/supplier-products/:id/create-product
func HandleCreateMappedProduct(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		spID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier product ID"})
			return
		}

		var req service.CreateMappedProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}
		req.SupplierProductID = spID

		mappingService := service.NewMappingService(repos, logger)
		product, mapping, err := mappingService.CreateMappedProduct(c.Request.Context(), req)
		if err != nil {
			respondIntegrationError(c, logger, err, "failed to create mapped product")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"product": gin.H{
				"id":             product.ID.String(),
				"name":           product.Name,
				"sku":            product.SKU,
				"price":          product.Price,
				"stock_quantity": product.StockQuantity,
			},
			"mapping": toMappingResponse(mapping),
		})
	}
}

// HandleDeleteSupplierProduct handles DELETE /v1/supplier-products/:id
func HandleDeleteSupplierProduct(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		spID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier product ID"})
			return
		}

		mappingService := service.NewMappingService(repos, logger)
		if err := mappingService.DeleteSupplierProduct(c.Request.Context(), spID); err != nil {
			respondIntegrationError(c, logger, err, "failed to delete supplier product")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
