package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/internal/repository"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

// CreateSupplierRequest represents create supplier request
type CreateSupplierRequest struct {
	Name            string  `json:"name" binding:"required"`
	Status          string  `json:"status"`
	IntegrationType string  `json:"integration_type" binding:"required"`
	ContactEmail    *string `json:"contact_email,omitempty"`
}

// UpdateSupplierRequest represents update supplier request
type UpdateSupplierRequest struct {
	Name            *string `json:"name,omitempty"`
	Status          *string `json:"status,omitempty"`
	IntegrationType *string `json:"integration_type,omitempty"`
	ContactEmail    *string `json:"contact_email,omitempty"`
}

// SupplierResponse represents the supplier response
type SupplierResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	IntegrationType string  `json:"integration_type"`
	ContactEmail    *string `json:"contact_email,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func toSupplierResponse(s *domain.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:              s.ID.String(),
		Name:            s.Name,
		Status:          string(s.Status),
		IntegrationType: string(s.IntegrationType),
		ContactEmail:    s.ContactEmail,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       s.UpdatedAt.Format(time.RFC3339),
	}
}

// HandleCreateSupplier handles POST /v1/suppliers
func HandleCreateSupplier(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSupplierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		status := domain.SupplierStatus(req.Status)
		if req.Status == "" {
			status = domain.SupplierStatusActive
		}
		if !status.IsValid() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid supplier status: " + req.Status})
			return
		}

		integrationType := domain.IntegrationType(req.IntegrationType)
		if !integrationType.IsValid() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid integration type: " + req.IntegrationType})
			return
		}

		supplier := &domain.Supplier{
			Name:            req.Name,
			Status:          status,
			IntegrationType: integrationType,
			ContactEmail:    req.ContactEmail,
		}

		if err := repos.Supplier.Create(c.Request.Context(), supplier); err != nil {
			logger.Error("Failed to create supplier", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create supplier"})
			return
		}

		c.JSON(http.StatusCreated, toSupplierResponse(supplier))
	}
}

// HandleGetSupplier handles GET /v1/suppliers/:id
func HandleGetSupplier(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplierID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier ID"})
			return
		}

		supplier, err := repos.Supplier.GetByID(c.Request.Context(), supplierID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
				return
			}
			logger.Error("Failed to get supplier", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toSupplierResponse(supplier))
	}
}

// HandleListSuppliers handles GET /v1/suppliers
func HandleListSuppliers(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := parsePagination(c)

		suppliers, err := repos.Supplier.List(c.Request.Context(), limit, offset)
		if err != nil {
			logger.Error("Failed to list suppliers", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]SupplierResponse, len(suppliers))
		for i, s := range suppliers {
			responses[i] = toSupplierResponse(s)
		}

		c.JSON(http.StatusOK, gin.H{"suppliers": responses, "count": len(responses)})
	}
}

// HandleUpdateSupplier handles PATCH /v1/suppliers/:id
func HandleUpdateSupplier(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplierID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier ID"})
			return
		}

		var req UpdateSupplierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		supplier, err := repos.Supplier.GetByID(c.Request.Context(), supplierID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
				return
			}
			logger.Error("Failed to get supplier", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if req.Name != nil {
			supplier.Name = *req.Name
		}
		if req.Status != nil {
			status := domain.SupplierStatus(*req.Status)
			if !status.IsValid() {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid supplier status: " + *req.Status})
				return
			}
			supplier.Status = status
		}
		if req.IntegrationType != nil {
			integrationType := domain.IntegrationType(*req.IntegrationType)
			if !integrationType.IsValid() {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid integration type: " + *req.IntegrationType})
				return
			}
			supplier.IntegrationType = integrationType
		}
		if req.ContactEmail != nil {
			supplier.ContactEmail = req.ContactEmail
		}

		if err := repos.Supplier.Update(c.Request.Context(), supplier); err != nil {
			logger.Error("Failed to update supplier", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update supplier"})
			return
		}

		c.JSON(http.StatusOK, toSupplierResponse(supplier))
	}
}

// HandleDeleteSupplier handles DELETE /v1/suppliers/:id
func HandleDeleteSupplier(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplierID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier ID"})
			return
		}

		if err := repos.Supplier.Delete(c.Request.Context(), supplierID); err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
				return
			}
			logger.Error("Failed to delete supplier", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete supplier"})
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// parsePagination reads limit/offset query params with sane bounds
func parsePagination(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
