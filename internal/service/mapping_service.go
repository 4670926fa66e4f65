package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/internal/repository"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

type mappingService struct {
	repos  *repository.Repositories
	logger *zap.Logger
	now    func() time.Time
}

// NewMappingService creates a new product/supplier mapping service
func NewMappingService(repos *repository.Repositories, logger *zap.Logger) *mappingService {
	return &mappingService{
		repos:  repos,
		logger: logger,
		now:    time.Now,
	}
}

// UpdateStock writes a new stock quantity onto a supplier product and,
// where the owning mapping allows it, through to the internal product.
func (s *mappingService) UpdateStock(ctx context.Context, supplierProductID uuid.UUID, newQty int) error {
	if newQty < 0 {
		return &errors.ErrValidation{Message: "stock quantity cannot be negative"}
	}

	sp, err := s.repos.SupplierProduct.GetByID(ctx, supplierProductID)
	if err != nil {
		return err
	}

	if err := s.repos.SupplierProduct.UpdateStock(ctx, supplierProductID, newQty); err != nil {
		return err
	}

	if !sp.IsMapped {
		return nil
	}

	mapping, err := s.repos.ProductSupplierMapping.GetBySupplierProductID(ctx, supplierProductID)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			return nil
		}
		return err
	}

	if !mapping.CanUpdateStock(sp.IsActive) {
		return nil
	}

	if err := s.repos.Product.UpdateStock(ctx, mapping.ProductID, newQty); err != nil {
		return err
	}

	return s.repos.ProductSupplierMapping.UpdateStockTimestamps(ctx, mapping.ID)
}

// UpdatePrice sets the supplier price on a catalog entry. When a retail
// override is given it is written as-is; otherwise the retail price is
// derived from the owning mapping's markup rule, when one exists.
func (s *mappingService) UpdatePrice(ctx context.Context, supplierProductID uuid.UUID, supplierPrice int64, retailOverride *int64) error {
	if supplierPrice < 0 {
		return &errors.ErrValidation{Message: "supplier price cannot be negative"}
	}

	sp, err := s.repos.SupplierProduct.GetByID(ctx, supplierProductID)
	if err != nil {
		return err
	}

	retail := retailOverride
	if retail == nil && sp.IsMapped {
		mapping, err := s.repos.ProductSupplierMapping.GetBySupplierProductID(ctx, supplierProductID)
		if err == nil {
			derived := mapping.SellingPrice(supplierPrice)
			retail = &derived
		} else if _, ok := err.(*errors.ErrNotFound); !ok {
			return err
		}
	}
	if retail == nil {
		retail = sp.RetailPrice
	}

	return s.repos.SupplierProduct.UpdatePrices(ctx, supplierProductID, supplierPrice, retail)
}

// UpdatePricing applies a new supplier price through a mapping's markup
// rule and writes the derived retail price onto the mapped product.
// Gated by the mapping's auto-update policy; callers that need to know
// whether the gate is open check CanUpdatePrice first.
func (s *mappingService) UpdatePricing(ctx context.Context, mappingID uuid.UUID, newSupplierPrice int64) error {
	if newSupplierPrice < 0 {
		return &errors.ErrValidation{Message: "supplier price cannot be negative"}
	}

	mapping, err := s.repos.ProductSupplierMapping.GetByID(ctx, mappingID)
	if err != nil {
		return err
	}

	sp, err := s.repos.SupplierProduct.GetByID(ctx, mapping.SupplierProductID)
	if err != nil {
		return err
	}

	if !mapping.CanUpdatePrice(sp.IsActive) {
		return &errors.ErrValidation{
			Message: fmt.Sprintf("mapping %s does not allow automatic price updates", mappingID),
		}
	}

	sellingPrice := mapping.SellingPrice(newSupplierPrice)

	if err := s.repos.SupplierProduct.UpdatePrices(ctx, sp.ID, newSupplierPrice, &sellingPrice); err != nil {
		return err
	}

	if err := s.repos.Product.UpdatePrice(ctx, mapping.ProductID, sellingPrice); err != nil {
		return err
	}

	return s.repos.ProductSupplierMapping.UpdatePriceTimestamps(ctx, mappingID)
}

// MakePrimary promotes the mapping to primary for its product. Sibling
// primary flags and the product's primary_supplier_id move in the same
// transaction.
func (s *mappingService) MakePrimary(ctx context.Context, mappingID uuid.UUID) error {
	return s.repos.ProductSupplierMapping.MakePrimary(ctx, mappingID)
}

// Activate enables the mapping for automated updates
func (s *mappingService) Activate(ctx context.Context, mappingID uuid.UUID) error {
	mapping, err := s.repos.ProductSupplierMapping.GetByID(ctx, mappingID)
	if err != nil {
		return err
	}

	mapping.IsActive = true
	return s.repos.ProductSupplierMapping.Update(ctx, mapping)
}

// Deactivate disables the mapping. Deactivating the primary mapping does
// not promote a successor; only deletion does.
func (s *mappingService) Deactivate(ctx context.Context, mappingID uuid.UUID) error {
	mapping, err := s.repos.ProductSupplierMapping.GetByID(ctx, mappingID)
	if err != nil {
		return err
	}

	mapping.IsActive = false
	return s.repos.ProductSupplierMapping.Update(ctx, mapping)
}

// Delete removes the mapping, promoting the next active mapping by
// priority when the primary is deleted.
func (s *mappingService) Delete(ctx context.Context, mappingID uuid.UUID) error {
	return s.repos.ProductSupplierMapping.Delete(ctx, mappingID)
}

// CreateMappedProduct creates an internal product from a supplier catalog
// entry together with its mapping, in a single transaction.
func (s *mappingService) CreateMappedProduct(ctx context.Context, req CreateMappedProductRequest) (*domain.Product, *domain.ProductSupplierMapping, error) {
	sp, err := s.repos.SupplierProduct.GetByID(ctx, req.SupplierProductID)
	if err != nil {
		return nil, nil, err
	}

	if sp.IsMapped {
		return nil, nil, &errors.ErrConflict{
			Message: fmt.Sprintf("supplier product %s is already mapped", sp.ID),
		}
	}

	markupType := domain.MarkupType(req.MarkupType)
	if !markupType.IsValid() {
		return nil, nil, &errors.ErrValidation{Message: fmt.Sprintf("invalid markup type %q", req.MarkupType)}
	}

	retailPrice := domain.ComputeSellingPrice(sp.SupplierPrice, markupType, req.MarkupPercentage, req.FixedMarkup)

	product := &domain.Product{
		Name:          sp.Name,
		SKU:           sp.SupplierSKU,
		Description:   sp.Description,
		Price:         retailPrice,
		StockQuantity: sp.StockQuantity,
		IsActive:      true,
	}

	mapping := &domain.ProductSupplierMapping{
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

	if err := s.repos.SupplierProduct.CreateMappedProduct(ctx, sp, product, mapping); err != nil {
		return nil, nil, err
	}

	s.logger.Info("Created mapped product from supplier catalog entry",
		zap.String("supplier_product_id", sp.ID.String()),
		zap.String("product_id", product.ID.String()),
		zap.Int64("retail_price", retailPrice),
	)

	return product, mapping, nil
}

// DeleteSupplierProduct removes a supplier catalog entry unless it is
// still referenced by an open dropship order.
func (s *mappingService) DeleteSupplierProduct(ctx context.Context, supplierProductID uuid.UUID) error {
	open, err := s.repos.SupplierProduct.HasOpenDropshipItems(ctx, supplierProductID)
	if err != nil {
		return err
	}
	if open {
		return &errors.ErrConflict{
			Message: "supplier product is referenced by open dropship orders",
		}
	}

	return s.repos.SupplierProduct.Delete(ctx, supplierProductID)
}
