package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/repository"
)

// rowScanner abstracts over *sql.Row and *sql.Rows for the scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Supplier:               NewSupplierRepository(db, logger),
		SupplierIntegration:    NewSupplierIntegrationRepository(db, logger),
		Product:                NewProductRepository(db, logger),
		SupplierProduct:        NewSupplierProductRepository(db, logger),
		ProductSupplierMapping: NewProductSupplierMappingRepository(db, logger),
		DropshipOrder:          NewDropshipOrderRepository(db, logger),
		DropshipOrderItem:      NewDropshipOrderItemRepository(db, logger),
		DropshipOrderEvent:     NewDropshipOrderEventRepository(db, logger),
		APIKey:                 NewAPIKeyRepository(db, logger),
		IdempotencyKey:         NewIdempotencyKeyRepository(db, logger),
	}
}
