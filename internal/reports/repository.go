package reports

import (
	"context"

	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
)

// Repository reads the lot rows feeding report aggregation.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListAllLots returns every lot row, soft-deleted ones included. Valuation
// passes decide for themselves which rows count.
func (r *Repository) ListAllLots(ctx context.Context) ([]models.StockLot, error) {
	var lots []models.StockLot
	err := r.db.WithContext(ctx).Find(&lots).Error
	return lots, err
}
