package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
)

// Repository provides persistence for stock lots.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateLot inserts a new stock lot row.
func (r *Repository) CreateLot(ctx context.Context, lot *models.StockLot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

// Save persists the full lot row.
func (r *Repository) Save(ctx context.Context, lot *models.StockLot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

// FindByID loads a lot by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockLot, error) {
	var lot models.StockLot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

// FindByLotCode loads a non-deleted lot by its business lot code.
func (r *Repository) FindByLotCode(ctx context.Context, lotCode string) (*models.StockLot, error) {
	var lot models.StockLot
	err := r.db.WithContext(ctx).
		First(&lot, "lot_code = ? AND is_deleted = ?", lotCode, false).
		Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// FindByItemAndLotCode loads a non-deleted lot scoped to its owning item.
func (r *Repository) FindByItemAndLotCode(ctx context.Context, itemID uuid.UUID, lotCode string) (*models.StockLot, error) {
	var lot models.StockLot
	err := r.db.WithContext(ctx).
		First(&lot, "item_id = ? AND lot_code = ? AND is_deleted = ?", itemID, lotCode, false).
		Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// ListByItem returns the non-deleted lots belonging to an item.
func (r *Repository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.StockLot, error) {
	var lots []models.StockLot
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND is_deleted = ?", itemID, false).
		Order("created_at ASC").
		Find(&lots).
		Error
	return lots, err
}

// ListLowStock returns non-deleted lots at or below their reorder level. Lots
// without a reorder level of their own fall back to defaultReorderLevel.
func (r *Repository) ListLowStock(ctx context.Context, defaultReorderLevel int) ([]models.StockLot, error) {
	var lots []models.StockLot
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("item_qty <= (CASE WHEN reorder_level > 0 THEN reorder_level ELSE ? END)", defaultReorderLevel).
		Order("item_qty ASC").
		Find(&lots).
		Error
	return lots, err
}

// ListExpiringBefore returns non-deleted lots whose expiry falls on or before
// the cutoff, soonest first. Already-expired lots are included.
func (r *Repository) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.StockLot, error) {
	var lots []models.StockLot
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", cutoff).
		Order("expiry_date ASC").
		Find(&lots).
		Error
	return lots, err
}
