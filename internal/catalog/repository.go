package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
)

// Repository provides persistence for catalog items.
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

// Create inserts a new item row.
func (r *Repository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Save persists the full item row.
func (r *Repository) Save(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// FindByID loads an item by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDWithLots loads an item along with its non-deleted lots.
func (r *Repository) FindByIDWithLots(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Preload("Lots", "is_deleted = ?", false).
		First(&item, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns all items with their non-deleted lots, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Preload("Lots", "is_deleted = ?", false).
		Order("created_at ASC").
		Find(&items).
		Error
	return items, err
}

// Delete removes an item row. Lot rows cascade at the schema level.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
