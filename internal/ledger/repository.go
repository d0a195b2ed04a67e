package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
)

// Repository provides persistence for ledger audit rows and the conditional
// quantity update backing optimistic concurrency.
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

// CompareAndSetQuantity updates the lot quantity only if it still equals
// expected. Returns false when another writer got there first.
func (r *Repository) CompareAndSetQuantity(ctx context.Context, lotID uuid.UUID, expected, next int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StockLot{}).
		Where("id = ? AND item_qty = ?", lotID, expected).
		Update("item_qty", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CreateTransaction inserts a movement audit row.
func (r *Repository) CreateTransaction(ctx context.Context, txn *models.StockTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// CreateCorrection inserts a correction audit row.
func (r *Repository) CreateCorrection(ctx context.Context, correction *models.StockCorrection) error {
	return r.db.WithContext(ctx).Create(correction).Error
}

// ListTransactionsByLot returns the movement history for a lot, newest first.
func (r *Repository) ListTransactionsByLot(ctx context.Context, lotID uuid.UUID) ([]models.StockTransaction, error) {
	var txns []models.StockTransaction
	err := r.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("created_at DESC").
		Find(&txns).
		Error
	return txns, err
}

// ListCorrectionsByLot returns the correction history for a lot, newest first.
func (r *Repository) ListCorrectionsByLot(ctx context.Context, lotID uuid.UUID) ([]models.StockCorrection, error) {
	var corrections []models.StockCorrection
	err := r.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("created_at DESC").
		Find(&corrections).
		Error
	return corrections, err
}
