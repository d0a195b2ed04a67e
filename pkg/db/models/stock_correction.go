package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockCorrection is the immutable audit record for one absolute quantity
// override (stocktake reconciliation). It captures the pre-state the lot
// itself no longer stores.
type StockCorrection struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	LotID         uuid.UUID `gorm:"column:lot_id;type:uuid;not null;index"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	ItemQtyBefore int       `gorm:"column:item_qty_before;not null"`
	ItemQtyAfter  int       `gorm:"column:item_qty_after;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *StockCorrection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
