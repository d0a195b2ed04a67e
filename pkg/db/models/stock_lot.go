package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockLot is one receipt batch of an item. Quantity only changes through
// recorded movements or corrections; lots are soft-deleted for audit.
type StockLot struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ItemID       uuid.UUID        `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_stock_lots_item_lot"`
	LotCode      string           `gorm:"column:lot_code;not null;uniqueIndex:idx_stock_lots_item_lot"`
	Quantity     int              `gorm:"column:item_qty;not null;default:0"`
	UnitPrice    *decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	ExpiryDate   *time.Time       `gorm:"column:expiry_date"`
	ReorderLevel int              `gorm:"column:reorder_level;not null;default:0"`
	Remarks      *string          `gorm:"column:remarks"`
	IsDeleted    bool             `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *StockLot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the lot's expiry date has already passed.
func (s *StockLot) Expired(now time.Time) bool {
	return s.ExpiryDate != nil && s.ExpiryDate.Before(now)
}
