package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// StockTransaction is the immutable audit record for one signed movement
// against a lot. Quantity stores the magnitude; Type carries the direction.
type StockTransaction struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	LotID     uuid.UUID             `gorm:"column:lot_id;type:uuid;not null;index"`
	UserID    uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Quantity  int                   `gorm:"column:quantity;not null"`
	Type      enums.TransactionType `gorm:"column:type;not null"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (t *StockTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
