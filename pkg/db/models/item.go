package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is the catalog identity for a trackable good. Stock lives on its lots.
type Item struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Lots      []StockLot `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
