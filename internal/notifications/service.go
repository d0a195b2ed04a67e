package notifications

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/internal/stock"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

// LowStockAlert flags a lot at or below its reorder threshold.
type LowStockAlert struct {
	ItemID          uuid.UUID `json:"itemId"`
	ItemName        string    `json:"itemName"`
	LotCode         string    `json:"lotId"`
	CurrentQuantity int       `json:"currentQuantity"`
	ReorderLevel    int       `json:"reorderLevel"`
}

// ExpirationAlert flags a lot expiring within the configured horizon.
// DaysToExpiry goes negative once the lot has expired.
type ExpirationAlert struct {
	ItemID       uuid.UUID `json:"itemId"`
	ItemName     string    `json:"itemName"`
	LotCode      string    `json:"lotId"`
	ExpiryDate   time.Time `json:"expiryDate"`
	DaysToExpiry int       `json:"daysToExpiry"`
	Expired      bool      `json:"expired"`
}

// Service derives restocking and expiry alerts from the current lot state.
type Service interface {
	LowStockAlerts(ctx context.Context) ([]LowStockAlert, error)
	ExpirationAlerts(ctx context.Context) ([]ExpirationAlert, error)
}

type service struct {
	lots *stock.Repository
	db   *gorm.DB
	cfg  config.StockConfig
	now  func() time.Time
}

// NewService constructs a notification service instance.
func NewService(lots *stock.Repository, db *gorm.DB, cfg config.StockConfig) (Service, error) {
	if lots == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if db == nil {
		return nil, fmt.Errorf("db connection required")
	}
	return &service{lots: lots, db: db, cfg: cfg, now: time.Now}, nil
}

func (s *service) LowStockAlerts(ctx context.Context) ([]LowStockAlert, error) {
	lots, err := s.lots.ListLowStock(ctx, s.cfg.DefaultReorderLevel)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock lots")
	}
	names, err := s.itemNames(ctx, lots)
	if err != nil {
		return nil, err
	}

	alerts := make([]LowStockAlert, 0, len(lots))
	for _, lot := range lots {
		level := lot.ReorderLevel
		if level <= 0 {
			level = s.cfg.DefaultReorderLevel
		}
		alerts = append(alerts, LowStockAlert{
			ItemID:          lot.ItemID,
			ItemName:        names[lot.ItemID],
			LotCode:         lot.LotCode,
			CurrentQuantity: lot.Quantity,
			ReorderLevel:    level,
		})
	}
	return alerts, nil
}

func (s *service) ExpirationAlerts(ctx context.Context) ([]ExpirationAlert, error) {
	now := s.now()
	cutoff := now.AddDate(0, 0, s.cfg.ExpiryHorizonDays)
	lots, err := s.lots.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list expiring lots")
	}
	names, err := s.itemNames(ctx, lots)
	if err != nil {
		return nil, err
	}

	alerts := make([]ExpirationAlert, 0, len(lots))
	for _, lot := range lots {
		if lot.ExpiryDate == nil {
			continue
		}
		alerts = append(alerts, ExpirationAlert{
			ItemID:       lot.ItemID,
			ItemName:     names[lot.ItemID],
			LotCode:      lot.LotCode,
			ExpiryDate:   *lot.ExpiryDate,
			DaysToExpiry: daysUntil(now, *lot.ExpiryDate),
			Expired:      lot.Expired(now),
		})
	}
	return alerts, nil
}

func (s *service) itemNames(ctx context.Context, lots []models.StockLot) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(lots))
	if len(lots) == 0 {
		return names, nil
	}
	ids := make([]uuid.UUID, 0, len(lots))
	for _, lot := range lots {
		if _, seen := names[lot.ItemID]; !seen {
			names[lot.ItemID] = ""
			ids = append(ids, lot.ItemID)
		}
	}
	var items []models.Item
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item names")
	}
	for _, item := range items {
		names[item.ID] = item.Name
	}
	return names, nil
}

func daysUntil(now, expiry time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}
