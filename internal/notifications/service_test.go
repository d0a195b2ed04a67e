package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/internal/stock"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:notifications_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Item{}, &models.StockLot{}); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB, cfg config.StockConfig) Service {
	t.Helper()
	svc, err := NewService(stock.NewRepository(conn), conn, cfg)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func seedItemWithLot(t *testing.T, conn *gorm.DB, name string, lot models.StockLot) {
	t.Helper()
	item := &models.Item{Name: name}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seeding item: %v", err)
	}
	lot.ItemID = item.ID
	if err := conn.Create(&lot).Error; err != nil {
		t.Fatalf("seeding lot: %v", err)
	}
}

func TestLowStockAlerts(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, config.StockConfig{DefaultReorderLevel: 10})

	seedItemWithLot(t, conn, "Syringes", models.StockLot{LotCode: "SY-1", Quantity: 3})
	seedItemWithLot(t, conn, "Gauze", models.StockLot{LotCode: "GA-1", Quantity: 12, ReorderLevel: 20})
	seedItemWithLot(t, conn, "Gloves", models.StockLot{LotCode: "GL-1", Quantity: 500})

	alerts, err := svc.LowStockAlerts(context.Background())
	if err != nil {
		t.Fatalf("LowStockAlerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(alerts))
	}

	byLot := map[string]LowStockAlert{}
	for _, alert := range alerts {
		byLot[alert.LotCode] = alert
	}
	if alert := byLot["SY-1"]; alert.ItemName != "Syringes" || alert.CurrentQuantity != 3 || alert.ReorderLevel != 10 {
		t.Fatalf("SY-1 alert = %+v, want Syringes/3/10 (default level)", alert)
	}
	if alert := byLot["GA-1"]; alert.ItemName != "Gauze" || alert.ReorderLevel != 20 {
		t.Fatalf("GA-1 alert = %+v, want Gauze at its own level 20", alert)
	}
}

func TestExpirationAlerts(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, config.StockConfig{ExpiryHorizonDays: 30})

	now := time.Now()
	expired := now.AddDate(0, 0, -3)
	soon := now.AddDate(0, 0, 7)
	distant := now.AddDate(0, 0, 120)

	seedItemWithLot(t, conn, "Insulin", models.StockLot{LotCode: "IN-1", Quantity: 5, ExpiryDate: &expired})
	seedItemWithLot(t, conn, "Vaccine", models.StockLot{LotCode: "VA-1", Quantity: 9, ExpiryDate: &soon})
	seedItemWithLot(t, conn, "Saline", models.StockLot{LotCode: "SA-1", Quantity: 40, ExpiryDate: &distant})
	seedItemWithLot(t, conn, "Gauze", models.StockLot{LotCode: "GA-1", Quantity: 8})

	alerts, err := svc.ExpirationAlerts(context.Background())
	if err != nil {
		t.Fatalf("ExpirationAlerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(alerts))
	}

	// Soonest expiry first, already-expired lots leading with negative days.
	if alerts[0].LotCode != "IN-1" || alerts[1].LotCode != "VA-1" {
		t.Fatalf("order = [%s, %s], want [IN-1, VA-1]", alerts[0].LotCode, alerts[1].LotCode)
	}
	if !alerts[0].Expired || alerts[0].DaysToExpiry >= 0 {
		t.Fatalf("IN-1 alert = %+v, want expired with negative daysToExpiry", alerts[0])
	}
	if alerts[1].Expired || alerts[1].DaysToExpiry <= 0 {
		t.Fatalf("VA-1 alert = %+v, want pending with positive daysToExpiry", alerts[1])
	}
	if alerts[1].ItemName != "Vaccine" {
		t.Fatalf("VA-1 item name = %s, want Vaccine", alerts[1].ItemName)
	}
}

func TestAlertsEmptyState(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, config.StockConfig{DefaultReorderLevel: 10, ExpiryHorizonDays: 30})

	low, err := svc.LowStockAlerts(context.Background())
	if err != nil {
		t.Fatalf("LowStockAlerts: %v", err)
	}
	if len(low) != 0 {
		t.Fatalf("low stock alerts = %d, want 0", len(low))
	}

	expiring, err := svc.ExpirationAlerts(context.Background())
	if err != nil {
		t.Fatalf("ExpirationAlerts: %v", err)
	}
	if len(expiring) != 0 {
		t.Fatalf("expiration alerts = %d, want 0", len(expiring))
	}
}
