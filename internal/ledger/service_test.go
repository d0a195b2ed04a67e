package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/internal/stock"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Item{},
		&models.StockLot{},
		&models.StockTransaction{},
		&models.StockCorrection{},
	); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return conn
}

type recordingInvalidator struct {
	calls int
}

func (r *recordingInvalidator) InvalidateSummary(ctx context.Context) {
	r.calls++
}

func newTestService(t *testing.T, conn *gorm.DB, invalidate Invalidator) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), stock.NewRepository(conn), db.NewWithConn(conn), nil, nil, invalidate)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func seedLot(t *testing.T, conn *gorm.DB, lotCode string, quantity int) *models.StockLot {
	t.Helper()
	item := &models.Item{Name: "Test Item " + lotCode}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seeding item: %v", err)
	}
	lot := &models.StockLot{ItemID: item.ID, LotCode: lotCode, Quantity: quantity}
	if err := conn.Create(lot).Error; err != nil {
		t.Fatalf("seeding lot: %v", err)
	}
	return lot
}

func reloadLot(t *testing.T, conn *gorm.DB, id uuid.UUID) *models.StockLot {
	t.Helper()
	var lot models.StockLot
	if err := conn.First(&lot, "id = ?", id).Error; err != nil {
		t.Fatalf("reloading lot: %v", err)
	}
	return &lot
}

func TestRecordMovementDepositAndDistribute(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, nil)
	lot := seedLot(t, conn, "MOV-001", 0)
	userID := uuid.New()

	res, err := svc.RecordMovement(context.Background(), MovementInput{
		LotCode: "MOV-001", UserID: userID, Quantity: 100, Type: "DEPOSIT",
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if res.Lot.Quantity != 100 {
		t.Fatalf("quantity after deposit = %d, want 100", res.Lot.Quantity)
	}
	if res.Transaction.Type != enums.TransactionTypeDeposit || res.Transaction.Quantity != 100 {
		t.Fatalf("transaction = %s/%d, want DEPOSIT/100", res.Transaction.Type, res.Transaction.Quantity)
	}
	if res.Transaction.LotID != lot.ID {
		t.Fatal("transaction must reference the lot's id")
	}

	res, err = svc.RecordMovement(context.Background(), MovementInput{
		LotCode: "MOV-001", UserID: userID, Quantity: 30, Type: "DISTRIBUTE",
	})
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if res.Lot.Quantity != 70 {
		t.Fatalf("quantity after distribute = %d, want 70", res.Lot.Quantity)
	}

	if got := reloadLot(t, conn, lot.ID).Quantity; got != 70 {
		t.Fatalf("persisted quantity = %d, want 70", got)
	}
	var txns int64
	conn.Model(&models.StockTransaction{}).Count(&txns)
	if txns != 2 {
		t.Fatalf("transaction rows = %d, want 2", txns)
	}
}

func TestRecordMovementOverdraw(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, nil)
	lot := seedLot(t, conn, "MOV-002", 70)

	_, err := svc.RecordMovement(context.Background(), MovementInput{
		LotCode: "MOV-002", UserID: uuid.New(), Quantity: 80, Type: "DISTRIBUTE",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeOverdraw) {
		t.Fatalf("error = %v, want OVERDRAW", err)
	}

	// The rejected movement must leave no trace at all.
	if got := reloadLot(t, conn, lot.ID).Quantity; got != 70 {
		t.Fatalf("quantity after rejected overdraw = %d, want 70", got)
	}
	var txns int64
	conn.Model(&models.StockTransaction{}).Count(&txns)
	if txns != 0 {
		t.Fatalf("transaction rows after rejected overdraw = %d, want 0", txns)
	}
}

func TestRecordMovementDisposeToZero(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, nil)
	seedLot(t, conn, "MOV-003", 25)

	res, err := svc.RecordMovement(context.Background(), MovementInput{
		LotCode: "MOV-003", UserID: uuid.New(), Quantity: 25, Type: "DISPOSE",
	})
	if err != nil {
		t.Fatalf("dispose of full quantity: %v", err)
	}
	if res.Lot.Quantity != 0 {
		t.Fatalf("quantity = %d, want 0", res.Lot.Quantity)
	}
}

func TestRecordMovementValidation(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, nil)
	seedLot(t, conn, "MOV-004", 10)
	userID := uuid.New()

	tests := []struct {
		name    string
		input   MovementInput
		wantMsg string
	}{
		{
			name:    "missing lot code",
			input:   MovementInput{UserID: userID, Quantity: 1, Type: "DEPOSIT"},
			wantMsg: "lotId is required and must be a non-empty string",
		},
		{
			name:    "missing user",
			input:   MovementInput{LotCode: "MOV-004", Quantity: 1, Type: "DEPOSIT"},
			wantMsg: "userId is required and must be a non-empty string",
		},
		{
			name:    "zero quantity",
			input:   MovementInput{LotCode: "MOV-004", UserID: userID, Quantity: 0, Type: "DEPOSIT"},
			wantMsg: "quantity must be >= 1",
		},
		{
			name:    "fractional quantity",
			input:   MovementInput{LotCode: "MOV-004", UserID: userID, Quantity: 1.5, Type: "DEPOSIT"},
			wantMsg: "quantity must be an integer",
		},
		{
			name:    "missing type",
			input:   MovementInput{LotCode: "MOV-004", UserID: userID, Quantity: 1},
			wantMsg: "type is required",
		},
		{
			name:    "unknown type",
			input:   MovementInput{LotCode: "MOV-004", UserID: userID, Quantity: 1, Type: "TRANSFER"},
			wantMsg: "type must be one of: DEPOSIT, DISTRIBUTE, DISPOSE",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordMovement(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("error = %v, want VALIDATION_ERROR", err)
			}
			if typed.Message() != tc.wantMsg {
				t.Fatalf("message = %q, want %q", typed.Message(), tc.wantMsg)
			}
		})
	}
}

func TestRecordMovementUnknownLot(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, nil)

	_, err := svc.RecordMovement(context.Background(), MovementInput{
		LotCode: "GHOST", UserID: uuid.New(), Quantity: 1, Type: "DEPOSIT",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestCorrectQuantity(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, nil)
	lot := seedLot(t, conn, "COR-001", 70)
	userID := uuid.New()

	res, err := svc.CorrectQuantity(context.Background(), CorrectionInput{
		LotCode: "COR-001", UserID: userID, NewQuantity: 50,
	})
	if err != nil {
		t.Fatalf("CorrectQuantity: %v", err)
	}
	if res.Correction.ItemQtyBefore != 70 || res.Correction.ItemQtyAfter != 50 {
		t.Fatalf("correction = %d -> %d, want 70 -> 50",
			res.Correction.ItemQtyBefore, res.Correction.ItemQtyAfter)
	}
	if res.Lot.Quantity != 50 {
		t.Fatalf("quantity = %d, want 50", res.Lot.Quantity)
	}
	if got := reloadLot(t, conn, lot.ID).Quantity; got != 50 {
		t.Fatalf("persisted quantity = %d, want 50", got)
	}

	// Corrections are absolute writes, not movements: no overdraw check, so a
	// correction up from zero or down to zero always succeeds.
	if _, err := svc.CorrectQuantity(context.Background(), CorrectionInput{
		LotCode: "COR-001", UserID: userID, NewQuantity: 0,
	}); err != nil {
		t.Fatalf("correcting to zero: %v", err)
	}

	var corrections int64
	conn.Model(&models.StockCorrection{}).Count(&corrections)
	if corrections != 2 {
		t.Fatalf("correction rows = %d, want 2", corrections)
	}
	var txns int64
	conn.Model(&models.StockTransaction{}).Count(&txns)
	if txns != 0 {
		t.Fatalf("corrections must not write transaction rows, got %d", txns)
	}
}

func TestCorrectQuantityValidation(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, nil)
	seedLot(t, conn, "COR-002", 10)

	_, err := svc.CorrectQuantity(context.Background(), CorrectionInput{
		LotCode: "COR-002", UserID: uuid.New(), NewQuantity: -1,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("error = %v, want VALIDATION_ERROR", err)
	}
	if typed.Message() != "newQuantity must be >= 0" {
		t.Fatalf("message = %q", typed.Message())
	}
}

func TestOversizedQuantitiesRejected(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, nil)
	lot := seedLot(t, conn, "BIG-001", 10)
	userID := uuid.New()

	// Values beyond the representable quantity range must fail validation
	// instead of wrapping into a negative quantity on conversion.
	_, err := svc.RecordMovement(context.Background(), MovementInput{
		LotCode: "BIG-001", UserID: userID, Quantity: 1e30, Type: "DEPOSIT",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("movement error = %v, want VALIDATION_ERROR", err)
	}
	if typed.Message() != "quantity must be <= 2147483647" {
		t.Fatalf("message = %q", typed.Message())
	}

	_, err = svc.CorrectQuantity(context.Background(), CorrectionInput{
		LotCode: "BIG-001", UserID: userID, NewQuantity: 1e30,
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("correction error = %v, want VALIDATION_ERROR", err)
	}
	if typed.Message() != "newQuantity must be <= 2147483647" {
		t.Fatalf("message = %q", typed.Message())
	}

	if got := reloadLot(t, conn, lot.ID).Quantity; got != 10 {
		t.Fatalf("quantity = %d, want 10", got)
	}
	var txns, corrections int64
	conn.Model(&models.StockTransaction{}).Count(&txns)
	conn.Model(&models.StockCorrection{}).Count(&corrections)
	if txns != 0 || corrections != 0 {
		t.Fatalf("audit rows = %d/%d, want none", txns, corrections)
	}
}

func TestCompareAndSetQuantityStale(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)
	lot := seedLot(t, conn, "CAS-001", 40)

	swapped, err := repo.CompareAndSetQuantity(context.Background(), lot.ID, 40, 35)
	if err != nil || !swapped {
		t.Fatalf("first CAS = %v/%v, want swap", swapped, err)
	}

	// Expected quantity is now stale; the write must be refused.
	swapped, err = repo.CompareAndSetQuantity(context.Background(), lot.ID, 40, 30)
	if err != nil {
		t.Fatalf("stale CAS errored: %v", err)
	}
	if swapped {
		t.Fatal("stale CAS must not update the row")
	}
	if got := reloadLot(t, conn, lot.ID).Quantity; got != 35 {
		t.Fatalf("quantity = %d, want 35", got)
	}
}

func TestMovementSequenceRoundTrip(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, nil)
	lot := seedLot(t, conn, "SEQ-001", 0)
	userID := uuid.New()

	steps := []struct {
		typ string
		qty float64
	}{
		{"DEPOSIT", 100},
		{"DISTRIBUTE", 20},
		{"DEPOSIT", 5},
		{"DISPOSE", 10},
		{"DISTRIBUTE", 25},
	}
	for _, step := range steps {
		if _, err := svc.RecordMovement(context.Background(), MovementInput{
			LotCode: "SEQ-001", UserID: userID, Quantity: step.qty, Type: step.typ,
		}); err != nil {
			t.Fatalf("%s %v: %v", step.typ, step.qty, err)
		}
	}

	// 0 +100 -20 +5 -10 -25 = 50, with one audit row per step.
	if got := reloadLot(t, conn, lot.ID).Quantity; got != 50 {
		t.Fatalf("final quantity = %d, want 50", got)
	}
	var txns int64
	conn.Model(&models.StockTransaction{}).Count(&txns)
	if int(txns) != len(steps) {
		t.Fatalf("transaction rows = %d, want %d", txns, len(steps))
	}
}

func TestLotHistory(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn, nil)
	seedLot(t, conn, "HIS-001", 0)
	userID := uuid.New()

	if _, err := svc.RecordMovement(context.Background(), MovementInput{
		LotCode: "HIS-001", UserID: userID, Quantity: 10, Type: "DEPOSIT",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := svc.CorrectQuantity(context.Background(), CorrectionInput{
		LotCode: "HIS-001", UserID: userID, NewQuantity: 8,
	}); err != nil {
		t.Fatalf("correction: %v", err)
	}

	history, err := svc.LotHistory(context.Background(), "HIS-001")
	if err != nil {
		t.Fatalf("LotHistory: %v", err)
	}
	if len(history.Transactions) != 1 || len(history.Corrections) != 1 {
		t.Fatalf("history = %d transactions, %d corrections, want 1/1",
			len(history.Transactions), len(history.Corrections))
	}
	if history.Lot.Quantity != 8 {
		t.Fatalf("lot quantity = %d, want 8", history.Lot.Quantity)
	}
}

func TestInvalidatorNotifiedOnCommit(t *testing.T) {
	conn := setupTestDB(t)
	inv := &recordingInvalidator{}
	svc := newTestService(t, conn, inv)
	seedLot(t, conn, "INV-001", 10)
	userID := uuid.New()

	if _, err := svc.RecordMovement(context.Background(), MovementInput{
		LotCode: "INV-001", UserID: userID, Quantity: 5, Type: "DEPOSIT",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := svc.CorrectQuantity(context.Background(), CorrectionInput{
		LotCode: "INV-001", UserID: userID, NewQuantity: 12,
	}); err != nil {
		t.Fatalf("correction: %v", err)
	}
	if inv.calls != 2 {
		t.Fatalf("invalidator calls = %d, want 2", inv.calls)
	}

	// Rejected movements never invalidate.
	if _, err := svc.RecordMovement(context.Background(), MovementInput{
		LotCode: "INV-001", UserID: userID, Quantity: 999, Type: "DISTRIBUTE",
	}); !pkgerrors.IsCode(err, pkgerrors.CodeOverdraw) {
		t.Fatalf("expected overdraw, got %v", err)
	}
	if inv.calls != 2 {
		t.Fatalf("invalidator calls after rejection = %d, want 2", inv.calls)
	}
}
