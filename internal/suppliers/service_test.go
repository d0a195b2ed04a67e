package suppliers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:suppliers_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Supplier{}); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func strPtr(v string) *string { return &v }

func TestCreateSupplier(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn)

	supplier, err := svc.Create(context.Background(), SupplierInput{
		Name:  strPtr("Acme Medical"),
		Email: strPtr("sales@acme-medical.example"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if supplier.ID == uuid.Nil {
		t.Fatal("expected supplier id to be assigned")
	}
	if supplier.Name != "Acme Medical" {
		t.Fatalf("name = %s, want Acme Medical", supplier.Name)
	}

	_, err = svc.Create(context.Background(), SupplierInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("missing name error = %v, want VALIDATION_ERROR", err)
	}
	if typed.Message() != "name is required and must be a non-empty string" {
		t.Fatalf("message = %q", typed.Message())
	}
}

func TestUpdateSupplier(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn)

	supplier, err := svc.Create(context.Background(), SupplierInput{Name: strPtr("Before")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(context.Background(), supplier.ID, SupplierInput{
		Name:  strPtr("After"),
		Phone: strPtr("+1-555-0100"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "After" {
		t.Fatalf("name = %s, want After", updated.Name)
	}
	if updated.Phone == nil || *updated.Phone != "+1-555-0100" {
		t.Fatalf("phone = %v, want +1-555-0100", updated.Phone)
	}

	if _, err := svc.Update(context.Background(), uuid.New(), SupplierInput{Name: strPtr("X")}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("missing supplier update = %v, want NOT_FOUND", err)
	}
}

func TestGetSupplierByID(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn)

	created, err := svc.Create(context.Background(), SupplierInput{Name: strPtr("Lookup Co")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found == nil || found.Name != "Lookup Co" {
		t.Fatalf("supplier = %+v, want Lookup Co", found)
	}

	// Missing suppliers come back as nil without an error.
	missing, err := svc.GetByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing supplier = %+v, want nil", missing)
	}
}

func TestDeleteSupplier(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn)

	supplier, err := svc.Create(context.Background(), SupplierInput{Name: strPtr("Gone Soon")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(context.Background(), supplier.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), supplier.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("second delete = %v, want NOT_FOUND", err)
	}
}

func TestListSuppliers(t *testing.T) {
	conn := setupTestDB(t)
	svc := newTestService(t, conn)

	for _, name := range []string{"Zeta Supply", "Alpha Goods"} {
		if _, err := svc.Create(context.Background(), SupplierInput{Name: strPtr(name)}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	suppliers, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(suppliers) != 2 {
		t.Fatalf("suppliers = %d, want 2", len(suppliers))
	}
	if suppliers[0].Name != "Alpha Goods" {
		t.Fatalf("first supplier = %s, want Alpha Goods (name order)", suppliers[0].Name)
	}
}
