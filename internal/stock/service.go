package stock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/validation"
)

// MaxQuantity caps every quantity-like field. Validated values must survive
// conversion to int; anything above this bound would overflow.
const MaxQuantity = math.MaxInt32

// Service exposes stock lot management operations. Quantity never changes
// through this service; movements and corrections go through the ledger.
type Service interface {
	CreateLot(ctx context.Context, input CreateLotInput) (*models.StockLot, error)
	UpdateLotDetails(ctx context.Context, input UpdateLotDetailsInput) (*models.StockLot, error)
	GetByLotCode(ctx context.Context, lotCode string) (*models.StockLot, error)
	ListLowStock(ctx context.Context) ([]models.StockLot, error)
	ListExpiring(ctx context.Context) ([]models.StockLot, error)
}

// CreateLotInput holds the payload to register a new receipt batch.
type CreateLotInput struct {
	ItemID       uuid.UUID
	LotCode      string
	Quantity     float64
	UnitPrice    *float64
	ExpiryDate   string
	ReorderLevel *float64
	Remarks      *string
}

// UpdateLotDetailsInput updates the non-quantity fields of a lot located by
// its owning item and current lot code.
type UpdateLotDetailsInput struct {
	ItemID     uuid.UUID
	LotCode    string
	NewLotCode *string
	UnitPrice  *float64
	ExpiryDate *string
	Remarks    *string
}

type service struct {
	repo *Repository
	cfg  config.StockConfig
}

// NewService constructs a stock service instance.
func NewService(repo *Repository, cfg config.StockConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

// ValidateLotFields checks the quantity/price/expiry fields shared by lot
// creation paths. fieldPrefix qualifies field names in failure messages
// ("initialStock." when seeding from item creation).
func ValidateLotFields(quantity float64, unitPrice *float64, expiryDate string, fieldPrefix string) (*time.Time, error) {
	if _, err := validation.Number(&quantity, fieldPrefix+"quantity", validation.NumberOptions{
		Min:     validation.Float(0),
		Max:     validation.Float(MaxQuantity),
		Integer: true,
	}, true); err != nil {
		return nil, err
	}
	if _, err := validation.Number(unitPrice, fieldPrefix+"unitPrice", validation.NumberOptions{
		Min: validation.Float(0),
	}, false); err != nil {
		return nil, err
	}
	return validation.Date(expiryDate, fieldPrefix+"expiryDate", false)
}

// BuildLot assembles a StockLot row from validated inputs.
func BuildLot(itemID uuid.UUID, lotCode string, quantity int, unitPrice *float64, expiry *time.Time, reorderLevel int, remarks *string) *models.StockLot {
	lot := &models.StockLot{
		ItemID:       itemID,
		LotCode:      lotCode,
		Quantity:     quantity,
		ExpiryDate:   expiry,
		ReorderLevel: reorderLevel,
		Remarks:      remarks,
	}
	if unitPrice != nil {
		price := decimal.NewFromFloat(*unitPrice)
		lot.UnitPrice = &price
	}
	return lot
}

func (s *service) CreateLot(ctx context.Context, input CreateLotInput) (*models.StockLot, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "itemId is required and must be a non-empty string")
	}
	lotCode, err := validation.String(&input.LotCode, "lotId", true)
	if err != nil {
		return nil, err
	}
	expiry, err := ValidateLotFields(input.Quantity, input.UnitPrice, input.ExpiryDate, "")
	if err != nil {
		return nil, err
	}
	reorderLevel := 0
	if input.ReorderLevel != nil {
		validated, err := validation.Number(input.ReorderLevel, "reorderLevel", validation.NumberOptions{
			Min:     validation.Float(0),
			Max:     validation.Float(MaxQuantity),
			Integer: true,
		}, false)
		if err != nil {
			return nil, err
		}
		reorderLevel = int(*validated)
	}

	lot := BuildLot(input.ItemID, *lotCode, int(input.Quantity), input.UnitPrice, expiry, reorderLevel, input.Remarks)
	if err := s.repo.CreateLot(ctx, lot); err != nil {
		if db.IsUniqueViolation(err, "idx_stock_lots_item_lot") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "lot %s already exists for this item", *lotCode)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert stock lot")
	}
	return lot, nil
}

func (s *service) UpdateLotDetails(ctx context.Context, input UpdateLotDetailsInput) (*models.StockLot, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "itemId is required and must be a non-empty string")
	}
	lotCode, err := validation.String(&input.LotCode, "lotId", true)
	if err != nil {
		return nil, err
	}
	newLotCode, err := validation.String(input.NewLotCode, "newLotId", false)
	if err != nil {
		return nil, err
	}
	if _, err := validation.Number(input.UnitPrice, "unitPrice", validation.NumberOptions{
		Min: validation.Float(0),
	}, false); err != nil {
		return nil, err
	}
	var expiry *time.Time
	if input.ExpiryDate != nil {
		expiry, err = validation.Date(*input.ExpiryDate, "expiryDate", false)
		if err != nil {
			return nil, err
		}
	}

	lot, err := s.repo.FindByItemAndLotCode(ctx, input.ItemID, *lotCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "stock lot %s not found", *lotCode)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load stock lot")
	}

	if newLotCode != nil {
		lot.LotCode = *newLotCode
	}
	if input.UnitPrice != nil {
		price := decimal.NewFromFloat(*input.UnitPrice)
		lot.UnitPrice = &price
	}
	if input.ExpiryDate != nil {
		lot.ExpiryDate = expiry
	}
	if input.Remarks != nil {
		lot.Remarks = input.Remarks
	}

	if err := s.repo.Save(ctx, lot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update stock lot")
	}
	return lot, nil
}

func (s *service) GetByLotCode(ctx context.Context, lotCode string) (*models.StockLot, error) {
	code, err := validation.String(&lotCode, "lotId", true)
	if err != nil {
		return nil, err
	}
	lot, err := s.repo.FindByLotCode(ctx, *code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "stock lot %s not found", *code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load stock lot")
	}
	return lot, nil
}

func (s *service) ListLowStock(ctx context.Context) ([]models.StockLot, error) {
	lots, err := s.repo.ListLowStock(ctx, s.cfg.DefaultReorderLevel)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock lots")
	}
	return lots, nil
}

func (s *service) ListExpiring(ctx context.Context) ([]models.StockLot, error) {
	cutoff := time.Now().AddDate(0, 0, s.cfg.ExpiryHorizonDays)
	lots, err := s.repo.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list expiring lots")
	}
	return lots, nil
}
