package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/internal/stock"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/validation"
)

// Service exposes catalog item operations.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*models.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*models.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	GetItems(ctx context.Context) ([]models.Item, error)
}

// InitialStockInput optionally seeds a first lot when an item is created.
type InitialStockInput struct {
	LotCode      string
	Quantity     float64
	UnitPrice    *float64
	ExpiryDate   string
	ReorderLevel *float64
	Remarks      *string
}

// CreateItemInput is the payload for registering a catalog item.
type CreateItemInput struct {
	Name         string
	InitialStock *InitialStockInput
}

// UpdateItemInput patches item fields; nil means leave unchanged.
type UpdateItemInput struct {
	Name *string
}

type service struct {
	repo     *Repository
	lots     *stock.Repository
	dbClient *db.Client
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, lots *stock.Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if lots == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, lots: lots, dbClient: dbClient}, nil
}

// CreateItem registers an item and, when initial stock is supplied, its first
// lot in the same transaction. All validation runs before any write so a bad
// initial stock payload leaves no orphan item behind.
func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.Item, error) {
	name, err := validation.String(&input.Name, "name", true)
	if err != nil {
		return nil, err
	}

	var seedLot *models.StockLot
	if input.InitialStock != nil {
		seed := input.InitialStock
		lotCode, err := validation.String(&seed.LotCode, "initialStock.lotId", true)
		if err != nil {
			return nil, err
		}
		expiry, err := stock.ValidateLotFields(seed.Quantity, seed.UnitPrice, seed.ExpiryDate, "initialStock.")
		if err != nil {
			return nil, err
		}
		reorderLevel := 0
		if seed.ReorderLevel != nil {
			validated, err := validation.Number(seed.ReorderLevel, "initialStock.reorderLevel", validation.NumberOptions{
				Min:     validation.Float(0),
				Max:     validation.Float(stock.MaxQuantity),
				Integer: true,
			}, false)
			if err != nil {
				return nil, err
			}
			reorderLevel = int(*validated)
		}
		seedLot = stock.BuildLot(uuid.Nil, *lotCode, int(seed.Quantity), seed.UnitPrice, expiry, reorderLevel, seed.Remarks)
	}

	item := &models.Item{Name: *name}
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, item); err != nil {
			return err
		}
		if seedLot != nil {
			seedLot.ItemID = item.ID
			if err := s.lots.WithTx(tx).CreateLot(ctx, seedLot); err != nil {
				return err
			}
			item.Lots = []models.StockLot{*seedLot}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create item")
	}
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*models.Item, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "id is required and must be a non-empty string")
	}
	name, err := validation.String(input.Name, "name", false)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "item %s not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
	}

	if name != nil {
		item.Name = *name
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update item")
	}
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "id is required and must be a non-empty string")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete item")
	}
	if affected == 0 {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "item %s not found", id)
	}
	return nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "id is required and must be a non-empty string")
	}
	item, err := s.repo.FindByIDWithLots(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "item %s not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
	}
	return item, nil
}

func (s *service) GetItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list items")
	}
	return items, nil
}
