package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/internal/stock"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/metrics"
	"github.com/stockroomhq/stockroom-backend/pkg/validation"
)

// maxCASAttempts bounds the optimistic retry loop before giving up with a
// retryable conflict.
const maxCASAttempts = 3

// Invalidator is notified after every committed mutation so downstream caches
// can drop stale aggregates.
type Invalidator interface {
	InvalidateSummary(ctx context.Context)
}

// Service records stock movements and corrections. Every committed mutation
// pairs exactly one quantity change with exactly one audit row.
type Service interface {
	RecordMovement(ctx context.Context, input MovementInput) (*MovementResult, error)
	CorrectQuantity(ctx context.Context, input CorrectionInput) (*CorrectionResult, error)
	LotHistory(ctx context.Context, lotCode string) (*LotHistory, error)
}

// MovementInput is the payload for one signed stock movement.
type MovementInput struct {
	LotCode  string
	UserID   uuid.UUID
	Quantity float64
	Type     string
}

// MovementResult pairs the written audit row with the lot's post-state.
type MovementResult struct {
	Transaction *models.StockTransaction
	Lot         *models.StockLot
}

// CorrectionInput is the payload for one absolute quantity override.
type CorrectionInput struct {
	LotCode     string
	UserID      uuid.UUID
	NewQuantity float64
}

// CorrectionResult pairs the written audit row with the lot's post-state.
type CorrectionResult struct {
	Correction *models.StockCorrection
	Lot        *models.StockLot
}

// LotHistory bundles both audit trails for one lot.
type LotHistory struct {
	Lot          *models.StockLot
	Transactions []models.StockTransaction
	Corrections  []models.StockCorrection
}

type service struct {
	repo       *Repository
	lots       *stock.Repository
	dbClient   *db.Client
	logg       *logger.Logger
	meter      *metrics.LedgerMetrics
	invalidate Invalidator
}

// NewService constructs a ledger service. Metrics and the invalidator are
// optional.
func NewService(repo *Repository, lots *stock.Repository, dbClient *db.Client, logg *logger.Logger, meter *metrics.LedgerMetrics, invalidate Invalidator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if lots == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:       repo,
		lots:       lots,
		dbClient:   dbClient,
		logg:       logg,
		meter:      meter,
		invalidate: invalidate,
	}, nil
}

// errStaleQuantity aborts the enclosing transaction when the conditional
// update hits a quantity another writer already changed.
var errStaleQuantity = errors.New("stale lot quantity")

func (s *service) RecordMovement(ctx context.Context, input MovementInput) (*MovementResult, error) {
	started := time.Now()
	defer func() {
		s.meter.ObserveDuration("record_movement", time.Since(started))
	}()

	lotCode, err := validation.String(&input.LotCode, "lotId", true)
	if err != nil {
		return nil, err
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userId is required and must be a non-empty string")
	}
	if _, err := validation.Number(&input.Quantity, "quantity", validation.NumberOptions{
		Min:     validation.Float(1),
		Max:     validation.Float(stock.MaxQuantity),
		Integer: true,
	}, true); err != nil {
		return nil, err
	}
	allowed := enums.TransactionTypeValues()
	allowedStrings := make([]string, len(allowed))
	for i, t := range allowed {
		allowedStrings[i] = string(t)
	}
	typeValue, err := validation.Enum(input.Type, "type", allowedStrings, true)
	if err != nil {
		return nil, err
	}
	movementType := enums.TransactionType(typeValue)
	quantity := int(input.Quantity)

	ctx = s.withLot(ctx, *lotCode)

	for attempt := 1; attempt <= maxCASAttempts; attempt++ {
		lot, err := s.loadLot(ctx, *lotCode)
		if err != nil {
			return nil, err
		}

		if movementType.RemovesStock() && quantity > lot.Quantity {
			s.meter.IncOverdraw()
			return nil, pkgerrors.Newf(pkgerrors.CodeOverdraw,
				"cannot remove %d from lot %s: only %d in stock", quantity, *lotCode, lot.Quantity).
				WithDetails(map[string]any{
					"requested": quantity,
					"available": lot.Quantity,
				})
		}

		next := lot.Quantity + movementType.Delta(quantity)
		txn := &models.StockTransaction{
			LotID:    lot.ID,
			UserID:   input.UserID,
			Quantity: quantity,
			Type:     movementType,
		}

		err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			swapped, err := repo.CompareAndSetQuantity(ctx, lot.ID, lot.Quantity, next)
			if err != nil {
				return err
			}
			if !swapped {
				return errStaleQuantity
			}
			return repo.CreateTransaction(ctx, txn)
		})
		if errors.Is(err, errStaleQuantity) {
			if s.logg != nil {
				s.logg.Warn(ctx, "movement lost quantity race, retrying")
			}
			continue
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: record movement")
		}

		lot.Quantity = next
		s.meter.IncMovement(string(movementType))
		s.notifyInvalidate(ctx)
		if s.logg != nil {
			s.logg.Info(ctx, fmt.Sprintf("recorded %s of %d", movementType, quantity))
		}
		return &MovementResult{Transaction: txn, Lot: lot}, nil
	}

	s.meter.IncConflict()
	return nil, pkgerrors.Newf(pkgerrors.CodeConflict,
		"lot %s is being modified concurrently, retry the movement", *lotCode)
}

func (s *service) CorrectQuantity(ctx context.Context, input CorrectionInput) (*CorrectionResult, error) {
	started := time.Now()
	defer func() {
		s.meter.ObserveDuration("correct_quantity", time.Since(started))
	}()

	lotCode, err := validation.String(&input.LotCode, "lotId", true)
	if err != nil {
		return nil, err
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userId is required and must be a non-empty string")
	}
	if _, err := validation.Number(&input.NewQuantity, "newQuantity", validation.NumberOptions{
		Min:     validation.Float(0),
		Max:     validation.Float(stock.MaxQuantity),
		Integer: true,
	}, true); err != nil {
		return nil, err
	}
	newQuantity := int(input.NewQuantity)

	ctx = s.withLot(ctx, *lotCode)

	for attempt := 1; attempt <= maxCASAttempts; attempt++ {
		lot, err := s.loadLot(ctx, *lotCode)
		if err != nil {
			return nil, err
		}

		correction := &models.StockCorrection{
			LotID:         lot.ID,
			UserID:        input.UserID,
			ItemQtyBefore: lot.Quantity,
			ItemQtyAfter:  newQuantity,
		}

		err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			swapped, err := repo.CompareAndSetQuantity(ctx, lot.ID, lot.Quantity, newQuantity)
			if err != nil {
				return err
			}
			if !swapped {
				return errStaleQuantity
			}
			return repo.CreateCorrection(ctx, correction)
		})
		if errors.Is(err, errStaleQuantity) {
			if s.logg != nil {
				s.logg.Warn(ctx, "correction lost quantity race, retrying")
			}
			continue
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: record correction")
		}

		lot.Quantity = newQuantity
		s.meter.IncCorrection()
		s.notifyInvalidate(ctx)
		if s.logg != nil {
			s.logg.Info(ctx, fmt.Sprintf("corrected quantity %d -> %d", correction.ItemQtyBefore, newQuantity))
		}
		return &CorrectionResult{Correction: correction, Lot: lot}, nil
	}

	s.meter.IncConflict()
	return nil, pkgerrors.Newf(pkgerrors.CodeConflict,
		"lot %s is being modified concurrently, retry the correction", *lotCode)
}

func (s *service) LotHistory(ctx context.Context, lotCode string) (*LotHistory, error) {
	code, err := validation.String(&lotCode, "lotId", true)
	if err != nil {
		return nil, err
	}
	lot, err := s.loadLot(ctx, *code)
	if err != nil {
		return nil, err
	}
	txns, err := s.repo.ListTransactionsByLot(ctx, lot.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list transactions")
	}
	corrections, err := s.repo.ListCorrectionsByLot(ctx, lot.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list corrections")
	}
	return &LotHistory{Lot: lot, Transactions: txns, Corrections: corrections}, nil
}

func (s *service) loadLot(ctx context.Context, lotCode string) (*models.StockLot, error) {
	lot, err := s.lots.FindByLotCode(ctx, lotCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "stock lot %s not found", lotCode)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load stock lot")
	}
	return lot, nil
}

func (s *service) withLot(ctx context.Context, lotCode string) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithLotCode(ctx, lotCode)
}

func (s *service) notifyInvalidate(ctx context.Context) {
	if s.invalidate != nil {
		s.invalidate.InvalidateSummary(ctx)
	}
}
