package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/redis"
)

const summaryCacheScope = "financial_summary"

// FinancialSummary values the stock on hand. Amounts are fixed to two decimal
// places exactly once, at the end of aggregation.
type FinancialSummary struct {
	TotalInventoryValue  string `json:"totalInventoryValue"`
	TotalExpirationValue string `json:"totalExpirationValue"`
}

// Cache is the slice of the redis client the report service needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(scope string) string
}

// Service produces inventory reports.
type Service interface {
	FinancialSummary(ctx context.Context) (*FinancialSummary, error)
	InvalidateSummary(ctx context.Context)
}

type service struct {
	repo  *Repository
	cache Cache
	cfg   config.ReportsConfig
	logg  *logger.Logger
	now   func() time.Time
}

// NewService constructs a report service. The cache is optional; without one
// every summary is computed from the database.
func NewService(repo *Repository, cache Cache, cfg config.ReportsConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	return &service{repo: repo, cache: cache, cfg: cfg, logg: logg, now: time.Now}, nil
}

// FinancialSummary values active and expired stock in two passes over the lot
// rows. Active stock skips soft-deleted lots; the expired total deliberately
// counts soft-deleted lots too, since disposal paperwork still references them.
func (s *service) FinancialSummary(ctx context.Context) (*FinancialSummary, error) {
	if cached := s.readCached(ctx); cached != nil {
		return cached, nil
	}

	lots, err := s.repo.ListAllLots(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list lots for summary")
	}

	now := s.now()
	active := decimal.Zero
	expired := decimal.Zero
	for i := range lots {
		lot := &lots[i]
		value := lotValue(lot)
		if lot.Expired(now) {
			expired = expired.Add(value)
			continue
		}
		if !lot.IsDeleted {
			active = active.Add(value)
		}
	}

	summary := &FinancialSummary{
		TotalInventoryValue:  active.StringFixed(2),
		TotalExpirationValue: expired.StringFixed(2),
	}
	s.writeCached(ctx, summary)
	return summary, nil
}

// InvalidateSummary drops the cached summary after a committed mutation.
func (s *service) InvalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.CacheKey(summaryCacheScope)); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to invalidate summary cache: "+err.Error())
	}
}

func (s *service) readCached(ctx context.Context) *FinancialSummary {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cache.CacheKey(summaryCacheScope))
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) && s.logg != nil {
			s.logg.Warn(ctx, "summary cache read failed: "+err.Error())
		}
		return nil
	}
	var summary FinancialSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil
	}
	return &summary
}

func (s *service) writeCached(ctx context.Context, summary *FinancialSummary) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CacheKey(summaryCacheScope), string(raw), s.cfg.SummaryCacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "summary cache write failed: "+err.Error())
	}
}

func lotValue(lot *models.StockLot) decimal.Decimal {
	if lot.UnitPrice == nil {
		return decimal.Zero
	}
	return lot.UnitPrice.Mul(decimal.NewFromInt(int64(lot.Quantity)))
}
