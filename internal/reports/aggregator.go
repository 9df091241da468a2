// Package reports aggregates the sales ledger into daily, weekly and
// monthly views. Only active sales are counted.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safar/go-sql-pos/internal/cache"
	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/models"
	"github.com/safar/go-sql-pos/internal/store"
)

const (
	MinDays  = 1
	MaxDays  = 365
	MinLimit = 1
	MaxLimit = 100

	weekDays  = 7
	monthDays = 30
)

type Aggregator struct {
	db       *sql.DB
	cache    cache.ReportCache
	location *time.Location
	now      func() time.Time
}

// NewAggregator returns an aggregator that buckets sales by calendar day in
// loc. A nil cache disables caching.
func NewAggregator(db *sql.DB, c cache.ReportCache, loc *time.Location) *Aggregator {
	if c == nil {
		c = cache.NoopCache{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{db: db, cache: c, location: loc, now: time.Now}
}

// GetSalesStats returns one row per calendar day with at least one sale in
// the trailing window of days days, today included, oldest first.
func (a *Aggregator) GetSalesStats(ctx context.Context, days int) ([]models.DailyStat, error) {
	if days < MinDays || days > MaxDays {
		return nil, database.NewValidationError("days", "must be between %d and %d", MinDays, MaxDays)
	}

	key := fmt.Sprintf("daily:%d:%s", days, a.today().Format(time.DateOnly))
	var stats []models.DailyStat
	err := a.cached(ctx, key, &stats, func() error {
		totals, err := store.ListActiveSaleTotals(ctx, a.db, a.windowStart(days))
		if err != nil {
			return err
		}
		stats = bucketByDay(totals, a.location)
		return nil
	})
	return stats, err
}

// GetTopSellingProducts ranks products by units sold, ties broken by id.
func (a *Aggregator) GetTopSellingProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	if limit < MinLimit || limit > MaxLimit {
		return nil, database.NewValidationError("limit", "must be between %d and %d", MinLimit, MaxLimit)
	}

	var top []models.TopProduct
	err := a.cached(ctx, fmt.Sprintf("top:%d", limit), &top, func() error {
		var err error
		top, err = store.TopSellingProducts(ctx, a.db, limit)
		return err
	})
	return top, err
}

// GetWeeklySales covers the last seven calendar days, today included.
func (a *Aggregator) GetWeeklySales(ctx context.Context) (*models.WeeklySales, error) {
	key := fmt.Sprintf("weekly:%s", a.today().Format(time.DateOnly))
	var weekly models.WeeklySales
	err := a.cached(ctx, key, &weekly, func() error {
		totals, err := store.ListActiveSaleTotals(ctx, a.db, a.windowStart(weekDays))
		if err != nil {
			return err
		}
		weekly.Days = bucketByDay(totals, a.location)
		weekly.Totals = sumDays(weekly.Days)
		weekly.Totals.Day = a.windowStart(weekDays)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &weekly, nil
}

// GetMonthlySales groups the last thirty calendar days by month.
func (a *Aggregator) GetMonthlySales(ctx context.Context) ([]models.MonthlyStat, error) {
	key := fmt.Sprintf("monthly:%s", a.today().Format(time.DateOnly))
	var monthly []models.MonthlyStat
	err := a.cached(ctx, key, &monthly, func() error {
		totals, err := store.ListActiveSaleTotals(ctx, a.db, a.windowStart(monthDays))
		if err != nil {
			return err
		}
		monthly = bucketByMonth(bucketByDay(totals, a.location))
		return nil
	})
	return monthly, err
}

func (a *Aggregator) today() time.Time {
	return startOfDay(a.now(), a.location)
}

// windowStart is local midnight days-1 days ago.
func (a *Aggregator) windowStart(days int) time.Time {
	return a.today().AddDate(0, 0, -(days - 1))
}

// cached serves key from the cache or runs compute and stores its result.
// Cache failures are logged and fall through to the database. A failed Get
// leaves the generation unknown, so the result is not stored.
func (a *Aggregator) cached(ctx context.Context, key string, dst any, compute func() error) error {
	hit, gen, getErr := a.cache.Get(ctx, key, dst)
	if getErr != nil {
		log.Printf("[reports] cache get %s: %v", key, getErr)
	}
	if hit {
		return nil
	}

	if err := compute(); err != nil {
		return err
	}
	if getErr != nil {
		return nil
	}

	if err := a.cache.Set(ctx, key, gen, dst); err != nil {
		log.Printf("[reports] cache set %s: %v", key, err)
	}
	return nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// average is revenue/count rounded to cents; zero for an empty bucket.
func average(revenue decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return revenue.Div(decimal.NewFromInt(count)).Round(2)
}
