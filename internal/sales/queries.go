package sales

import (
	"context"
	"time"

	"github.com/safar/go-sql-pos/internal/models"
	"github.com/safar/go-sql-pos/internal/store"
)

// GetTodaySales lists active sales since local midnight, oldest first.
func (e *Engine) GetTodaySales(ctx context.Context) ([]models.SaleSummary, error) {
	return store.ListActiveSalesSince(ctx, e.db, startOfDay(time.Now(), e.location))
}

// GetSaleDetail returns a sale with its lines, cancelled or not.
func (e *Engine) GetSaleDetail(ctx context.Context, saleID int64) (*models.Sale, error) {
	sale, err := store.GetSale(ctx, e.db, saleID)
	if err != nil {
		return nil, err
	}

	lines, err := store.GetSaleLines(ctx, e.db, saleID)
	if err != nil {
		return nil, err
	}
	sale.Lines = lines

	return sale, nil
}

// ListSales pages through the sale history, newest first.
func (e *Engine) ListSales(ctx context.Context, cursor string, limit int) (*store.CursorPage, error) {
	return store.ListSalesCursor(ctx, e.db, cursor, store.ClampPageSize(limit))
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
