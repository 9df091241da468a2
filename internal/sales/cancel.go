package sales

import (
	"context"
	"database/sql"
	"log"

	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/events"
	"github.com/safar/go-sql-pos/internal/metrics"
	"github.com/safar/go-sql-pos/internal/models"
	"github.com/safar/go-sql-pos/internal/store"
)

// CancelSale reverses a sale exactly once: every line quantity goes back to
// stock, including for products deleted since, and the sale is marked
// inactive. A second call fails with ErrAlreadyCancelled and changes
// nothing.
func (e *Engine) CancelSale(ctx context.Context, saleID int64) error {
	var restored map[int64]int

	err := database.WithTransaction(ctx, e.db, e.txOptions(), func(tx *sql.Tx) error {
		sale, err := store.LockSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if !sale.Active {
			return database.ErrAlreadyCancelled
		}

		lines, err := store.GetSaleLines(ctx, tx, saleID)
		if err != nil {
			return err
		}

		restored = make(map[int64]int, len(lines))
		for _, line := range lines {
			restored[line.ProductID] += line.Quantity
		}

		for _, id := range sortedIDs(restored) {
			if _, err := store.LockProduct(ctx, tx, id); err != nil {
				return err
			}
			if err := moveStock(ctx, tx, id, restored[id], models.MovementCancellation, saleID); err != nil {
				return err
			}
		}

		return store.MarkSaleCancelled(ctx, tx, saleID)
	})
	if err != nil {
		return err
	}

	e.afterCancel(ctx, saleID, restored)
	return nil
}

func (e *Engine) afterCancel(ctx context.Context, saleID int64, restored map[int64]int) {
	ctx, cancel := sideEffectContext(ctx)
	defer cancel()

	metrics.RecordSaleCancelled()
	e.invalidateReports(ctx)

	lines := make([]events.LineQty, 0, len(restored))
	for _, id := range sortedIDs(restored) {
		lines = append(lines, events.LineQty{ProductID: id, Quantity: restored[id]})
	}
	e.publish(ctx, events.TopicSaleCancelled, events.EventSaleCancelled, saleID, events.SaleCancelledPayload{
		SaleID:   saleID,
		Restored: lines,
	})

	log.Printf("[sales] sale %d cancelled, %d product(s) restocked", saleID, len(restored))
}
