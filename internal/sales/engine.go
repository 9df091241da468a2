// Package sales registers and cancels point-of-sale transactions against
// product stock.
package sales

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safar/go-sql-pos/internal/cache"
	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/events"
	"github.com/safar/go-sql-pos/internal/metrics"
	"github.com/safar/go-sql-pos/internal/models"
	"github.com/safar/go-sql-pos/internal/store"
)

const sideEffectTimeout = 5 * time.Second

// Invalidator drops cached report views after the ledger changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type SaleItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type SaleReceipt struct {
	ID        int64           `json:"id"`
	Total     decimal.Decimal `json:"total"`
	Change    decimal.Decimal `json:"change"`
	LineCount int             `json:"line_count"`
	CreatedAt time.Time       `json:"created_at"`
}

type Engine struct {
	db          *sql.DB
	lockTimeout time.Duration
	location    *time.Location
	cache       Invalidator
	publisher   events.Publisher
	producer    string
}

type Option func(*Engine)

func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) { e.lockTimeout = d }
}

// WithLocation sets the zone whose midnight starts "today".
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.location = loc }
}

func WithCache(c Invalidator) Option {
	return func(e *Engine) { e.cache = c }
}

func WithPublisher(p events.Publisher, producer string) Option {
	return func(e *Engine) {
		e.publisher = p
		e.producer = producer
	}
}

func NewEngine(db *sql.DB, opts ...Option) *Engine {
	e := &Engine{
		db:        db,
		location:  time.Local,
		cache:     cache.NoopCache{},
		publisher: events.NoopPublisher{},
		producer:  "pos",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) txOptions() database.TxOptions {
	opts := database.DefaultTxOptions()
	opts.LockTimeout = e.lockTimeout
	return opts
}

// RegisterSale converts a cart into a committed sale. Stock of every
// product is checked and decremented under row locks in the same
// transaction that writes the sale, so either all of it happens or none.
func (e *Engine) RegisterSale(ctx context.Context, items []SaleItem, method models.PaymentMethod, amountReceived decimal.Decimal) (*SaleReceipt, error) {
	receipt, sale, err := e.registerSale(ctx, items, method, amountReceived)
	if err != nil {
		metrics.RecordSaleRejected(rejectReason(err))
		return nil, err
	}

	e.afterRegister(ctx, sale)
	return receipt, nil
}

func (e *Engine) registerSale(ctx context.Context, items []SaleItem, method models.PaymentMethod, amountReceived decimal.Decimal) (*SaleReceipt, *models.Sale, error) {
	if err := validateSale(items, method, amountReceived); err != nil {
		return nil, nil, err
	}

	total := cartTotal(items)
	if amountReceived.LessThan(total) {
		return nil, nil, &database.InsufficientPaymentError{Total: total, Received: amountReceived}
	}

	sale := &models.Sale{
		Total:         total,
		PaymentMethod: method,
		Payment:       models.NewPayment(method, amountReceived),
		Change:        amountReceived.Sub(total),
	}

	requested := requestedQuantities(items)

	err := database.WithTransaction(ctx, e.db, e.txOptions(), func(tx *sql.Tx) error {
		for _, id := range sortedIDs(requested) {
			product, err := store.LockProduct(ctx, tx, id)
			if err != nil {
				return err
			}
			if !product.Active {
				return &database.NotFoundError{Entity: database.EntityProduct, ID: id}
			}
			if product.Stock < requested[id] {
				return &database.InsufficientStockError{
					ProductID: id,
					Name:      product.Name,
					Available: product.Stock,
					Requested: requested[id],
				}
			}
		}

		if err := store.InsertSale(ctx, tx, sale); err != nil {
			return err
		}

		sale.Lines = make([]models.SaleLine, 0, len(items))
		for _, item := range items {
			line := models.SaleLine{
				SaleID:    sale.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Subtotal:  models.LineSubtotal(item.Quantity, item.UnitPrice),
			}
			if err := store.InsertSaleLine(ctx, tx, &line); err != nil {
				return err
			}
			sale.Lines = append(sale.Lines, line)
		}

		for _, id := range sortedIDs(requested) {
			if err := moveStock(ctx, tx, id, -requested[id], models.MovementSale, sale.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &SaleReceipt{
		ID:        sale.ID,
		Total:     sale.Total,
		Change:    sale.Change,
		LineCount: len(sale.Lines),
		CreatedAt: sale.CreatedAt,
	}, sale, nil
}

// moveStock applies delta to a locked product and records the movement.
func moveStock(ctx context.Context, tx *sql.Tx, productID int64, delta int, kind models.MovementKind, saleID int64) error {
	before, after, err := store.AdjustStock(ctx, tx, productID, delta)
	if err != nil {
		return err
	}

	return store.InsertMovement(ctx, tx, &models.StockMovement{
		ProductID:   productID,
		Kind:        kind,
		Delta:       delta,
		StockBefore: before,
		StockAfter:  after,
		SaleID:      &saleID,
	})
}

func cartTotal(items []SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(models.LineSubtotal(item.Quantity, item.UnitPrice))
	}
	return total
}

// requestedQuantities sums quantities per product so a product listed on
// several lines is checked against its combined demand.
func requestedQuantities(items []SaleItem) map[int64]int {
	requested := make(map[int64]int, len(items))
	for _, item := range items {
		requested[item.ProductID] += item.Quantity
	}
	return requested
}

// sortedIDs fixes the lock order; every writer takes product locks in
// ascending id order.
func sortedIDs(quantities map[int64]int) []int64 {
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, database.ErrValidation):
		return "validation"
	case errors.Is(err, database.ErrInsufficientPayment):
		return "insufficient_payment"
	case errors.Is(err, database.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, database.ErrNotFound):
		return "not_found"
	case errors.Is(err, database.ErrLockTimeout):
		return "lock_timeout"
	}
	return "error"
}

// sideEffectContext outlives the caller's cancellation so a committed
// change is still announced when the client has gone away.
func sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}

func (e *Engine) afterRegister(ctx context.Context, sale *models.Sale) {
	ctx, cancel := sideEffectContext(ctx)
	defer cancel()

	metrics.RecordSaleRegistered(sale.Total)
	e.invalidateReports(ctx)

	lines := make([]events.LineQty, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		lines = append(lines, events.LineQty{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	e.publish(ctx, events.TopicSaleRegistered, events.EventSaleRegistered, sale.ID, events.SaleRegisteredPayload{
		SaleID:        sale.ID,
		Total:         sale.Total,
		Change:        sale.Change,
		PaymentMethod: string(sale.PaymentMethod),
		Lines:         lines,
	})

	log.Printf("[sales] sale %d registered: total=%s lines=%d method=%s",
		sale.ID, sale.Total.StringFixed(2), len(sale.Lines), sale.PaymentMethod)
}

func (e *Engine) invalidateReports(ctx context.Context) {
	if err := e.cache.Invalidate(ctx); err != nil {
		log.Printf("[sales] invalidate report cache: %v", err)
	}
}

func (e *Engine) publish(ctx context.Context, topic, eventType string, saleID int64, payload any) {
	key := strconv.FormatInt(saleID, 10)
	env, err := events.NewEnvelope(eventType, e.producer, key, payload)
	if err != nil {
		log.Printf("[sales] build %s event: %v", eventType, err)
		return
	}
	if err := e.publisher.Publish(ctx, topic, key, env); err != nil {
		log.Printf("[sales] publish %s for sale %d: %v", eventType, saleID, err)
	}
}
