package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultStockThreshold = 5

const DefaultCategory = "General"

// MaxAmount is the largest value a NUMERIC(12,2) money column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	BuyPrice       decimal.Decimal `json:"buy_price"`
	SellPrice      decimal.Decimal `json:"sell_price"`
	Stock          int             `json:"stock"`
	StockThreshold int             `json:"stock_threshold"`
	Code           *string         `json:"code,omitempty"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsLowStock uses the inclusive rule: a product sitting exactly on its
// threshold already needs reordering.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.StockThreshold
}

// Deficit is the shortfall against the threshold, never negative.
func (p Product) Deficit() int {
	if d := p.StockThreshold - p.Stock; d > 0 {
		return d
	}
	return 0
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// Payment is the amount received broken down per channel; exactly one
// channel is non-zero for a sale.
type Payment struct {
	Cash     decimal.Decimal `json:"cash"`
	Card     decimal.Decimal `json:"card"`
	Transfer decimal.Decimal `json:"transfer"`
}

func NewPayment(method PaymentMethod, amount decimal.Decimal) Payment {
	var p Payment
	switch method {
	case PaymentCash:
		p.Cash = amount
	case PaymentCard:
		p.Card = amount
	case PaymentTransfer:
		p.Transfer = amount
	}
	return p
}

type Sale struct {
	ID            int64           `json:"id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Payment       Payment         `json:"payment"`
	Change        decimal.Decimal `json:"change"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	Lines         []SaleLine      `json:"lines,omitempty"`
}

type SaleLine struct {
	ID          int64           `json:"id"`
	SaleID      int64           `json:"sale_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	ProductCode *string         `json:"product_code,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// LineSubtotal is quantity × unit price in exact decimal arithmetic.
func LineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

type MovementKind string

const (
	MovementInitial      MovementKind = "initial"
	MovementAdjustment   MovementKind = "adjustment"
	MovementSale         MovementKind = "sale"
	MovementCancellation MovementKind = "cancellation"
)

type StockMovement struct {
	ID          int64        `json:"id"`
	ProductID   int64        `json:"product_id"`
	Kind        MovementKind `json:"kind"`
	Delta       int          `json:"delta"`
	StockBefore int          `json:"stock_before"`
	StockAfter  int          `json:"stock_after"`
	SaleID      *int64       `json:"sale_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// LowStockRow is the export contract consumed by the report renderer.
type LowStockRow struct {
	Category       string          `json:"category"`
	Name           string          `json:"name"`
	Stock          int             `json:"stock"`
	StockThreshold int             `json:"stock_threshold"`
	BuyPrice       decimal.Decimal `json:"buy_price"`
	SellPrice      decimal.Decimal `json:"sell_price"`
	Deficit        int             `json:"deficit"`
}

type SaleSummary struct {
	ID        int64           `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

type DailyStat struct {
	Day           time.Time       `json:"day"`
	SaleCount     int64           `json:"sale_count"`
	Revenue       decimal.Decimal `json:"revenue"`
	AverageSale   decimal.Decimal `json:"average_sale"`
	CashTotal     decimal.Decimal `json:"cash_total"`
	CardTotal     decimal.Decimal `json:"card_total"`
	TransferTotal decimal.Decimal `json:"transfer_total"`
}

type WeeklySales struct {
	Days   []DailyStat `json:"days"`
	Totals DailyStat   `json:"totals"`
}

type MonthlyStat struct {
	Month         string          `json:"month"`
	SaleCount     int64           `json:"sale_count"`
	Revenue       decimal.Decimal `json:"revenue"`
	AverageSale   decimal.Decimal `json:"average_sale"`
	CashTotal     decimal.Decimal `json:"cash_total"`
	CardTotal     decimal.Decimal `json:"card_total"`
	TransferTotal decimal.Decimal `json:"transfer_total"`
}

type TopProduct struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}
