package store

import (
	"context"
	"fmt"
	"time"

	"github.com/safar/go-sql-pos/internal/models"
	"github.com/shopspring/decimal"
)

// SaleTotals is the per-sale slice of data the aggregator buckets by day.
type SaleTotals struct {
	CreatedAt time.Time
	Total     decimal.Decimal
	Payment   models.Payment
}

// ListActiveSaleTotals returns totals and payment split of active sales
// created at or after since, oldest first.
func ListActiveSaleTotals(ctx context.Context, q Querier, since time.Time) ([]SaleTotals, error) {
	query := `
		SELECT created_at, total, paid_cash, paid_card, paid_transfer
		FROM sales
		WHERE active
		  AND created_at >= $1
		ORDER BY created_at, id`

	rows, err := q.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list sale totals: %w", err)
	}
	defer rows.Close()

	var totals []SaleTotals
	for rows.Next() {
		var t SaleTotals
		if err := rows.Scan(&t.CreatedAt, &t.Total, &t.Payment.Cash, &t.Payment.Card, &t.Payment.Transfer); err != nil {
			return nil, fmt.Errorf("scan sale totals: %w", err)
		}
		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return totals, nil
}

// TopSellingProducts ranks products by units sold across active sales.
// Ties on quantity fall back to product id so the order is stable.
func TopSellingProducts(ctx context.Context, q Querier, limit int) ([]models.TopProduct, error) {
	query := `
		SELECT p.id, p.name, p.category, SUM(l.quantity) AS quantity_sold, SUM(l.subtotal) AS revenue
		FROM sale_lines l
		JOIN sales s ON s.id = l.sale_id
		JOIN products p ON p.id = l.product_id
		WHERE s.active
		GROUP BY p.id, p.name, p.category
		ORDER BY quantity_sold DESC, p.id ASC
		LIMIT $1`

	rows, err := q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top selling products: %w", err)
	}
	defer rows.Close()

	top := []models.TopProduct{}
	for rows.Next() {
		var p models.TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Category, &p.QuantitySold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		top = append(top, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return top, nil
}
