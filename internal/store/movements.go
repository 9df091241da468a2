package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-sql-pos/internal/models"
)

// InsertMovement appends one row to the stock audit trail. It must run in
// the transaction that changed the stock.
func InsertMovement(ctx context.Context, tx *sql.Tx, m *models.StockMovement) error {
	var saleID any
	if m.SaleID != nil {
		saleID = *m.SaleID
	}

	err := tx.QueryRowContext(ctx,
		`INSERT INTO stock_movements (product_id, kind, delta, stock_before, stock_after, sale_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 RETURNING id, created_at`,
		m.ProductID, m.Kind, m.Delta, m.StockBefore, m.StockAfter, saleID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}

	return nil
}

// ListMovements returns the most recent movements of a product, newest first.
func ListMovements(ctx context.Context, q Querier, productID int64, limit int) ([]models.StockMovement, error) {
	query := `
		SELECT id, product_id, kind, delta, stock_before, stock_after, sale_id, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY id DESC
		LIMIT $2`

	rows, err := q.QueryContext(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	movements := []models.StockMovement{}
	for rows.Next() {
		var m models.StockMovement
		var saleID sql.NullInt64
		err := rows.Scan(
			&m.ID,
			&m.ProductID,
			&m.Kind,
			&m.Delta,
			&m.StockBefore,
			&m.StockAfter,
			&saleID,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		if saleID.Valid {
			m.SaleID = &saleID.Int64
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return movements, nil
}
