package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/models"
)

const saleColumns = `id, total, payment_method, paid_cash, paid_card, paid_transfer, change_due, active, created_at, cancelled_at`

func scanSale(row rowScanner) (*models.Sale, error) {
	sale := &models.Sale{}
	var cancelledAt sql.NullTime

	err := row.Scan(
		&sale.ID,
		&sale.Total,
		&sale.PaymentMethod,
		&sale.Payment.Cash,
		&sale.Payment.Card,
		&sale.Payment.Transfer,
		&sale.Change,
		&sale.Active,
		&sale.CreatedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		sale.CancelledAt = &cancelledAt.Time
	}

	return sale, nil
}

// InsertSale writes the sale header and fills in the generated id and
// creation time on sale.
func InsertSale(ctx context.Context, tx *sql.Tx, sale *models.Sale) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO sales (total, payment_method, paid_cash, paid_card, paid_transfer, change_due, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())
		 RETURNING id, created_at`,
		sale.Total, sale.PaymentMethod, sale.Payment.Cash, sale.Payment.Card, sale.Payment.Transfer, sale.Change,
	).Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("create sale: %w", err)
	}

	sale.Active = true
	return nil
}

func InsertSaleLine(ctx context.Context, tx *sql.Tx, line *models.SaleLine) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO sale_lines (sale_id, product_id, quantity, unit_price, subtotal)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		line.SaleID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal,
	).Scan(&line.ID)
	if err != nil {
		return fmt.Errorf("create sale line: %w", err)
	}

	return nil
}

func GetSale(ctx context.Context, q Querier, id int64) (*models.Sale, error) {
	sale, err := scanSale(q.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &database.NotFoundError{Entity: database.EntitySale, ID: id}
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	return sale, nil
}

// LockSale reads the sale header under FOR UPDATE so two cancellations of
// the same sale serialise on the row.
func LockSale(ctx context.Context, tx *sql.Tx, id int64) (*models.Sale, error) {
	sale, err := scanSale(tx.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &database.NotFoundError{Entity: database.EntitySale, ID: id}
		}
		if database.IsLockNotAvailable(err) {
			return nil, database.ErrLockTimeout
		}
		return nil, fmt.Errorf("lock sale %d: %w", id, err)
	}

	return sale, nil
}

// GetSaleLines returns the lines of a sale in insertion order, joined with
// the current product name and code. Unit prices are the frozen copies.
func GetSaleLines(ctx context.Context, q Querier, saleID int64) ([]models.SaleLine, error) {
	query := `
		SELECT l.id, l.sale_id, l.product_id, p.name, p.code, l.quantity, l.unit_price, l.subtotal
		FROM sale_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.sale_id = $1
		ORDER BY l.id`

	rows, err := q.QueryContext(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}
	defer rows.Close()

	var lines []models.SaleLine
	for rows.Next() {
		var line models.SaleLine
		var code sql.NullString
		err := rows.Scan(
			&line.ID,
			&line.SaleID,
			&line.ProductID,
			&line.ProductName,
			&code,
			&line.Quantity,
			&line.UnitPrice,
			&line.Subtotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		if code.Valid {
			line.ProductCode = &code.String
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

// MarkSaleCancelled flips an active sale to cancelled. A sale that is
// already inactive affects no row and yields ErrAlreadyCancelled.
func MarkSaleCancelled(ctx context.Context, tx *sql.Tx, id int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE sales
		 SET active = FALSE,
		     cancelled_at = NOW()
		 WHERE id = $1
		   AND active`,
		id)
	if err != nil {
		return fmt.Errorf("cancel sale: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrAlreadyCancelled
	}

	return nil
}

// ListActiveSalesSince summarises active sales created at or after since,
// oldest first. ItemCount is the sum of line quantities.
func ListActiveSalesSince(ctx context.Context, q Querier, since time.Time) ([]models.SaleSummary, error) {
	query := `
		SELECT s.id, s.created_at, s.total, COALESCE(SUM(l.quantity), 0)
		FROM sales s
		LEFT JOIN sale_lines l ON l.sale_id = s.id
		WHERE s.active
		  AND s.created_at >= $1
		GROUP BY s.id
		ORDER BY s.created_at, s.id`

	rows, err := q.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	summaries := []models.SaleSummary{}
	for rows.Next() {
		var s models.SaleSummary
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.Total, &s.ItemCount); err != nil {
			return nil, fmt.Errorf("scan sale summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return summaries, nil
}

// ListSalesCursor pages through every sale, cancelled ones included, newest
// first.
func ListSalesCursor(ctx context.Context, q Querier, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, database.NewValidationError("cursor", "malformed cursor")
	}

	query := `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE (created_at, id) < ($1, $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := q.QueryContext(ctx, query, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, *sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(sales) > limit
	if hasMore {
		sales = sales[:limit]
	}

	var nextCursor string
	if hasMore && len(sales) > 0 {
		lastSale := sales[len(sales)-1]
		nextCursor = EncodeCursor(SaleCursor{
			CreatedAt: lastSale.CreatedAt,
			ID:        lastSale.ID,
		})
	}

	return &CursorPage{
		Items:      sales,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
