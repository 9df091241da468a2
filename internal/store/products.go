package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/models"
)

const productColumns = `id, name, category, buy_price, sell_price, stock, stock_threshold, code, active, created_at, updated_at`

const (
	constraintActiveName    = "products_active_name_key"
	constraintCode          = "products_code_key"
	constraintStockNonNeg   = "products_stock_non_negative"
	constraintPriceCoherent = "products_price_coherent"
)

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	var code sql.NullString

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.BuyPrice,
		&product.SellPrice,
		&product.Stock,
		&product.StockThreshold,
		&code,
		&product.Active,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if code.Valid {
		product.Code = &code.String
	}

	return product, nil
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	defer rows.Close()

	products := make([]models.Product, 0, 32)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// translateProductWriteError turns constraint violations raised by the
// schema into the typed errors callers expect.
func translateProductWriteError(err error, product models.Product) error {
	constraint, ok := database.Constraint(err)
	if !ok {
		return err
	}

	switch constraint {
	case constraintActiveName:
		return database.NewValidationError("name", "an active product named %q already exists", product.Name)
	case constraintCode:
		return database.NewValidationError("code", "code is already used by another product")
	case constraintPriceCoherent:
		return database.NewValidationError("sell_price", "sell price cannot be lower than buy price")
	case constraintStockNonNeg:
		return &database.InsufficientStockError{ProductID: product.ID, Name: product.Name, Available: product.Stock}
	}
	return err
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func CreateProduct(ctx context.Context, q Querier, p models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (name, category, buy_price, sell_price, stock, stock_threshold, code, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW())
		RETURNING ` + productColumns

	product, err := scanProduct(q.QueryRowContext(ctx, query,
		p.Name, p.Category, p.BuyPrice, p.SellPrice, p.Stock, p.StockThreshold, nullableString(p.Code)))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", translateProductWriteError(err, p))
	}

	return product, nil
}

// GetProduct returns the product regardless of its active flag.
func GetProduct(ctx context.Context, q Querier, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &database.NotFoundError{Entity: database.EntityProduct, ID: id}
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// LockProduct re-reads the product row under FOR UPDATE, serialising every
// writer that touches the same product until tx ends.
func LockProduct(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	product, err := scanProduct(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &database.NotFoundError{Entity: database.EntityProduct, ID: id}
		}
		if database.IsLockNotAvailable(err) {
			return nil, database.ErrLockTimeout
		}
		return nil, fmt.Errorf("lock product %d: %w", id, err)
	}

	return product, nil
}

func ActiveNameExists(ctx context.Context, q Querier, name string, excludeID int64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE active AND LOWER(name) = LOWER($1) AND id <> $2)`,
		name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product name: %w", err)
	}
	return exists, nil
}

func ListActiveProducts(ctx context.Context, q Querier) ([]models.Product, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return scanProducts(rows)
}

// SearchActiveProducts matches a name fragment case-insensitively or an
// exact code.
func SearchActiveProducts(ctx context.Context, q Querier, term string, limit int) ([]models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE active
		  AND (name ILIKE '%' || $1 || '%' OR code = $1)
		ORDER BY name
		LIMIT $2`

	rows, err := q.QueryContext(ctx, query, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return scanProducts(rows)
}

func ListLowStockProducts(ctx context.Context, q Querier) ([]models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE active
		  AND stock <= stock_threshold
		ORDER BY category, name`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	return scanProducts(rows)
}

// UpdateProduct writes every mutable attribute except stock, which only
// moves through AdjustStock so each change is paired with a movement.
func UpdateProduct(ctx context.Context, tx *sql.Tx, p models.Product) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = $1,
		    category = $2,
		    buy_price = $3,
		    sell_price = $4,
		    stock_threshold = $5,
		    code = $6,
		    updated_at = NOW()
		WHERE id = $7
		RETURNING ` + productColumns

	product, err := scanProduct(tx.QueryRowContext(ctx, query,
		p.Name, p.Category, p.BuyPrice, p.SellPrice, p.StockThreshold, nullableString(p.Code), p.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &database.NotFoundError{Entity: database.EntityProduct, ID: p.ID}
		}
		return nil, fmt.Errorf("update product: %w", translateProductWriteError(err, p))
	}

	return product, nil
}

// SoftDeleteProduct flips active off. It reports whether a row changed so
// callers can tell a first delete from a repeated one.
func SoftDeleteProduct(ctx context.Context, q Querier, id int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE products SET active = FALSE, updated_at = NOW() WHERE id = $1 AND active`, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// AdjustStock applies delta to the product stock and returns the stock
// before and after. A negative delta that would take stock below zero
// affects no row and yields ErrInsufficientStock.
func AdjustStock(ctx context.Context, tx *sql.Tx, productID int64, delta int) (before, after int, err error) {
	err = tx.QueryRowContext(ctx,
		`UPDATE products
		 SET stock = stock + $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock + $1 >= 0
		 RETURNING stock - $1, stock`,
		delta, productID).Scan(&before, &after)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, database.ErrInsufficientStock
		}
		return 0, 0, fmt.Errorf("adjust stock: %w", err)
	}

	return before, after, nil
}
