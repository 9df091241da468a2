// Package catalog manages the product catalog and detects products that
// need reordering.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/models"
	"github.com/safar/go-sql-pos/internal/store"
)

const (
	DefaultMovementLimit = 50
	maxMovementLimit     = 500
	searchLimit          = 50
)

type Manager struct {
	db          *sql.DB
	lockTimeout time.Duration
	locale      language.Tag
}

// NewManager returns a catalog backed by db. Category collation follows
// locale; an unparsable locale falls back to the root collation.
func NewManager(db *sql.DB, lockTimeout time.Duration, locale string) *Manager {
	tag, err := language.Parse(locale)
	if err != nil {
		log.Printf("[catalog] unknown locale %q, using root collation", locale)
		tag = language.Und
	}
	return &Manager{db: db, lockTimeout: lockTimeout, locale: tag}
}

func (m *Manager) txOptions() database.TxOptions {
	opts := database.DefaultTxOptions()
	opts.LockTimeout = m.lockTimeout
	return opts
}

func (m *Manager) AddProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	p, err := newProduct(in)
	if err != nil {
		return nil, err
	}

	var created *models.Product
	err = database.WithTransaction(ctx, m.db, m.txOptions(), func(tx *sql.Tx) error {
		exists, err := store.ActiveNameExists(ctx, tx, p.Name, 0)
		if err != nil {
			return err
		}
		if exists {
			return database.NewValidationError("name", "an active product named %q already exists", p.Name)
		}

		created, err = store.CreateProduct(ctx, tx, p)
		if err != nil {
			return err
		}

		if created.Stock > 0 {
			return store.InsertMovement(ctx, tx, &models.StockMovement{
				ProductID:   created.ID,
				Kind:        models.MovementInitial,
				Delta:       created.Stock,
				StockBefore: 0,
				StockAfter:  created.Stock,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[catalog] product %d %q added with stock %d", created.ID, created.Name, created.Stock)
	return created, nil
}

func (m *Manager) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return store.ListActiveProducts(ctx, m.db)
}

// GetProductByID returns nil, nil when the product does not exist or has
// been deleted.
func (m *Manager) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, err := store.GetProduct(ctx, m.db, id)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !p.Active {
		return nil, nil
	}
	return p, nil
}

// UpdateProduct applies a partial update under a row lock. A stock change
// is recorded as an adjustment movement.
func (m *Manager) UpdateProduct(ctx context.Context, id int64, changes ProductChanges) (*models.Product, error) {
	if changes.IsEmpty() {
		p, err := m.GetProductByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &database.NotFoundError{Entity: database.EntityProduct, ID: id}
		}
		return p, nil
	}

	var updated *models.Product
	err := database.WithTransaction(ctx, m.db, m.txOptions(), func(tx *sql.Tx) error {
		current, err := store.LockProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		if !current.Active {
			return &database.NotFoundError{Entity: database.EntityProduct, ID: id}
		}

		merged, err := applyChanges(*current, changes)
		if err != nil {
			return err
		}

		if changes.Name != nil && !strings.EqualFold(merged.Name, current.Name) {
			exists, err := store.ActiveNameExists(ctx, tx, merged.Name, id)
			if err != nil {
				return err
			}
			if exists {
				return database.NewValidationError("name", "an active product named %q already exists", merged.Name)
			}
		}

		updated, err = store.UpdateProduct(ctx, tx, merged)
		if err != nil {
			return err
		}

		delta := merged.Stock - current.Stock
		if delta == 0 {
			return nil
		}

		before, after, err := store.AdjustStock(ctx, tx, id, delta)
		if err != nil {
			return fmt.Errorf("adjust stock of product %d: %w", id, err)
		}
		updated.Stock = after

		return store.InsertMovement(ctx, tx, &models.StockMovement{
			ProductID:   id,
			Kind:        models.MovementAdjustment,
			Delta:       delta,
			StockBefore: before,
			StockAfter:  after,
		})
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteProduct soft-deletes a product. Deleting an unknown or already
// deleted product is a no-op.
func (m *Manager) DeleteProduct(ctx context.Context, id int64) error {
	changed, err := store.SoftDeleteProduct(ctx, m.db, id)
	if err != nil {
		return err
	}
	if changed {
		log.Printf("[catalog] product %d deleted", id)
	}
	return nil
}

func (m *Manager) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	term := normalizeText(query)
	if term == "" {
		return []models.Product{}, nil
	}
	return store.SearchActiveProducts(ctx, m.db, term, searchLimit)
}

func (m *Manager) ListStockMovements(ctx context.Context, productID int64, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = DefaultMovementLimit
	}
	if limit > maxMovementLimit {
		limit = maxMovementLimit
	}
	if _, err := store.GetProduct(ctx, m.db, productID); err != nil {
		return nil, err
	}
	return store.ListMovements(ctx, m.db, productID, limit)
}
