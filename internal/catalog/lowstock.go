package catalog

import (
	"context"
	"sort"

	"golang.org/x/text/collate"

	"github.com/safar/go-sql-pos/internal/models"
	"github.com/safar/go-sql-pos/internal/store"
)

// GetLowStockProducts lists active products at or below their threshold.
func (m *Manager) GetLowStockProducts(ctx context.Context) ([]models.Product, error) {
	return store.ListLowStockProducts(ctx, m.db)
}

// GetLowStockProductsByCategory returns the reorder report: rows grouped by
// category in locale order, largest deficit first within a category.
func (m *Manager) GetLowStockProductsByCategory(ctx context.Context) ([]models.LowStockRow, error) {
	products, err := store.ListLowStockProducts(ctx, m.db)
	if err != nil {
		return nil, err
	}

	rows := make([]models.LowStockRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, models.LowStockRow{
			Category:       p.Category,
			Name:           p.Name,
			Stock:          p.Stock,
			StockThreshold: p.StockThreshold,
			BuyPrice:       p.BuyPrice,
			SellPrice:      p.SellPrice,
			Deficit:        p.Deficit(),
		})
	}

	sortLowStockRows(rows, collate.New(m.locale, collate.IgnoreCase))
	return rows, nil
}

func sortLowStockRows(rows []models.LowStockRow, c *collate.Collator) {
	sort.SliceStable(rows, func(i, j int) bool {
		if cmp := c.CompareString(rows[i].Category, rows[j].Category); cmp != 0 {
			return cmp < 0
		}
		if rows[i].Deficit != rows[j].Deficit {
			return rows[i].Deficit > rows[j].Deficit
		}
		return c.CompareString(rows[i].Name, rows[j].Name) < 0
	})
}
