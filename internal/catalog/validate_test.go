package catalog

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/models"
)

func ptr[T any](v T) *T { return &v }

func validInput() ProductInput {
	return ProductInput{
		Name:      "  Arroz 1kg ",
		Category:  "",
		BuyPrice:  decimal.RequireFromString("7.50"),
		SellPrice: decimal.RequireFromString("9.00"),
		Stock:     12,
	}
}

func TestNewProductNormalises(t *testing.T) {
	p, err := newProduct(validInput())
	require.NoError(t, err)

	assert.Equal(t, "Arroz 1kg", p.Name)
	assert.Equal(t, models.DefaultCategory, p.Category)
	assert.Equal(t, models.DefaultStockThreshold, p.StockThreshold)
	assert.Nil(t, p.Code)
}

func TestNewProductNFCName(t *testing.T) {
	in := validInput()
	in.Name = "Cafe\u0301 molido"

	p, err := newProduct(in)
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9 molido", p.Name)
}

func TestNewProductRejects(t *testing.T) {
	cases := []struct {
		name  string
		field string
		edit  func(*ProductInput)
	}{
		{"short name", "name", func(in *ProductInput) { in.Name = " ab " }},
		{"long name", "name", func(in *ProductInput) { in.Name = strings.Repeat("x", 81) }},
		{"long category", "category", func(in *ProductInput) { in.Category = strings.Repeat("c", 41) }},
		{"zero buy price", "buy_price", func(in *ProductInput) { in.BuyPrice = decimal.Zero }},
		{"huge sell price", "sell_price", func(in *ProductInput) { in.SellPrice = decimal.NewFromInt(1_000_001) }},
		{"sub-cent price", "buy_price", func(in *ProductInput) { in.BuyPrice = decimal.RequireFromString("1.005") }},
		{"sell below buy", "sell_price", func(in *ProductInput) { in.SellPrice = decimal.RequireFromString("7.49") }},
		{"negative stock", "stock", func(in *ProductInput) { in.Stock = -1 }},
		{"negative threshold", "stock_threshold", func(in *ProductInput) { in.StockThreshold = ptr(-1) }},
		{"long code", "code", func(in *ProductInput) { in.Code = ptr(strings.Repeat("9", 65)) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.edit(&in)

			_, err := newProduct(in)
			require.ErrorIs(t, err, database.ErrValidation)

			var verr *database.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestNewProductBoundaries(t *testing.T) {
	in := validInput()
	in.Name = "abc"
	in.BuyPrice = decimal.RequireFromString("0.01")
	in.SellPrice = decimal.RequireFromString("0.01")
	in.Stock = 1_000_000
	in.StockThreshold = ptr(0)
	in.Code = ptr("  ")

	p, err := newProduct(in)
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockThreshold)
	assert.Nil(t, p.Code, "blank code is stored as absent")
}

func TestApplyChangesMergesAndChecksCoherence(t *testing.T) {
	current := models.Product{
		ID:             7,
		Name:           "Leche",
		Category:       "Lacteos",
		BuyPrice:       decimal.RequireFromString("5.00"),
		SellPrice:      decimal.RequireFromString("6.00"),
		Stock:          10,
		StockThreshold: 5,
	}

	merged, err := applyChanges(current, ProductChanges{SellPrice: ptr(decimal.RequireFromString("6.50")), Stock: ptr(3)})
	require.NoError(t, err)
	assert.True(t, merged.SellPrice.Equal(decimal.RequireFromString("6.50")))
	assert.Equal(t, 3, merged.Stock)
	assert.Equal(t, "Leche", merged.Name)

	_, err = applyChanges(current, ProductChanges{BuyPrice: ptr(decimal.RequireFromString("6.01"))})
	var verr *database.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sell_price", verr.Field)
}

func TestProductChangesIsEmpty(t *testing.T) {
	assert.True(t, ProductChanges{}.IsEmpty())
	assert.False(t, ProductChanges{Code: ptr("")}.IsEmpty())
}
