package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/models"
)

func item(id int64, qty int, price string) SaleItem {
	return SaleItem{ProductID: id, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func TestValidateSale(t *testing.T) {
	ok := []SaleItem{item(1, 2, "3.50")}
	amount := decimal.NewFromInt(10)

	cases := []struct {
		name   string
		items  []SaleItem
		method models.PaymentMethod
		amount decimal.Decimal
		field  string
	}{
		{"empty cart", nil, models.PaymentCash, amount, "items"},
		{"zero quantity", []SaleItem{item(1, 0, "3.50")}, models.PaymentCash, amount, "items"},
		{"zero price", []SaleItem{item(1, 1, "0")}, models.PaymentCash, amount, "items"},
		{"negative price", []SaleItem{item(1, 1, "-1")}, models.PaymentCash, amount, "items"},
		{"sub-cent price", []SaleItem{item(1, 1, "0.005")}, models.PaymentCash, amount, "items"},
		{"bad product id", []SaleItem{item(0, 1, "1")}, models.PaymentCash, amount, "items"},
		{"unknown method", ok, models.PaymentMethod("cheque"), amount, "payment_method"},
		{"negative amount", ok, models.PaymentCard, decimal.NewFromInt(-1), "amount_received"},
		{"quantity above ceiling", []SaleItem{item(1, maxLineQuantity+1, "1")}, models.PaymentCash, amount, "items"},
		{"price above column range", []SaleItem{item(1, 1, "10000000000")}, models.PaymentCash, amount, "items"},
		{"amount above column range", ok, models.PaymentCash, decimal.RequireFromString("10000000000"), "amount_received"},
		{"total above column range", []SaleItem{item(1, 2, "9999999999.99")}, models.PaymentCash, models.MaxAmount, "items"},
		{"huge quantity at max price", []SaleItem{item(1, 1<<40, "9999999999.99")}, models.PaymentCash, models.MaxAmount, "items"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateSale(tc.items, tc.method, tc.amount)
			require.ErrorIs(t, err, database.ErrValidation)

			var verr *database.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	assert.NoError(t, validateSale(ok, models.PaymentTransfer, amount))
	assert.NoError(t, validateSale([]SaleItem{item(1, 1, "9999999999.99")}, models.PaymentCash, models.MaxAmount))
}

func TestCartTotalIsExact(t *testing.T) {
	items := []SaleItem{
		item(1, 3, "0.10"),
		item(2, 1, "0.20"),
		item(3, 7, "19.99"),
	}

	total := cartTotal(items)
	assert.Equal(t, "140.43", total.StringFixed(2))
	assert.True(t, total.Equal(decimal.RequireFromString("140.43")))
}

func TestRequestedQuantitiesAndLockOrder(t *testing.T) {
	items := []SaleItem{
		item(9, 1, "1"),
		item(3, 2, "1"),
		item(9, 4, "1"),
		item(5, 1, "1"),
	}

	requested := requestedQuantities(items)
	assert.Equal(t, map[int64]int{9: 5, 3: 2, 5: 1}, requested)
	assert.Equal(t, []int64{3, 5, 9}, sortedIDs(requested))
}

func TestRejectReason(t *testing.T) {
	assert.Equal(t, "validation", rejectReason(database.NewValidationError("items", "x")))
	assert.Equal(t, "insufficient_stock", rejectReason(&database.InsufficientStockError{}))
	assert.Equal(t, "insufficient_payment", rejectReason(&database.InsufficientPaymentError{}))
	assert.Equal(t, "not_found", rejectReason(&database.NotFoundError{Entity: database.EntityProduct}))
	assert.Equal(t, "lock_timeout", rejectReason(database.ErrLockTimeout))
	assert.Equal(t, "error", rejectReason(assert.AnError))
}
