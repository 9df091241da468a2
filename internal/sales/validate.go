package sales

import (
	"github.com/shopspring/decimal"

	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/models"
)

// maxLineQuantity matches the catalog's stock ceiling.
const maxLineQuantity = 1_000_000

func validateSale(items []SaleItem, method models.PaymentMethod, amountReceived decimal.Decimal) error {
	if len(items) == 0 {
		return database.NewValidationError("items", "a sale needs at least one item")
	}

	for i, item := range items {
		if item.ProductID < 1 {
			return database.NewValidationError("items", "line %d: invalid product id %d", i+1, item.ProductID)
		}
		if item.Quantity < 1 || item.Quantity > maxLineQuantity {
			return database.NewValidationError("items", "line %d: quantity must be between 1 and %d", i+1, maxLineQuantity)
		}
		if !item.UnitPrice.IsPositive() {
			return database.NewValidationError("items", "line %d: unit price must be greater than zero", i+1)
		}
		if item.UnitPrice.GreaterThan(models.MaxAmount) {
			return database.NewValidationError("items", "line %d: unit price must be at most %s", i+1, models.MaxAmount.StringFixed(2))
		}
		if !item.UnitPrice.Equal(item.UnitPrice.Round(2)) {
			return database.NewValidationError("items", "line %d: unit price must have at most two decimal places", i+1)
		}
	}

	if !method.Valid() {
		return database.NewValidationError("payment_method", "unknown payment method %q", method)
	}
	if amountReceived.IsNegative() {
		return database.NewValidationError("amount_received", "must not be negative")
	}
	if amountReceived.GreaterThan(models.MaxAmount) {
		return database.NewValidationError("amount_received", "must be at most %s", models.MaxAmount.StringFixed(2))
	}
	if !amountReceived.Equal(amountReceived.Round(2)) {
		return database.NewValidationError("amount_received", "must have at most two decimal places")
	}
	if cartTotal(items).GreaterThan(models.MaxAmount) {
		return database.NewValidationError("items", "sale total must be at most %s", models.MaxAmount.StringFixed(2))
	}

	return nil
}
