package sales_test

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/models"
	"github.com/safar/go-sql-pos/internal/sales"
)

func TestScenarioSaleTriggersLowStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rice := f.addProduct(t, "Rice", "2.50", "3.50", 20, 5)

	low, err := f.catalog.GetLowStockProducts(ctx)
	if err != nil {
		t.Fatalf("Get low stock products: %v", err)
	}
	if len(low) != 0 {
		t.Fatalf("Expected no low stock products, got %d", len(low))
	}

	receipt, err := f.engine.RegisterSale(ctx, []sales.SaleItem{
		{ProductID: rice.ID, Quantity: 16, UnitPrice: money("3.50")},
	}, models.PaymentCash, money("60"))
	if err != nil {
		t.Fatalf("Register sale: %v", err)
	}
	if !receipt.Change.Equal(money("4.00")) {
		t.Errorf("Expected change 4.00, got %s", receipt.Change)
	}

	if got := f.stock(t, rice.ID); got != 4 {
		t.Errorf("Expected stock 4, got %d", got)
	}

	rows, err := f.catalog.GetLowStockProductsByCategory(ctx)
	if err != nil {
		t.Fatalf("Get low stock by category: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Rice" || rows[0].Deficit != 1 {
		t.Errorf("Expected Rice with deficit 1, got %+v", rows)
	}
}

func TestScenarioOversellLeavesStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	x := f.addProduct(t, "Beans", "1.00", "2.00", 3, 1)

	_, err := f.engine.RegisterSale(ctx, []sales.SaleItem{
		{ProductID: x.ID, Quantity: 5, UnitPrice: money("2.0")},
	}, models.PaymentCash, money("10"))
	if !errors.Is(err, database.ErrInsufficientStock) {
		t.Fatalf("Expected insufficient stock, got: %v", err)
	}

	got, err := f.catalog.GetProductByID(ctx, x.ID)
	if err != nil || got == nil {
		t.Fatalf("Get product: %v", err)
	}
	if got.Stock != 3 {
		t.Errorf("Expected stock 3, got %d", got.Stock)
	}

	// Underpaying the same cart is rejected before stock is consulted.
	_, err = f.engine.RegisterSale(ctx, []sales.SaleItem{
		{ProductID: x.ID, Quantity: 5, UnitPrice: money("2.0")},
	}, models.PaymentCash, money("5"))
	if !errors.Is(err, database.ErrInsufficientPayment) {
		t.Errorf("Expected insufficient payment, got: %v", err)
	}
	if s := f.stock(t, x.ID); s != 3 {
		t.Errorf("Expected stock 3, got %d", s)
	}
}

func TestScenarioChangeThenCancel(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	soap := f.addProduct(t, "Soap", "3.00", "4.50", 10, 2)
	oil := f.addProduct(t, "Oil", "5.00", "7.00", 10, 2)

	receipt, err := f.engine.RegisterSale(ctx, []sales.SaleItem{
		{ProductID: soap.ID, Quantity: 1, UnitPrice: money("4.50")},
		{ProductID: oil.ID, Quantity: 2, UnitPrice: money("7.00")},
		{ProductID: soap.ID, Quantity: 1, UnitPrice: money("5.00")},
	}, models.PaymentCash, money("25.00"))
	if err != nil {
		t.Fatalf("Register sale: %v", err)
	}
	if !receipt.Total.Equal(money("23.50")) {
		t.Fatalf("Expected total 23.50, got %s", receipt.Total)
	}
	if !receipt.Change.Equal(money("1.50")) {
		t.Errorf("Expected change 1.50, got %s", receipt.Change)
	}

	today, err := f.engine.GetTodaySales(ctx)
	if err != nil {
		t.Fatalf("Get today sales: %v", err)
	}
	if len(today) != 1 || today[0].ItemCount != 4 || !today[0].Total.Equal(money("23.50")) {
		t.Fatalf("Unexpected today sales: %+v", today)
	}

	if err := f.engine.CancelSale(ctx, receipt.ID); err != nil {
		t.Fatalf("Cancel sale: %v", err)
	}

	if got := f.stock(t, soap.ID); got != 10 {
		t.Errorf("Expected soap stock 10, got %d", got)
	}
	if got := f.stock(t, oil.ID); got != 10 {
		t.Errorf("Expected oil stock 10, got %d", got)
	}

	today, err = f.engine.GetTodaySales(ctx)
	if err != nil {
		t.Fatalf("Get today sales: %v", err)
	}
	if len(today) != 0 {
		t.Errorf("Cancelled sale must not appear in today's sales, got %+v", today)
	}
}
