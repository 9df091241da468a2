package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-sql-pos/internal/catalog"
	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/models"
	"github.com/safar/go-sql-pos/internal/sales"
	"github.com/safar/go-sql-pos/internal/store"
)

type fakeCatalog struct {
	product  *models.Product
	err      error
	changes  catalog.ProductChanges
	deleted  int64
	lowStock []models.LowStockRow
}

func (f *fakeCatalog) AddProduct(_ context.Context, in catalog.ProductInput) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Product{ID: 1, Name: in.Name, BuyPrice: in.BuyPrice, SellPrice: in.SellPrice, Stock: in.Stock}, nil
}

func (f *fakeCatalog) GetAllProducts(context.Context) ([]models.Product, error) {
	return []models.Product{}, f.err
}

func (f *fakeCatalog) GetProductByID(context.Context, int64) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, _ int64, c catalog.ProductChanges) (*models.Product, error) {
	f.changes = c
	return f.product, f.err
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id int64) error {
	f.deleted = id
	return f.err
}

func (f *fakeCatalog) SearchProducts(context.Context, string) ([]models.Product, error) {
	return []models.Product{}, f.err
}

func (f *fakeCatalog) ListStockMovements(context.Context, int64, int) ([]models.StockMovement, error) {
	return []models.StockMovement{}, f.err
}

func (f *fakeCatalog) GetLowStockProducts(context.Context) ([]models.Product, error) {
	return []models.Product{}, f.err
}

func (f *fakeCatalog) GetLowStockProductsByCategory(context.Context) ([]models.LowStockRow, error) {
	return f.lowStock, f.err
}

type fakeSales struct {
	err    error
	items  []sales.SaleItem
	method models.PaymentMethod
	amount decimal.Decimal
}

func (f *fakeSales) RegisterSale(_ context.Context, items []sales.SaleItem, method models.PaymentMethod, amount decimal.Decimal) (*sales.SaleReceipt, error) {
	f.items, f.method, f.amount = items, method, amount
	if f.err != nil {
		return nil, f.err
	}
	return &sales.SaleReceipt{ID: 9, Total: decimal.RequireFromString("7.00"), Change: decimal.RequireFromString("3.00"), LineCount: len(items)}, nil
}

func (f *fakeSales) CancelSale(context.Context, int64) error { return f.err }

func (f *fakeSales) GetTodaySales(context.Context) ([]models.SaleSummary, error) {
	return []models.SaleSummary{}, f.err
}

func (f *fakeSales) GetSaleDetail(_ context.Context, id int64) (*models.Sale, error) {
	return &models.Sale{ID: id}, f.err
}

func (f *fakeSales) ListSales(context.Context, string, int) (*store.CursorPage, error) {
	return &store.CursorPage{Items: []models.Sale{}}, f.err
}

type fakeReports struct {
	days  int
	limit int
	err   error
}

func (f *fakeReports) GetSalesStats(_ context.Context, days int) ([]models.DailyStat, error) {
	f.days = days
	return []models.DailyStat{}, f.err
}

func (f *fakeReports) GetTopSellingProducts(_ context.Context, limit int) ([]models.TopProduct, error) {
	f.limit = limit
	return []models.TopProduct{}, f.err
}

func (f *fakeReports) GetWeeklySales(context.Context) (*models.WeeklySales, error) {
	return &models.WeeklySales{}, f.err
}

func (f *fakeReports) GetMonthlySales(context.Context) ([]models.MonthlyStat, error) {
	return []models.MonthlyStat{}, f.err
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{database.NewValidationError("name", "too short"), http.StatusUnprocessableEntity},
		{&database.InsufficientPaymentError{}, http.StatusUnprocessableEntity},
		{&database.NotFoundError{Entity: database.EntitySale, ID: 3}, http.StatusNotFound},
		{&database.InsufficientStockError{ProductID: 1}, http.StatusConflict},
		{database.ErrAlreadyCancelled, http.StatusConflict},
		{database.ErrLockTimeout, http.StatusServiceUnavailable},
		{fmt.Errorf("lock product 4: %w", database.ErrLockTimeout), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), "%v", tc.err)
	}
}

func TestRegisterSaleHandler(t *testing.T) {
	s := &fakeSales{}
	h := NewRouter(&fakeCatalog{}, s, &fakeReports{}, Options{})

	rec := do(t, h, http.MethodPost, "/sales",
		`{"items":[{"product_id":4,"quantity":2,"unit_price":"3.50"}],"payment_method":"cash","amount_received":10}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, s.items, 1)
	assert.Equal(t, int64(4), s.items[0].ProductID)
	assert.True(t, s.items[0].UnitPrice.Equal(decimal.RequireFromString("3.50")))
	assert.Equal(t, models.PaymentCash, s.method)
	assert.True(t, s.amount.Equal(decimal.NewFromInt(10)))

	var receipt sales.SaleReceipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, int64(9), receipt.ID)
	assert.Equal(t, "3.00", receipt.Change.StringFixed(2))
}

func TestRegisterSaleErrors(t *testing.T) {
	s := &fakeSales{err: &database.InsufficientStockError{ProductID: 4, Name: "Rice", Available: 1, Requested: 2}}
	h := NewRouter(&fakeCatalog{}, s, &fakeReports{}, Options{})

	rec := do(t, h, http.MethodPost, "/sales", `{"items":[],"payment_method":"cash","amount_received":"1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, errorBody(t, rec), "Rice")

	rec = do(t, h, http.MethodPost, "/sales", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.err = errors.New("connection reset")
	rec = do(t, h, http.MethodPost, "/sales", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", errorBody(t, rec))
}

func TestGetProductHandler(t *testing.T) {
	c := &fakeCatalog{}
	h := NewRouter(c, &fakeSales{}, &fakeReports{}, Options{})

	rec := do(t, h, http.MethodGet, "/products/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c.product = &models.Product{ID: 5, Name: "Rice"}
	rec = do(t, h, http.MethodGet, "/products/5", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProductHandlerPassesOnlySetFields(t *testing.T) {
	c := &fakeCatalog{product: &models.Product{ID: 5}}
	h := NewRouter(c, &fakeSales{}, &fakeReports{}, Options{})

	rec := do(t, h, http.MethodPatch, "/products/5", `{"stock": 12, "sell_price": "4.20"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, c.changes.Stock)
	assert.Equal(t, 12, *c.changes.Stock)
	require.NotNil(t, c.changes.SellPrice)
	assert.Equal(t, "4.20", c.changes.SellPrice.StringFixed(2))
	assert.Nil(t, c.changes.Name)
	assert.Nil(t, c.changes.BuyPrice)
}

func TestDeleteProductHandler(t *testing.T) {
	c := &fakeCatalog{}
	h := NewRouter(c, &fakeSales{}, &fakeReports{}, Options{})

	rec := do(t, h, http.MethodDelete, "/products/8", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(8), c.deleted)
}

func TestCancelSaleHandler(t *testing.T) {
	s := &fakeSales{err: database.ErrAlreadyCancelled}
	h := NewRouter(&fakeCatalog{}, s, &fakeReports{}, Options{})

	rec := do(t, h, http.MethodPost, "/sales/3/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	s.err = &database.NotFoundError{Entity: database.EntitySale, ID: 3}
	rec = do(t, h, http.MethodPost, "/sales/3/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.err = nil
	rec = do(t, h, http.MethodPost, "/sales/3/cancel", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportQueryParams(t *testing.T) {
	r := &fakeReports{}
	h := NewRouter(&fakeCatalog{}, &fakeSales{}, r, Options{})

	rec := do(t, h, http.MethodGet, "/reports/daily", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultReportDays, r.days)

	rec = do(t, h, http.MethodGet, "/reports/daily?days=7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, r.days)

	rec = do(t, h, http.MethodGet, "/reports/top-products?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	r.err = database.NewValidationError("limit", "must be between 1 and 100")
	rec = do(t, h, http.MethodGet, "/reports/top-products?limit=500", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 500, r.limit)
}

func TestRateLimitAppliesToMutatingRoutes(t *testing.T) {
	h := NewRouter(&fakeCatalog{}, &fakeSales{}, &fakeReports{}, Options{RateLimit: 0.001, RateBurst: 1})

	body := `{"items":[{"product_id":1,"quantity":1,"unit_price":"1"}],"payment_method":"cash","amount_received":"1"}`
	assert.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/sales", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/sales", body).Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/sales/today", "").Code)
}

func TestHealthz(t *testing.T) {
	h := NewRouter(&fakeCatalog{}, &fakeSales{}, &fakeReports{}, Options{
		Health: func(context.Context) error { return errors.New("db down") },
	})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/healthz", "").Code)

	h = NewRouter(&fakeCatalog{}, &fakeSales{}, &fakeReports{}, Options{})
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
}
