// Package httpapi exposes the catalog, sales and reports over JSON/HTTP.
// Handlers translate requests and errors; they hold no business rules.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/safar/go-sql-pos/internal/catalog"
	"github.com/safar/go-sql-pos/internal/metrics"
	"github.com/safar/go-sql-pos/internal/models"
	"github.com/safar/go-sql-pos/internal/sales"
	"github.com/safar/go-sql-pos/internal/store"
)

type CatalogService interface {
	AddProduct(ctx context.Context, in catalog.ProductInput) (*models.Product, error)
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, changes catalog.ProductChanges) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SearchProducts(ctx context.Context, query string) ([]models.Product, error)
	ListStockMovements(ctx context.Context, productID int64, limit int) ([]models.StockMovement, error)
	GetLowStockProducts(ctx context.Context) ([]models.Product, error)
	GetLowStockProductsByCategory(ctx context.Context) ([]models.LowStockRow, error)
}

type SalesService interface {
	RegisterSale(ctx context.Context, items []sales.SaleItem, method models.PaymentMethod, amountReceived decimal.Decimal) (*sales.SaleReceipt, error)
	CancelSale(ctx context.Context, saleID int64) error
	GetTodaySales(ctx context.Context) ([]models.SaleSummary, error)
	GetSaleDetail(ctx context.Context, saleID int64) (*models.Sale, error)
	ListSales(ctx context.Context, cursor string, limit int) (*store.CursorPage, error)
}

type ReportService interface {
	GetSalesStats(ctx context.Context, days int) ([]models.DailyStat, error)
	GetTopSellingProducts(ctx context.Context, limit int) ([]models.TopProduct, error)
	GetWeeklySales(ctx context.Context) (*models.WeeklySales, error)
	GetMonthlySales(ctx context.Context) ([]models.MonthlyStat, error)
}

type Options struct {
	// RateLimit is the sustained rate of mutating requests per second; zero
	// disables limiting.
	RateLimit      float64
	RateBurst      int
	RequestTimeout time.Duration
	// Health reports readiness of backing services for /healthz.
	Health func(ctx context.Context) error
}

type Server struct {
	catalog CatalogService
	sales   SalesService
	reports ReportService
}

func NewRouter(c CatalogService, s SalesService, r ReportService, opts Options) *chi.Mux {
	srv := &Server{catalog: c, sales: s, reports: r}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	router.Use(middleware.Timeout(timeout))
	router.Use(recordMetrics)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(r.Context()); err != nil {
				respondError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", metrics.Handler())

	mutating := func(h http.HandlerFunc) http.Handler { return h }
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limit := limitRate(rate.NewLimiter(rate.Limit(opts.RateLimit), burst))
		mutating = func(h http.HandlerFunc) http.Handler { return limit(h) }
	}

	router.Route("/products", func(r chi.Router) {
		r.Get("/", srv.listProducts)
		r.Method(http.MethodPost, "/", mutating(srv.createProduct))
		r.Get("/search", srv.searchProducts)
		r.Get("/{id}", srv.getProduct)
		r.Method(http.MethodPatch, "/{id}", mutating(srv.updateProduct))
		r.Method(http.MethodDelete, "/{id}", mutating(srv.deleteProduct))
		r.Get("/{id}/movements", srv.listMovements)
	})

	router.Get("/inventory/low-stock", srv.lowStock)
	router.Get("/inventory/low-stock/by-category", srv.lowStockByCategory)

	router.Route("/sales", func(r chi.Router) {
		r.Get("/", srv.listSales)
		r.Method(http.MethodPost, "/", mutating(srv.registerSale))
		r.Get("/today", srv.todaySales)
		r.Get("/{id}", srv.getSale)
		r.Method(http.MethodPost, "/{id}/cancel", mutating(srv.cancelSale))
	})

	router.Route("/reports", func(r chi.Router) {
		r.Get("/daily", srv.dailyReport)
		r.Get("/top-products", srv.topProducts)
		r.Get("/weekly", srv.weeklyReport)
		r.Get("/monthly", srv.monthlyReport)
	})

	return router
}

func limitRate(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
