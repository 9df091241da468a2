package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint", "status"},
	)

	salesRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_registered_total",
		Help: "Sales committed.",
	})
	salesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_sales_rejected_total",
			Help: "Sale registrations rejected, by reason.",
		},
		[]string{"reason"},
	)
	salesCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_cancelled_total",
		Help: "Sales cancelled.",
	})
	saleAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_sale_amount",
		Help:    "Total of committed sales.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(salesRegistered, salesRejected, salesCancelled, saleAmount)
}

// RecordRequest records one served HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func RecordSaleRegistered(total decimal.Decimal) {
	salesRegistered.Inc()
	saleAmount.Observe(total.InexactFloat64())
}

func RecordSaleRejected(reason string) {
	salesRejected.WithLabelValues(reason).Inc()
}

func RecordSaleCancelled() {
	salesCancelled.Inc()
}

func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
