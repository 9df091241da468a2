package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	cases := map[int]string{
		200: "2xx",
		204: "2xx",
		302: "3xx",
		404: "4xx",
		422: "4xx",
		503: "5xx",
		99:  "unknown",
	}
	for code, want := range cases {
		assert.Equal(t, want, classifyStatus(code), "status %d", code)
	}
}

func TestSaleCounters(t *testing.T) {
	before := testutil.ToFloat64(salesRegistered)
	RecordSaleRegistered(decimal.RequireFromString("12.50"))
	assert.Equal(t, before+1, testutil.ToFloat64(salesRegistered))

	rejected := testutil.ToFloat64(salesRejected.WithLabelValues("insufficient_stock"))
	RecordSaleRejected("insufficient_stock")
	assert.Equal(t, rejected+1, testutil.ToFloat64(salesRejected.WithLabelValues("insufficient_stock")))

	cancelled := testutil.ToFloat64(salesCancelled)
	RecordSaleCancelled()
	assert.Equal(t, cancelled+1, testutil.ToFloat64(salesCancelled))
}

func TestRecordRequest(t *testing.T) {
	counter := httpRequestsTotal.WithLabelValues("GET", "/products", "2xx")
	before := testutil.ToFloat64(counter)
	RecordRequest("GET", "/products", 200, 15*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
