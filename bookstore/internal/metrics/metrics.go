package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	global *Metrics
	once   sync.Once
)

// Metrics holds the Prometheus collectors shared by the catalog client and
// the stores. Registered once per process.
type Metrics struct {
	CatalogRequests *prometheus.CounterVec
	CatalogDuration *prometheus.HistogramVec
	StoreOperations *prometheus.CounterVec
}

func New() *Metrics {
	once.Do(func() {
		global = &Metrics{
			CatalogRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "bookstore_catalog_requests_total",
					Help: "Catalog requests by endpoint and outcome",
				},
				[]string{"endpoint", "outcome"},
			),
			CatalogDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "bookstore_catalog_request_duration_seconds",
					Help:    "Catalog request latency",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"endpoint"},
			),
			StoreOperations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "bookstore_store_operations_total",
					Help: "Local store operations by table, operation and outcome",
				},
				[]string{"table", "op", "outcome"},
			),
		}
	})
	return global
}

func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
