// Package observability hosts tracing bootstrap and the domain-level
// Prometheus collectors.
//
// Domain collectors complement the HTTP metrics in internal/http/middleware:
//
//   - donations_created_total{source}:    successful creates by intake path
//     (form, import, webhook)
//   - donation_import_rows_total{result}: imported rows by outcome
//     (success, failure)
//   - store_retries_total{op}:            retries scheduled after a transient
//     store failure, by service operation
//
// Label sets are closed, so cardinality stays bounded.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// DonationsCreated counts persisted donations by intake source.
	DonationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donations_created_total",
			Help: "Total number of donations recorded, by intake source.",
		},
		[]string{"source"},
	)

	// ImportRows counts bulk-import rows by result.
	ImportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_import_rows_total",
			Help: "Total number of bulk-import rows processed, by result.",
		},
		[]string{"result"},
	)

	// StoreRetries counts retries after transient store failures.
	StoreRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_retries_total",
			Help: "Total number of store operation retries after transient failures.",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(DonationsCreated, ImportRows, StoreRetries)
}
