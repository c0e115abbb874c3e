// Package metrics holds the Prometheus collectors shared by the scraper
// components. Collectors are registered on the default registry via promauto.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes used as the "outcome" label of RequestsTotal.
const (
	OutcomeOK      = "ok"
	OutcomeNetwork = "network"
	OutcomeDecode  = "decode"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snpedia_requests_total",
		Help: "MediaWiki API requests by outcome",
	}, []string{"outcome"})

	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snpedia_request_duration_seconds",
		Help:    "MediaWiki API request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	CategoryPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snpedia_category_pages_total",
		Help: "Category listing pages received",
	})

	RecordsExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snpedia_records_extracted_total",
		Help: "Page contents successfully extracted into records",
	})

	ExtractFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snpedia_extract_failures_total",
		Help: "Page payloads missing the expected content field",
	})

	RecordsStoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snpedia_records_stored_total",
		Help: "Records written by sink",
	}, []string{"sink"})

	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snpedia_store_errors_total",
		Help: "Record write failures by sink",
	}, []string{"sink"})
)

// ObserveRequest records the outcome and latency of one API call.
func ObserveRequest(outcome string, started time.Time) {
	RequestsTotal.WithLabelValues(outcome).Inc()
	RequestDuration.Observe(time.Since(started).Seconds())
}

// ObserveStore records a single sink write.
func ObserveStore(sink string, err error) {
	if err != nil {
		StoreErrorsTotal.WithLabelValues(sink).Inc()
		return
	}
	RecordsStoredTotal.WithLabelValues(sink).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
