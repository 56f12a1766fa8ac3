// Package metrics owns the Prometheus registry and the collectors the
// service records into.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "printshop",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printshop",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "printshop",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	documentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printshop",
			Subsystem: "documents",
			Name:      "created_total",
			Help:      "Jobs, invoices and quotations created, by kind.",
		},
		[]string{"kind"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printshop",
			Subsystem: "documents",
			Name:      "status_transitions_total",
			Help:      "Status changes applied, by document kind and target status.",
		},
		[]string{"kind", "status"},
	)

	invoicedAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printshop",
			Subsystem: "invoices",
			Name:      "paid_amount_total",
			Help:      "Sum of invoice totals marked paid, by currency.",
		},
		[]string{"currency"},
	)

	sweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printshop",
			Subsystem: "scheduler",
			Name:      "sweep_updates_total",
			Help:      "Documents changed by scheduled sweeps.",
		},
		[]string{"sweep", "success"},
	)

	sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "printshop",
			Subsystem: "scheduler",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of scheduled sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"sweep"},
	)

	portalLogins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printshop",
			Subsystem: "portal",
			Name:      "logins_total",
			Help:      "Portal login attempts by result.",
		},
		[]string{"result"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printshop",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Catalog cache lookups by result.",
		},
		[]string{"result"},
	)

	pdfRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printshop",
			Subsystem: "pdf",
			Name:      "renders_total",
			Help:      "PDF documents rendered, by kind.",
		},
		[]string{"kind"},
	)

	archiveUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printshop",
			Subsystem: "archive",
			Name:      "uploads_total",
			Help:      "PDF uploads to object storage by result.",
		},
		[]string{"success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		documentsCreated,
		statusTransitions,
		invoicedAmount,
		sweepRuns,
		sweepDuration,
		portalLogins,
		cacheLookups,
		pdfRenders,
		archiveUploads,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one finished request. route is the mux path
// template so ids do not explode label cardinality.
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func InFlightInc() { httpInFlight.Inc() }
func InFlightDec() { httpInFlight.Dec() }

func DocumentCreated(kind string) { documentsCreated.WithLabelValues(kind).Inc() }

func StatusChanged(kind, status string) { statusTransitions.WithLabelValues(kind, status).Inc() }

// InvoicePaid adds amount to the paid total of currency.
func InvoicePaid(currency string, amount float64) {
	if amount <= 0 {
		return
	}
	invoicedAmount.WithLabelValues(currency).Add(amount)
}

// RecordSweep records a scheduled sweep that changed n documents.
func RecordSweep(name string, n int, duration time.Duration, success bool) {
	result := "false"
	if success {
		result = "true"
	}
	sweepRuns.WithLabelValues(name, result).Add(float64(n))
	sweepDuration.WithLabelValues(name).Observe(duration.Seconds())
}

func PortalLogin(result string) { portalLogins.WithLabelValues(result).Inc() }

func CacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func PDFRendered(kind string) { pdfRenders.WithLabelValues(kind).Inc() }

func ArchiveUpload(success bool) {
	archiveUploads.WithLabelValues(strconv.FormatBool(success)).Inc()
}
