package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// Recorder owns a private registry so tests and multiple servers in one
// process do not collide on the default one.
type Recorder struct {
	registry *prometheus.Registry

	statementsProcessed *prometheus.CounterVec
	processingDuration  prometheus.Histogram
	transactionsParsed  prometheus.Histogram
	bankDetections      *prometheus.CounterVec
	detectionScore      prometheus.Histogram
	transactionsDropped prometheus.Counter
	amountsRounded      prometheus.Counter
	duplicatesRemoved   prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New builds a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		statementsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statements_processed_total",
				Help: "Total number of statements processed by bank and outcome code",
			},
			[]string{"bank", "code"},
		),
		processingDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "statement_processing_duration_milliseconds",
				Help:    "Statement processing duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
		),
		transactionsParsed: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "statement_transactions",
				Help:    "Transactions returned per successfully processed statement",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		bankDetections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_detections_total",
				Help: "Bank detection results, including low-confidence fallbacks to generic",
			},
			[]string{"bank", "low_confidence"},
		),
		detectionScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bank_detection_score",
				Help:    "Best bank detection score per statement",
				Buckets: prometheus.LinearBuckets(0, 0.2, 11),
			},
		),
		transactionsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "transactions_dropped_total",
				Help: "Transactions discarded during cleaning",
			},
		),
		amountsRounded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "transaction_amounts_rounded_total",
				Help: "Transaction amounts whose value changed when rounded to cents",
			},
		),
		duplicatesRemoved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "transactions_deduplicated_total",
				Help: "Duplicate transactions removed",
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) ObserveDetection(bank models.BankType, score float64, lowConfidence bool) {
	r.bankDetections.WithLabelValues(bankLabel(bank), strconv.FormatBool(lowConfidence)).Inc()
	r.detectionScore.Observe(score)
}

func (r *Recorder) ObserveCleaning(dropped, rounded, duplicates int) {
	r.transactionsDropped.Add(float64(dropped))
	r.amountsRounded.Add(float64(rounded))
	r.duplicatesRemoved.Add(float64(duplicates))
}

// ObserveRun records one processed statement. An empty code means success.
func (r *Recorder) ObserveRun(bank models.BankType, code string, transactions int, elapsed time.Duration) {
	if code == "" {
		code = "OK"
		r.transactionsParsed.Observe(float64(transactions))
	}
	r.statementsProcessed.WithLabelValues(bankLabel(bank), code).Inc()
	r.processingDuration.Observe(float64(elapsed.Milliseconds()))
}

// ObserveRequest records one HTTP request. route must be the registered
// route pattern, not the raw path.
func (r *Recorder) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// bankLabel keeps label cardinality bounded: caller-supplied bank names that
// are not known tags collapse to "unknown".
func bankLabel(bank models.BankType) string {
	if bank == "" {
		return "none"
	}
	if b, ok := models.ParseBankType(string(bank)); ok {
		return string(b)
	}
	return "unknown"
}
