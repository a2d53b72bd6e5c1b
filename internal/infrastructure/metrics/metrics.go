package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/betterbuy/backend/internal/domain"
)

// Metrics holds the service's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	comparisons     *prometheus.CounterVec
	rateRefreshes   *prometheus.CounterVec
	captures        *prometheus.CounterVec
	strategyMatches *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		comparisons: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betterbuy_comparisons_total",
				Help: "Comparison artifacts produced, by rendering path",
			},
			[]string{"path"},
		),
		rateRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betterbuy_rate_refresh_total",
				Help: "Exchange-rate refresh attempts, by result",
			},
			[]string{"result"},
		),
		captures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betterbuy_captures_total",
				Help: "Products captured, by whether the description was enriched",
			},
			[]string{"enriched"},
		),
		strategyMatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betterbuy_extraction_strategy_total",
				Help: "Accepted extraction strategies, by attribute",
			},
			[]string{"attribute", "strategy"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "betterbuy_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ComparisonRendered counts one comparison artifact
func (m *Metrics) ComparisonRendered(kind domain.ArtifactKind, reason domain.FallbackReason) {
	path := string(kind)
	if reason != domain.FallbackNone {
		path += ":" + string(reason)
	}
	m.comparisons.WithLabelValues(path).Inc()
}

// RateRefresh counts one refresh attempt ("success", "failure" or "fallback")
func (m *Metrics) RateRefresh(result string) {
	m.rateRefreshes.WithLabelValues(result).Inc()
}

// ProductCaptured counts one captured product
func (m *Metrics) ProductCaptured(enriched bool) {
	m.captures.WithLabelValues(strconv.FormatBool(enriched)).Inc()
}

// StrategyMatched counts the strategy that resolved an attribute
func (m *Metrics) StrategyMatched(attribute, strategy string) {
	m.strategyMatches.WithLabelValues(attribute, strategy).Inc()
}

// ObserveRequest records an HTTP request's latency in seconds
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
