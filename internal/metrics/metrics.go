package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signal"

var (
	// scanDuration measures one aggregated search across all sources.
	// Labels: mode (LEAD, OPPORTUNITY)
	scanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "collector",
		Name:      "scan_duration_seconds",
		Help:      "Duration of an aggregated lead search",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"mode"})

	// sourceLeads counts leads returned per source before truncation.
	sourceLeads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "collector",
		Name:      "source_leads_total",
		Help:      "Leads returned by each source",
	}, []string{"source"})

	// alertRuns counts processed alerts by outcome (success, failure).
	alertRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "alerts",
		Name:      "processed_total",
		Help:      "Alerts processed by outcome",
	}, []string{"outcome"})

	alertOpportunities = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "alerts",
		Name:      "opportunities_total",
		Help:      "Alerts whose analysis crossed the notification threshold",
	})

	// llmRequests counts LLM calls by operation and status (ok, error, quota).
	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "requests_total",
		Help:      "LLM requests by operation and status",
	}, []string{"operation", "status"})

	// proxyRequests counts upstream proxy calls by platform and HTTP status.
	proxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "proxy",
		Name:      "requests_total",
		Help:      "Upstream proxy requests by platform and status code",
	}, []string{"platform", "code"})
)

// ObserveScan records a finished aggregated search
func ObserveScan(mode string, d time.Duration) {
	scanDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// AddSourceLeads records the leads one source returned
func AddSourceLeads(source string, n int) {
	sourceLeads.WithLabelValues(source).Add(float64(n))
}

func AlertProcessed(success bool) {
	if success {
		alertRuns.WithLabelValues("success").Inc()
		return
	}
	alertRuns.WithLabelValues("failure").Inc()
}

func AlertOpportunity() {
	alertOpportunities.Inc()
}

func LLMRequest(operation, status string) {
	llmRequests.WithLabelValues(operation, status).Inc()
}

func ProxyRequest(platform, code string) {
	proxyRequests.WithLabelValues(platform, code).Inc()
}

// Handler exposes the default registry for scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
