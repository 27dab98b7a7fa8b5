// Package metrics exposes Prometheus instrumentation for the acquisition
// pipeline and the daemon's HTTP surface.
//
// Collectors live in a dedicated registry so the /metrics endpoint serves
// only stylus series. Stages record through the process-wide Default set;
// the daemon serves its registry and refreshes queue gauges on scrape.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline holds the collectors tracking search, verification, download, and
// HTTP activity.
type Pipeline struct {
	registry *prometheus.Registry

	requestsTotal prometheus.Counter
	errorsTotal   prometheus.Counter

	searchesTotal   *prometheus.CounterVec
	candidatesTotal *prometheus.CounterVec
	verdictsTotal   *prometheus.CounterVec
	downloadsTotal  *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	queueItems      *prometheus.GaugeVec
}

// New creates and registers the stylus collector set.
func New() *Pipeline {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stylus_http_requests_total",
		Help: "Total number of HTTP API requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stylus_http_errors_total",
		Help: "Total number of HTTP API responses with error status (4xx or 5xx)",
	})
	searchesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stylus_searches_total",
		Help: "Completed search runs by winning tier; tier \"none\" means the plan was exhausted",
	}, []string{"tier"})
	candidatesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stylus_candidates_total",
		Help: "Search result candidates by filter disposition",
	}, []string{"disposition"})
	verdictsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stylus_verdicts_total",
		Help: "Spectral authenticity verdicts by class",
	}, []string{"verdict"})
	downloadsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stylus_downloads_total",
		Help: "Download stage runs by outcome",
	}, []string{"outcome"})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stylus_stage_duration_seconds",
		Help:    "Wall-clock duration of workflow stage executions",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"stage"})
	queueItems := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stylus_queue_items",
		Help: "Queue items by status, refreshed on scrape",
	}, []string{"status"})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		searchesTotal,
		candidatesTotal,
		verdictsTotal,
		downloadsTotal,
		stageDuration,
		queueItems,
	)

	return &Pipeline{
		registry:        registry,
		requestsTotal:   requestsTotal,
		errorsTotal:     errorsTotal,
		searchesTotal:   searchesTotal,
		candidatesTotal: candidatesTotal,
		verdictsTotal:   verdictsTotal,
		downloadsTotal:  downloadsTotal,
		stageDuration:   stageDuration,
		queueItems:      queueItems,
	}
}

var (
	defaultOnce sync.Once
	defaultSet  *Pipeline
)

// Default returns the process-wide collector set shared by the stages and
// the daemon.
func Default() *Pipeline {
	defaultOnce.Do(func() {
		defaultSet = New()
	})
	return defaultSet
}

// ObserveSearch records a finished search run under its winning tier.
func (p *Pipeline) ObserveSearch(tier string) {
	if p == nil {
		return
	}
	if tier == "" {
		tier = "none"
	}
	p.searchesTotal.WithLabelValues(tier).Inc()
}

// ObserveCandidates records one filter pass worth of keep/exclude counts.
func (p *Pipeline) ObserveCandidates(kept, byExtension, byKeyword, byDuration int) {
	if p == nil {
		return
	}
	p.candidatesTotal.WithLabelValues("kept").Add(float64(kept))
	p.candidatesTotal.WithLabelValues("excluded_extension").Add(float64(byExtension))
	p.candidatesTotal.WithLabelValues("excluded_keyword").Add(float64(byKeyword))
	p.candidatesTotal.WithLabelValues("excluded_duration").Add(float64(byDuration))
}

// ObserveVerdict records one authenticity verdict.
func (p *Pipeline) ObserveVerdict(verdict string) {
	if p == nil || verdict == "" {
		return
	}
	p.verdictsTotal.WithLabelValues(verdict).Inc()
}

// ObserveDownload records one download stage outcome.
func (p *Pipeline) ObserveDownload(outcome string) {
	if p == nil || outcome == "" {
		return
	}
	p.downloadsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStageDuration records the wall-clock time one stage execution took.
func (p *Pipeline) ObserveStageDuration(stage string, seconds float64) {
	if p == nil || stage == "" {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// SetQueueItems sets the queue depth gauge for one status.
func (p *Pipeline) SetQueueItems(status string, count int) {
	if p == nil || status == "" {
		return
	}
	p.queueItems.WithLabelValues(status).Set(float64(count))
}

// IncRequests increments the HTTP request counter.
func (p *Pipeline) IncRequests() {
	if p == nil {
		return
	}
	p.requestsTotal.Inc()
}

// IncErrors increments the HTTP error counter.
func (p *Pipeline) IncErrors() {
	if p == nil {
		return
	}
	p.errorsTotal.Inc()
}

// Handler returns an http.Handler serving the registry. updateGauges runs
// before each scrape so queue depth gauges reflect current state.
func (p *Pipeline) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for the request middleware.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestMiddleware returns middleware recording request and error counts.
func RequestMiddleware(p *Pipeline) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)
			p.IncRequests()
			if wrap.status >= 400 {
				p.IncErrors()
			}
		})
	}
}
