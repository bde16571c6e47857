// Package metrics exposes Prometheus instruments for the link engine, the
// HTTP surface and the database pool.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records engine pass statistics
type Collector struct {
	documents     prometheus.Counter
	linksInjected *prometheus.CounterVec
	failures      *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	duration      prometheus.Histogram
	linksPerDoc   prometheus.Histogram
}

// NewCollector registers engine metrics under namespace. A nil registerer
// uses the default Prometheus registry.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		documents: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Total documents processed",
		}),
		linksInjected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_injected_total",
			Help:      "Links injected by zone",
		}, []string{"zone"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "injection_failures_total",
			Help:      "Anchor placements that could not be applied, by zone",
		}, []string{"zone"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_rejected_total",
			Help:      "Anchor candidates rejected by reason",
		}, []string{"reason"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_duration_seconds",
			Help:      "Document processing duration",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		linksPerDoc: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "links_per_document",
			Help:      "Links injected per document",
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 10, 15, 20},
		}),
	}
}

// DocumentProcessed records a finished pass
func (c *Collector) DocumentProcessed(linksInjected int, duration time.Duration) {
	c.documents.Inc()
	c.linksPerDoc.Observe(float64(linksInjected))
	c.duration.Observe(duration.Seconds())
}

// LinkInjected records a placed link
func (c *Collector) LinkInjected(zone string) {
	c.linksInjected.WithLabelValues(zone).Inc()
}

// InjectionFailed records an anchor that was chosen but not found in the markup
func (c *Collector) InjectionFailed(zone string) {
	c.failures.WithLabelValues(zone).Inc()
}

// CandidatesRejected records rejected candidates for one reason
func (c *Collector) CandidatesRejected(reason string, count int) {
	if count <= 0 {
		return
	}
	c.rejected.WithLabelValues(reason).Add(float64(count))
}

// HTTPMetrics instruments HTTP handlers
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers request metrics under namespace
func NewHTTPMetrics(namespace string, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &HTTPMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records a request count and duration per matched route pattern
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// Pattern is set by the mux during routing; unmatched requests share one label
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// DatabaseMetrics exports connection pool statistics
type DatabaseMetrics struct {
	open      prometheus.Gauge
	inUse     prometheus.Gauge
	idle      prometheus.Gauge
	waitCount prometheus.Gauge
	waitTime  prometheus.Gauge
}

// NewDatabaseMetrics registers pool gauges under namespace
func NewDatabaseMetrics(namespace string, reg prometheus.Registerer) *DatabaseMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      name,
			Help:      help,
		})
	}

	return &DatabaseMetrics{
		open:      gauge("open_connections", "Open database connections"),
		inUse:     gauge("in_use_connections", "Connections currently in use"),
		idle:      gauge("idle_connections", "Idle connections"),
		waitCount: gauge("wait_count", "Total connections waited for"),
		waitTime:  gauge("wait_duration_seconds", "Total time blocked waiting for a connection"),
	}
}

// UpdateDBStats copies the current pool statistics into the gauges
func (m *DatabaseMetrics) UpdateDBStats(conn *sql.DB) {
	if conn == nil {
		return
	}
	s := conn.Stats()
	m.open.Set(float64(s.OpenConnections))
	m.inUse.Set(float64(s.InUse))
	m.idle.Set(float64(s.Idle))
	m.waitCount.Set(float64(s.WaitCount))
	m.waitTime.Set(s.WaitDuration.Seconds())
}
