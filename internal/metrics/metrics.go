package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// RoutingRequests counts routing service calls by strategy and outcome
	RoutingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "routing_requests_total", Help: "Routing service requests by outcome."},
		[]string{"outcome"},
	)
	// RoutingLatency tracks routing service latency in milliseconds
	RoutingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "routing_request_latency_ms", Help: "Routing service latency in ms.", Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000}},
	)
	// RoutingCache counts path cache lookups by result (hit, miss)
	RoutingCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "routing_cache_lookups_total", Help: "Road path cache lookups by result."},
		[]string{"result"},
	)
	// RoutingFallbacks counts resolves that returned straight lines
	RoutingFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "routing_fallbacks_total", Help: "Road path resolves that fell back to straight lines."},
	)

	// SequencedStops records the size of each sequenced route
	SequencedStops = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "sequencer_stops", Help: "Stops per sequencing run.", Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500}},
	)
	// SessionCommands counts operator commands by command and outcome
	SessionCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "session_commands_total", Help: "Session commands by outcome."},
		[]string{"command", "outcome"},
	)
	// SnapshotWrites counts snapshot persistence attempts by outcome
	SnapshotWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "snapshot_writes_total", Help: "Session snapshot writes by outcome."},
		[]string{"outcome"},
	)
)

// RegisterDefault registers collectors to Registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(RoutingRequests)
		Registry.MustRegister(RoutingLatency)
		Registry.MustRegister(RoutingCache)
		Registry.MustRegister(RoutingFallbacks)
		Registry.MustRegister(SequencedStops)
		Registry.MustRegister(SessionCommands)
		Registry.MustRegister(SnapshotWrites)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the middleware.
func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware records HTTPRequests and HTTPDuration. pathLabel maps a request
// to a low-cardinality path label.
func Middleware(pathLabel func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		status := strconv.Itoa(rec.status)
		path := pathLabel(r)
		HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
		HTTPDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}
