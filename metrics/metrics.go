// metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var reqDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: []float64{0.01, 0.1, 0.3, 1.2, 5},
	},
	[]string{"path", "method", "status"},
)

// Submissions counts contact submissions by outcome:
// "accepted", "invalid", "malformed" or "error".
var Submissions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "contactd",
		Name:      "submissions_total",
		Help:      "Contact form submissions by outcome.",
	},
	[]string{"outcome"},
)

// StoreWrites counts contact log appends by backend and result
// ("ok", "full", "error").
var StoreWrites = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "contactd",
		Name:      "store_writes_total",
		Help:      "Contact log appends by backend and result.",
	},
	[]string{"backend", "result"},
)

// EmailsSent counts notification emails by recipient kind ("admin", "user"),
// transport and result ("ok", "error").
var EmailsSent = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "contactd",
		Name:      "emails_total",
		Help:      "Notification emails by recipient, transport and result.",
	},
	[]string{"recipient", "method", "result"},
)

// RegisterDefault registers the Go runtime and process collectors, the HTTP
// request histogram and the contact counters. Registering twice is a no-op;
// any other registration failure is fatal.
func RegisterDefault(logger *zap.Logger) {
	mustRegister(logger, "Go collector", collectors.NewGoCollector())
	mustRegister(logger, "process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mustRegister(logger, "HTTP request histogram", reqDuration)
	mustRegister(logger, "submissions counter", Submissions)
	mustRegister(logger, "store writes counter", StoreWrites)
	mustRegister(logger, "emails counter", EmailsSent)
}

func mustRegister(logger *zap.Logger, name string, c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return
		}
		if logger != nil {
			logger.Fatal("failed to register "+name, zap.Error(err))
		}
		panic("metrics: failed to register " + name + ": " + err.Error())
	}
}

// ResultLabel maps a success flag to the "ok"/"error" label value.
func ResultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// HTTPMetrics records request durations into http_request_duration_seconds.
// The path label is the chi route pattern; unmatched requests are grouped
// under "unmatched" so scanners cannot blow up label cardinality.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		protoMajor := r.ProtoMajor
		if protoMajor < 1 {
			protoMajor = 1
		}
		ww := middleware.NewWrapResponseWriter(w, protoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status < 100 || status > 599 {
			status = http.StatusInternalServerError
		}

		reqDuration.WithLabelValues(
			routePattern(r),
			r.Method,
			strconv.Itoa(status),
		).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Handler exposes the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
