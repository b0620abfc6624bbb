// Package metrics exports token verification outcomes to Prometheus.
//
// A Collector is a jwt.Observer: pass it to jwt.NewVerifier with
// jwt.WithObserver and register it on the registry you serve.
//
//	reg := prometheus.NewRegistry()
//	c := metrics.NewCollector()
//	reg.MustRegister(c)
//	v := jwt.NewVerifier(jwt.WithObserver(c))
//	http.Handle("/metrics", metrics.Handler(reg))
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/critjwt/jwt"
)

const namespace = "jwt"

// Collector counts verifications by result and rejection kind and records
// their latency.
//
// Label values are bounded: "result" is valid or invalid, "kind" one of the
// jwt.ErrorKind names and "alg" empty or an allowed algorithm name.
type Collector struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	_ jwt.Observer         = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)

// NewCollector returns an unregistered Collector.
func NewCollector() *Collector {
	return &Collector{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_total",
			Help:      "Token verifications by result and rejection kind.",
		}, []string{"result", "kind", "alg"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verify_duration_seconds",
			Help:      "Token verification latency.",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
		}, []string{"result"}),
	}
}

// ObserveVerify implements jwt.Observer.
func (c *Collector) ObserveVerify(alg string, kind jwt.ErrorKind, elapsed time.Duration) {
	result := resultLabel(kind)
	c.total.WithLabelValues(result, kind.String(), alg).Inc()
	c.duration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.total.Describe(ch)
	c.duration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.total.Collect(ch)
	c.duration.Collect(ch)
}

func resultLabel(kind jwt.ErrorKind) string {
	if kind == jwt.KindNone {
		return "valid"
	}
	return "invalid"
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
