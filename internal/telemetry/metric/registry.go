package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "littlesteps"

// Refresh outcomes.
const (
	RefreshSuccess    = "success"
	RefreshFailure    = "failure"
	RefreshNoToken    = "no_refresh_token"
	RefreshShared     = "shared"
	RefreshObsolete   = "already_refreshed"
	RefreshSuperseded = "session_replaced"
)

// Recorder receives client events. The gateway depends on this interface
// so tests and library users can pass Nop.
type Recorder interface {
	ObserveRequest(service, method string, status int, elapsed time.Duration)
	ObserveRefresh(result string)
	ObserveLogout(reason string)
}

// Registry holds all client metrics.
type Registry struct {
	reg *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RefreshTotal    *prometheus.CounterVec
	LogoutsTotal    *prometheus.CounterVec
}

var _ Recorder = (*Registry)(nil)

// NewRegistry creates a registry with the client metrics and the Go
// runtime collector registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Gateway requests by service, method and status code (0 for transport errors).",
		}, []string{"service", "method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Gateway request latency by service.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "refresh_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result"}),
		LogoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "logouts_total",
			Help:      "Session teardowns by reason.",
		}, []string{"reason"}),
	}

	r.reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.RefreshTotal,
		r.LogoutsTotal,
		collectors.NewGoCollector(),
	)
	return r
}

// Registerer exposes the underlying registry so other components (the
// session store) can add their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Gatherer exposes the underlying registry for reading.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) ObserveRequest(service, method string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(service, method, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

func (r *Registry) ObserveRefresh(result string) {
	r.RefreshTotal.WithLabelValues(result).Inc()
}

func (r *Registry) ObserveLogout(reason string) {
	r.LogoutsTotal.WithLabelValues(reason).Inc()
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveRequest(string, string, int, time.Duration) {}
func (Nop) ObserveRefresh(string)                             {}
func (Nop) ObserveLogout(string)                              {}
