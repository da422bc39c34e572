package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "telemetry_viewer"

// Drop reasons for MessagesDropped.
const (
	DropPaused        = "paused"
	DropNotSubscribed = "not_subscribed"
	DropDecode        = "decode"
	DropQueueFull     = "queue_full"
	DropStale         = "stale"
)

// -----------------------------------------------------------------------------
// Metrics holds every collector of the viewer on a private registry.
// -----------------------------------------------------------------------------

type Metrics struct {
	registry *prometheus.Registry

	MessagesReceived   prometheus.Counter
	MessagesDropped    *prometheus.CounterVec
	SamplesAppended    prometheus.Counter
	Transitions        *prometheus.CounterVec
	PresignRequests    *prometheus.CounterVec
	ActiveSeries       prometheus.Gauge
	FrameBuildDuration prometheus.Histogram
}

// -----------------------------------------------------------------------------

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "received_total",
			Help:      "Messages delivered by the transport",
		}),

		MessagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "dropped_total",
			Help:      "Messages discarded before reaching the series registry",
		}, []string{"reason"}),

		SamplesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "series",
			Name:      "samples_appended_total",
			Help:      "Decoded samples appended to the series registry",
		}),

		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions by target state",
		}, []string{"to"}),

		PresignRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presign",
			Name:      "requests_total",
			Help:      "Presign requests by result",
		}, []string{"result"}),

		ActiveSeries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "series",
			Name:      "active",
			Help:      "Number of series currently held",
		}),

		FrameBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "frame",
			Name:      "build_duration_seconds",
			Help:      "Time spent transforming and assembling one display frame",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
		}),
	}

	m.registry.MustRegister(
		m.MessagesReceived,
		m.MessagesDropped,
		m.SamplesAppended,
		m.Transitions,
		m.PresignRequests,
		m.ActiveSeries,
		m.FrameBuildDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// -----------------------------------------------------------------------------

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// -----------------------------------------------------------------------------

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry:          m.registry,
		EnableOpenMetrics: true,
	})
}

// -----------------------------------------------------------------------------

func (m *Metrics) Drop(reason string) {
	m.MessagesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) Transition(to string) {
	m.Transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) Presign(err error) {
	if err != nil {
		m.PresignRequests.WithLabelValues("error").Inc()
		return
	}
	m.PresignRequests.WithLabelValues("ok").Inc()
}
