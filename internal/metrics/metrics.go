// Package metrics exports engine and remote control activity to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/protocol"
)

const namespace = "fisinject"

// Collector implements engine.Observer and engine.ResultObserver. Each
// Collector has its own registry so several engines, or tests, do not clash.
type Collector struct {
	registry *prometheus.Registry

	frames   *prometheus.CounterVec
	seqSync  *prometheus.CounterVec
	sequence prometheus.Gauge
	active   prometheus.Gauge
	updates  *prometheus.CounterVec
	steps    *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	rateLimited  prometheus.Counter
}

// New creates a collector with its metrics registered, plus the Go runtime
// and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "can",
				Name:      "frames_total",
				Help:      "Protocol frames seen or injected, by direction and header type.",
			},
			[]string{"direction", "type"},
		),
		seqSync: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sequence",
				Name:      "observations_total",
				Help:      "Data and ack frames offered to the sequence tracker, by outcome.",
			},
			[]string{"result"},
		),
		sequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sequence",
			Name:      "current",
			Help:      "Sequence number the next injected frame will carry.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "active",
			Help:      "1 once a heartbeat has been seen from either peer.",
		}),
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "display",
				Name:      "updates_total",
				Help:      "Display update requests, by result.",
			},
			[]string{"result"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "display",
				Name:      "steps_total",
				Help:      "Claim, write and release steps, by zone and result.",
			},
			[]string{"op", "zone", "result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Remote control HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Remote control HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Command submissions rejected by the rate limiter.",
		}),
	}

	c.registry.MustRegister(
		c.frames, c.seqSync, c.sequence, c.active, c.updates, c.steps,
		c.httpRequests, c.httpDuration, c.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// OnTraffic implements engine.Observer.
func (c *Collector) OnTraffic(ev engine.TrafficEvent) {
	c.frames.WithLabelValues(directionLabel(ev.Direction), ev.Header.Type.String()).Inc()
	c.sequence.Set(float64(ev.Seq))

	if ev.Header.IsHeartbeat() && ev.Direction != engine.Injected {
		c.active.Set(1)
	}
	if ev.Direction == engine.Injected {
		return
	}
	switch {
	case ev.Synced:
		c.seqSync.WithLabelValues("applied").Inc()
	case ev.Header.IsData() || ev.Header.Type == protocol.TypeAck:
		c.seqSync.WithLabelValues("ignored").Inc()
	}
}

// OnResult implements engine.ResultObserver.
func (c *Collector) OnResult(_ engine.Request, res engine.Result) {
	switch {
	case res.Skipped:
		c.updates.WithLabelValues("skipped").Inc()
		return
	case res.OK():
		c.updates.WithLabelValues("ok").Inc()
	default:
		c.updates.WithLabelValues("failed").Inc()
	}
	for _, s := range res.Steps {
		c.steps.WithLabelValues(string(s.Op), s.Zone.String(), stepLabel(s)).Inc()
	}
}

// RecordHTTPRequest records one remote control request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	c.httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	c.httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// RecordRateLimited counts a rejected submission.
func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

func directionLabel(d engine.Direction) string {
	switch d {
	case engine.FromHost:
		return "host"
	case engine.FromDisplay:
		return "display"
	default:
		return "injected"
	}
}

func stepLabel(s engine.StepResult) string {
	switch {
	case s.Skipped:
		return "skipped"
	case s.OK:
		return "ok"
	default:
		return "failed"
	}
}
