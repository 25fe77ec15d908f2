package httptrack

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Tracker counts in-flight outbound requests so callers can expose a busy
// signal without touching a global transport. It is registered once on the
// backend client's transport chain.
type Tracker struct {
	inFlight atomic.Int64

	gauge    prometheus.Gauge
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewTracker registers the outbound request metrics on the provided registerer.
func NewTracker(reg prometheus.Registerer) *Tracker {
	t := &Tracker{}
	if reg == nil {
		return t
	}
	t.gauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "backend_requests_in_flight",
		Help: "Outbound requests to the platform backend currently in flight.",
	})
	t.total = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_requests_total",
		Help: "Outbound requests to the platform backend by method and status class.",
	}, []string{"method", "status"})
	t.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Outbound backend request durations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	reg.MustRegister(t.gauge, t.total, t.duration)
	return t
}

// InFlight reports the number of requests currently awaiting a response.
func (t *Tracker) InFlight() int64 {
	if t == nil {
		return 0
	}
	return t.inFlight.Load()
}

// Busy reports whether any request is outstanding.
func (t *Tracker) Busy() bool {
	return t.InFlight() > 0
}

type roundTripper struct {
	tracker *Tracker
	next    http.RoundTripper
}

// Wrap returns a RoundTripper that records every request passing through next.
func (t *Tracker) Wrap(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if t == nil {
		return next
	}
	return &roundTripper{tracker: t, next: next}
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	t := rt.tracker
	t.inFlight.Add(1)
	if t.gauge != nil {
		t.gauge.Inc()
	}
	start := time.Now()

	resp, err := rt.next.RoundTrip(req)

	t.inFlight.Add(-1)
	if t.gauge != nil {
		t.gauge.Dec()
	}
	if t.duration != nil {
		t.duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	}
	if t.total != nil {
		t.total.WithLabelValues(req.Method, statusClass(resp, err)).Inc()
	}
	return resp, err
}

func statusClass(resp *http.Response, err error) string {
	if err != nil {
		return "error"
	}
	switch {
	case resp.StatusCode >= 500:
		return "5xx"
	case resp.StatusCode >= 400:
		return "4xx"
	case resp.StatusCode >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
