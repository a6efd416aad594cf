// Package instrument exposes Prometheus metrics for session storage and for
// the login tier of served requests.
package instrument

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/sessiontier/pkg/session"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Metrics holds the collectors. Create one per registry.
type Metrics struct {
	gatherer prometheus.Gatherer

	// BackendOps counts backend calls by backend, op and result.
	BackendOps *prometheus.CounterVec

	// BackendLatency records backend call duration in seconds.
	BackendLatency *prometheus.HistogramVec

	// Requests counts requests by the session tier they were served at:
	// "guest", "stale" or "fresh".
	Requests *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry, namespace string) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		BackendOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_backend_operations_total",
			Help:      "Session backend operations",
		}, []string{"backend", "op", "result"}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_backend_latency_seconds",
			Help:      "Session backend operation latency in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"backend", "op"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_requests_total",
			Help:      "Requests by session tier",
		}, []string{"tier"}),
	}

	for _, c := range []prometheus.Collector{m.BackendOps, m.BackendLatency, m.Requests} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Join(ErrRegister, err)
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware counts requests by tier. It must run inside
// session.Manager.Middleware.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier := session.TierGuest
		if h, ok := session.FromContext(r.Context()); ok {
			tier = h.Tier()
		}
		m.Requests.WithLabelValues(tier.String()).Inc()
		next.ServeHTTP(w, r)
	})
}

// Backend wraps b so every call is counted and timed under name.
func (m *Metrics) Backend(b session.Backend, name string) *Backend {
	return &Backend{next: b, name: name, metrics: m}
}

// Backend is an instrumented session.Backend. Touch is forwarded when the
// wrapped backend supports it and is a no-op otherwise.
type Backend struct {
	next    session.Backend
	name    string
	metrics *Metrics
}

var (
	_ session.Backend = (*Backend)(nil)
	_ session.Toucher = (*Backend)(nil)
)

func (b *Backend) Get(ctx context.Context, id string) (*session.Session, error) {
	defer b.observe("get", time.Now())
	s, err := b.next.Get(ctx, id)
	b.count("get", err)
	return s, err
}

func (b *Backend) Set(ctx context.Context, s *session.Session, ttl time.Duration) error {
	defer b.observe("set", time.Now())
	err := b.next.Set(ctx, s, ttl)
	b.count("set", err)
	return err
}

func (b *Backend) Delete(ctx context.Context, id string) error {
	defer b.observe("delete", time.Now())
	err := b.next.Delete(ctx, id)
	b.count("delete", err)
	return err
}

func (b *Backend) Touch(ctx context.Context, id string, ttl time.Duration) error {
	t, ok := b.next.(session.Toucher)
	if !ok {
		return nil
	}
	defer b.observe("touch", time.Now())
	err := t.Touch(ctx, id, ttl)
	b.count("touch", err)
	return err
}

// Unwrap returns the wrapped backend.
func (b *Backend) Unwrap() session.Backend { return b.next }

func (b *Backend) observe(op string, start time.Time) {
	b.metrics.BackendLatency.WithLabelValues(b.name, op).Observe(time.Since(start).Seconds())
}

func (b *Backend) count(op string, err error) {
	b.metrics.BackendOps.WithLabelValues(b.name, op, result(err)).Inc()
}

func result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionExpired):
		return ResultMiss
	default:
		return ResultError
	}
}
