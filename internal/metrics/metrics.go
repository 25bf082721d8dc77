// Package metrics exposes Prometheus counters for the webhook
// ingestion path.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the ingestion counters. All methods are safe on a nil
// receiver so metrics stay optional in tests and tooling.
type Metrics struct {
	registry *prometheus.Registry

	eventsTotal   *prometheus.CounterVec
	repliesTotal  prometheus.Counter
	commentsTotal prometheus.Counter
}

// New creates and registers the ingestion metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "issuebot_events_total",
			Help: "Webhook events processed, by action and outcome status.",
		}, []string{"action", "status"}),
		repliesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "issuebot_replies_triggered_total",
			Help: "Events whose label transition triggered the reply workflow.",
		}),
		commentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "issuebot_comments_sent_total",
			Help: "Reply comments successfully posted.",
		}),
	}

	m.registry.MustRegister(m.eventsTotal, m.repliesTotal, m.commentsTotal)
	return m
}

// ObserveEvent counts one processed event.
func (m *Metrics) ObserveEvent(action, status string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(action, status).Inc()
}

// ObserveReply counts one reply-triggering transition.
func (m *Metrics) ObserveReply() {
	if m == nil {
		return
	}
	m.repliesTotal.Inc()
}

// ObserveCommentSent counts one posted comment.
func (m *Metrics) ObserveCommentSent() {
	if m == nil {
		return
	}
	m.commentsTotal.Inc()
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
