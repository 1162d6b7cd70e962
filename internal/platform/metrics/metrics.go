package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	ContributionsValidated *prometheus.CounterVec
	RateLimitDenied        *prometheus.CounterVec
	OffersPurged           prometheus.Counter
	AlertsTriggered        prometheus.Counter
	NotificationsSent      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ContributionsValidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contributions_validated_total",
			Help: "Price contributions by validation outcome.",
		}, []string{"outcome"}),
		RateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_denied_total",
			Help: "Requests denied by the rate limiter, by endpoint.",
		}, []string{"endpoint"}),
		OffersPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "offers_purged_total",
			Help: "Daily offers removed by the retention job.",
		}),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "price_alerts_triggered_total",
			Help: "Price alerts triggered by a lower price.",
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notifications delivered, by channel and result.",
		}, []string{"channel", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ContributionsValidated,
		m.RateLimitDenied,
		m.OffersPurged,
		m.AlertsTriggered,
		m.NotificationsSent,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
