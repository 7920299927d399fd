package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics holds the application counters exposed on /metrics.
type Metrics struct {
	generations       *prometheus.CounterVec
	refunds           prometheus.Counter
	payments          *prometheus.CounterVec
	rateLimitDenials  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		generations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "depict_generations_total",
			Help: "Generation pipeline runs by outcome.",
		}, []string{"outcome"}),
		refunds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "depict_refunds_total",
			Help: "Compensating credits issued for failed generations.",
		}),
		payments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "depict_payments_total",
			Help: "Payment events by provider and whether credits were applied.",
		}, []string{"provider", "applied"}),
		rateLimitDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "depict_rate_limit_denials_total",
			Help: "Requests denied by the rate limiter, by action.",
		}, []string{"action"}),
	}
}

func (m *Metrics) RecordGeneration(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRefund() {
	if m == nil {
		return
	}
	m.refunds.Inc()
}

func (m *Metrics) RecordPayment(provider string, applied bool) {
	if m == nil {
		return
	}
	value := "false"
	if applied {
		value = "true"
	}
	m.payments.WithLabelValues(provider, value).Inc()
}

func (m *Metrics) RecordRateLimitDenied(action string) {
	if m == nil {
		return
	}
	m.rateLimitDenials.WithLabelValues(action).Inc()
}

// Module provides the prometheus counters.
var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
