package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Webhook outcomes.
const (
	WebhookCreated   = "created"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
	WebhookRejected  = "rejected"
	WebhookMalformed = "malformed"
	WebhookFailed    = "failed"
)

// OrderMetrics counts lifecycle, webhook and tracking outcomes.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
	tracking    *prometheus.CounterVec
}

// NewOrderMetrics registers the order counters. A nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transition requests by target status and result.",
	}, []string{"to", "result"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment webhook deliveries by outcome.",
	}, []string{"outcome"})
	tracking := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_tracking_lookups_total",
		Help: "Public tracking lookups by result.",
	}, []string{"result"})
	reg.MustRegister(transitions, webhooks, tracking)
	return &OrderMetrics{
		transitions: transitions,
		webhooks:    webhooks,
		tracking:    tracking,
	}
}

// ObserveTransition records a transition attempt. result is "applied", "noop" or an error code.
func (m *OrderMetrics) ObserveTransition(to, result string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to), normalizeLabel(result)).Inc()
}

// ObserveWebhook records a webhook delivery outcome.
func (m *OrderMetrics) ObserveWebhook(outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveTracking records a tracking lookup result.
func (m *OrderMetrics) ObserveTracking(result string) {
	if m == nil || m.tracking == nil {
		return
	}
	m.tracking.WithLabelValues(normalizeLabel(result)).Inc()
}
