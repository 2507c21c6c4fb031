package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the message pipeline.
type ConversationMetrics struct {
	messagesTotal     *prometheus.CounterVec
	generationRetries prometheus.Counter
	generationErrors  *prometheus.CounterVec
	ordersTotal       *prometheus.CounterVec
	turnLatency       *prometheus.HistogramVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vendibot",
			Subsystem: "conversation",
			Name:      "messages_total",
			Help:      "Total inbound messages processed",
		}, []string{"channel", "status"}),
		generationRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendibot",
			Subsystem: "conversation",
			Name:      "generation_retries_total",
			Help:      "Total retried generation attempts",
		}),
		generationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vendibot",
			Subsystem: "conversation",
			Name:      "generation_errors_total",
			Help:      "Total failed generation requests by error kind",
		}, []string{"kind"}),
		ordersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vendibot",
			Subsystem: "orders",
			Name:      "reconciled_total",
			Help:      "Total order reconciliation outcomes",
		}, []string{"status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vendibot",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of a conversation turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.generationRetries, m.generationErrors, m.ordersTotal, m.turnLatency)
	return m
}

func (m *ConversationMetrics) ObserveMessage(channel, status string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(channel, status).Inc()
}

func (m *ConversationMetrics) ObserveGenerationRetry() {
	if m == nil {
		return
	}
	m.generationRetries.Inc()
}

func (m *ConversationMetrics) ObserveGenerationError(kind string) {
	if m == nil {
		return
	}
	m.generationErrors.WithLabelValues(kind).Inc()
}

func (m *ConversationMetrics) ObserveOrder(status string) {
	if m == nil {
		return
	}
	m.ordersTotal.WithLabelValues(status).Inc()
}

func (m *ConversationMetrics) ObserveTurnLatency(channel string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(channel).Observe(seconds)
}
