package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestConversationMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)

	m.ObserveMessage("whatsapp", "ok")
	m.ObserveMessage("whatsapp", "ok")
	m.ObserveGenerationRetry()
	m.ObserveGenerationError("overloaded")
	m.ObserveOrder("created")
	m.ObserveTurnLatency("webchat", 0.42)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	msgs, ok := byName["vendibot_conversation_messages_total"]
	if !ok {
		t.Fatalf("messages counter not registered")
	}
	if got := msgs.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 messages, got %v", got)
	}

	if _, ok := byName["vendibot_orders_reconciled_total"]; !ok {
		t.Fatalf("orders counter not registered")
	}
	if _, ok := byName["vendibot_conversation_turn_latency_seconds"]; !ok {
		t.Fatalf("latency histogram not registered")
	}
}

func TestConversationMetricsNilSafe(t *testing.T) {
	var m *ConversationMetrics
	m.ObserveMessage("whatsapp", "ok")
	m.ObserveGenerationRetry()
	m.ObserveGenerationError("unknown")
	m.ObserveOrder("updated")
	m.ObserveTurnLatency("whatsapp", 0.1)
}
