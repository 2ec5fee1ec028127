package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestBridgeMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBridgeMetrics(reg)
	m.ObserveContract("ok")
	m.ObserveContract("ok")
	m.ObserveContract("parse_failure")
	m.ObserveInference("")
	m.ObserveLLMLatency("bedrock", "ok", 1.2)
	m.ObserveEmail("owner", "sent")

	if got := counterValue(t, reg, "frontdesk_bridge_contract_total", "outcome", "ok"); got != 2 {
		t.Fatalf("expected 2 ok contracts, got %v", got)
	}
	if got := counterValue(t, reg, "frontdesk_bridge_inference_total", "status", "none"); got != 1 {
		t.Fatalf("expected empty status recorded as none, got %v", got)
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestBridgeMetricsLatencyHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBridgeMetrics(reg)
	m.ObserveLLMLatency("openai", "error", 0.3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "frontdesk_bridge_llm_latency_seconds" {
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	if hist == nil || hist.GetSampleCount() != 1 {
		t.Fatalf("expected one latency sample, got %+v", hist)
	}
}

func TestBridgeMetricsNilSafe(t *testing.T) {
	var m *BridgeMetrics
	m.ObserveContract("ok")
	m.ObserveInference("BOOKED")
	m.ObserveLLMLatency("bedrock", "ok", 0.1)
	m.ObserveEmail("customer", "failed")
}
