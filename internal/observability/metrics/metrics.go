package metrics

import "github.com/prometheus/client_golang/prometheus"

// BridgeMetrics exposes counters/histograms for the conversation bridge and
// the booking side effects it triggers.
type BridgeMetrics struct {
	contractTotal  *prometheus.CounterVec
	inferenceTotal *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	emailTotal     *prometheus.CounterVec
}

func NewBridgeMetrics(reg prometheus.Registerer) *BridgeMetrics {
	m := &BridgeMetrics{
		contractTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "bridge",
			Name:      "contract_total",
			Help:      "Action contracts produced, by outcome (ok, parse_failure, provider_error)",
		}, []string{"outcome"}),
		inferenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "bridge",
			Name:      "inference_total",
			Help:      "Lead field updates inferred from reply text, by inferred status",
		}, []string{"status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "frontdesk",
			Subsystem: "bridge",
			Name:      "llm_latency_seconds",
			Help:      "Latency of model calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider", "status"}),
		emailTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "booking",
			Name:      "email_total",
			Help:      "Booking confirmation emails, by recipient kind and result",
		}, []string{"kind", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.contractTotal, m.inferenceTotal, m.llmLatency, m.emailTotal)
	return m
}

func (m *BridgeMetrics) ObserveContract(outcome string) {
	if m == nil {
		return
	}
	m.contractTotal.WithLabelValues(outcome).Inc()
}

// ObserveInference records a fallback inference. An empty status means the
// rules filled in fields without changing the lead status.
func (m *BridgeMetrics) ObserveInference(status string) {
	if m == nil {
		return
	}
	if status == "" {
		status = "none"
	}
	m.inferenceTotal.WithLabelValues(status).Inc()
}

func (m *BridgeMetrics) ObserveLLMLatency(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(provider, status).Observe(seconds)
}

func (m *BridgeMetrics) ObserveEmail(kind, status string) {
	if m == nil {
		return
	}
	m.emailTotal.WithLabelValues(kind, status).Inc()
}
