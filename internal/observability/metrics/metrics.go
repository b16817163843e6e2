package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the dialogue engine.
type ConversationMetrics struct {
	turnsTotal       *prometheus.CounterVec
	blockedInputs    prometheus.Counter
	escalationsTotal *prometheus.CounterVec
	bookingConfirmed prometheus.Counter
	llmFailures      *prometheus.CounterVec
	turnLatency      *prometheus.HistogramVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetcare",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total processed turns by routed destination",
		}, []string{"destination"}),
		blockedInputs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vetcare",
			Subsystem: "conversation",
			Name:      "blocked_inputs_total",
			Help:      "Total inputs blocked by the prompt guard",
		}),
		escalationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetcare",
			Subsystem: "conversation",
			Name:      "escalations_total",
			Help:      "Total human escalations by trigger reason",
		}, []string{"reason"}),
		bookingConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vetcare",
			Subsystem: "conversation",
			Name:      "bookings_confirmed_total",
			Help:      "Total appointment bookings confirmed",
		}),
		llmFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetcare",
			Subsystem: "conversation",
			Name:      "llm_failures_total",
			Help:      "Total LLM capability failures by call site",
		}, []string{"capability"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vetcare",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Latency of full turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"destination"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.blockedInputs, m.escalationsTotal, m.bookingConfirmed, m.llmFailures, m.turnLatency)
	return m
}

func (m *ConversationMetrics) ObserveTurn(destination string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(destination).Inc()
	m.turnLatency.WithLabelValues(destination).Observe(seconds)
}

func (m *ConversationMetrics) ObserveBlockedInput() {
	if m == nil {
		return
	}
	m.blockedInputs.Inc()
}

func (m *ConversationMetrics) ObserveEscalation(reason string) {
	if m == nil {
		return
	}
	m.escalationsTotal.WithLabelValues(reason).Inc()
}

func (m *ConversationMetrics) ObserveBookingConfirmed() {
	if m == nil {
		return
	}
	m.bookingConfirmed.Inc()
}

func (m *ConversationMetrics) ObserveLLMFailure(capability string) {
	if m == nil {
		return
	}
	m.llmFailures.WithLabelValues(capability).Inc()
}
