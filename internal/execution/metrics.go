package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the custom Prometheus metrics for tool execution and
// intent classification.
type Metrics struct {
	Executions       *prometheus.CounterVec
	ExecutionLatency prometheus.Histogram
	Classifications  prometheus.Counter
	ClassifierMisses prometheus.Counter
	ChainStepsTotal  prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics registers the Prometheus metrics. Call once at startup.
func InitMetrics() *Metrics {
	m := &Metrics{
		Executions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gitpilot_tool_executions_total",
			Help: "Total number of tool executions by tool and status",
		}, []string{"tool", "status"}),

		ExecutionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gitpilot_tool_execution_duration_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60}, // network pushes can take a while
		}),

		Classifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gitpilot_intent_classifications_total",
			Help: "Total number of intent classification calls",
		}),

		ClassifierMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gitpilot_intent_classification_misses_total",
			Help: "Classification calls where no tool reached the confidence threshold",
		}),

		ChainStepsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gitpilot_chain_steps_total",
			Help: "Total number of follow-up tool executions run by the chain executor",
		}),
	}
	globalMetrics = m
	return m
}

// GetMetrics returns the global metrics instance (nil before InitMetrics).
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordExecution records one execution outcome.
func (m *Metrics) RecordExecution(tool, status string, seconds float64) {
	m.Executions.WithLabelValues(tool, status).Inc()
	m.ExecutionLatency.Observe(seconds)
}

// RecordClassification records one classify call and whether it matched.
func (m *Metrics) RecordClassification(matched bool) {
	m.Classifications.Inc()
	if !matched {
		m.ClassifierMisses.Inc()
	}
}

// RecordChainStep records one chained follow-up execution.
func (m *Metrics) RecordChainStep() {
	m.ChainStepsTotal.Inc()
}
