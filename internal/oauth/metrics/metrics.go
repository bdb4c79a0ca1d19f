package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the authorization flow.
type Metrics struct {
	// Authorize/decision outcomes by operation and result
	FlowOutcome *prometheus.CounterVec

	// Token exchange outcomes by result (the invalid_grant descriptions are
	// folded into one label value; descriptions are for humans, not cardinality)
	TokenOutcome *prometheus.CounterVec

	// Token exchange latency including grant redemption and signing
	TokenLatency prometheus.Histogram

	// Grants removed by the expiry sweep
	GrantsSwept prometheus.Counter
}

// New creates a new Metrics instance with all flow metrics registered.
func New() *Metrics {
	return &Metrics{
		FlowOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ecotrace_oauth_flow_outcomes_total",
			Help: "Authorize and decision outcomes by operation and result",
		}, []string{"operation", "result"}), // operation: "authorize", "decision"

		TokenOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ecotrace_oauth_token_outcomes_total",
			Help: "Token exchange outcomes by result",
		}, []string{"result"}),

		TokenLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecotrace_oauth_token_duration_seconds",
			Help:    "Duration of token exchanges including redemption and signing",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		GrantsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ecotrace_oauth_grants_swept_total",
			Help: "Expired grants removed by the background sweep",
		}),
	}
}

// IncrementFlowOutcome records an authorize or decision outcome.
func (m *Metrics) IncrementFlowOutcome(operation, result string) {
	if m != nil {
		m.FlowOutcome.WithLabelValues(operation, result).Inc()
	}
}

// IncrementTokenOutcome records a token exchange outcome.
func (m *Metrics) IncrementTokenOutcome(result string) {
	if m != nil {
		m.TokenOutcome.WithLabelValues(result).Inc()
	}
}

// ObserveTokenLatency records the duration of a token exchange.
// Call with time.Now() at the start of the exchange.
func (m *Metrics) ObserveTokenLatency(start time.Time) {
	if m != nil {
		m.TokenLatency.Observe(time.Since(start).Seconds())
	}
}

// AddGrantsSwept records grants removed by the expiry sweep.
func (m *Metrics) AddGrantsSwept(n int) {
	if m != nil {
		m.GrantsSwept.Add(float64(n))
	}
}
