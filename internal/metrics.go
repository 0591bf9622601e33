package internal

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the receive pipeline.
type Metrics struct {
	// VAAs handed to Receive
	Received prometheus.Counter

	// Terminal outcomes by state and reason
	Outcomes *prometheus.CounterVec

	// Messages consumed without a successful mint
	ConsumedWithoutMint *prometheus.CounterVec

	ReceiveLatency prometheus.Histogram
}

// NewMetrics registers the receiver metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Received: factory.NewCounter(prometheus.CounterOpts{
			Name: "nft_receiver_vaas_received_total",
			Help: "Total VAAs submitted to the receiver",
		}),

		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nft_receiver_outcomes_total",
			Help: "Terminal receive outcomes by state and reason",
		}, []string{"state", "reason"}),

		ConsumedWithoutMint: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nft_receiver_consumed_without_mint_total",
			Help: "Messages recorded as consumed whose mint did not happen",
		}, []string{"reason"}), // reason: "invalid_payload", "mint_failure"

		ReceiveLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nft_receiver_receive_duration_seconds",
			Help:    "Duration of a full Receive call including the mint",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// ObserveResult records a terminal outcome.
func (m *Metrics) ObserveResult(res Result, d time.Duration) {
	if m == nil {
		return
	}
	m.Received.Inc()
	m.Outcomes.WithLabelValues(string(res.State), string(res.Reason)).Inc()
	if res.Committed && res.State == StateRejected {
		m.ConsumedWithoutMint.WithLabelValues(string(res.Reason)).Inc()
	}
	m.ReceiveLatency.Observe(d.Seconds())
}
