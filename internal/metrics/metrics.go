// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "housemates"

// Metrics groups every collector the server records to.
type Metrics struct {
	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	// Settlements counts settle-up attempts by result
	// (ok, invalid_input, inconsistent, timeout, nothing_to_settle, too_large, error).
	Settlements     *prometheus.CounterVec
	SettleDuration  prometheus.Histogram
	SettleTransfers prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls handled, by procedure and status code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settle-up attempts by result.",
		}, []string{"result"}),
		SettleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settle_duration_seconds",
			Help:      "Time spent computing transfers for a settle-up.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		SettleTransfers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settle_transfers",
			Help:      "Transfers produced per successful settle-up.",
			Buckets:   prometheus.LinearBuckets(0, 1, 12),
		}),
	}
	reg.MustRegister(m.RPCRequests, m.RPCDuration, m.Settlements, m.SettleDuration, m.SettleTransfers)
	return m
}
