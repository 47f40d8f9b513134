// Package metrics wraps the Prometheus collectors the connector exposes:
// packet counts by result code, account balance gauges, and BTP
// connection gauges.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns the collectors registered against one Prometheus
// registry. It is a thin wrapper, not a metrics abstraction layer: every
// caller interacts with the underlying collectors directly.
type Recorder struct {
	Packets  *prometheus.CounterVec
	Balance  *prometheus.GaugeVec
	BTPConns prometheus.Gauge
}

// NewRecorder builds and registers the connector's collectors against
// registry.
func NewRecorder(registry *prometheus.Registry) (*Recorder, error) {
	r := &Recorder{
		Packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ilp_packets_total",
			Help: "ILP Prepare packets handled, by result code.",
		}, []string{"result_code"}),
		Balance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ilp_account_balance",
			Help: "Current balance per account, in the account's minor asset units.",
		}, []string{"account_id"}),
		BTPConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ilp_btp_connections",
			Help: "BTP WebSocket connections currently bound.",
		}),
	}

	for _, c := range []prometheus.Collector{r.Packets, r.Balance, r.BTPConns} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: registering collector: %w", err)
		}
	}
	return r, nil
}

var (
	globalMu       sync.Mutex
	globalRecorder *Recorder
)

// SetGlobalRecorder installs r as the process-wide recorder. It returns
// an error if called twice, since a second call almost always means two
// components independently tried to own metrics registration.
func SetGlobalRecorder(r *Recorder) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalRecorder != nil {
		return fmt.Errorf("metrics: global recorder already set")
	}
	globalRecorder = r
	return nil
}

// Global returns the process-wide recorder, or nil if none has been set.
func Global() *Recorder {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalRecorder
}
