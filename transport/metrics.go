package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes, as recorded in the outcome label.
const (
	OutcomeOK          = "ok"
	OutcomeHTTPError   = "http_error"
	OutcomeConnection  = "connection_error"
	OutcomeRateLimited = "rate_limited"
)

// Metrics are Prometheus metrics about SOAP requests. A nil *Metrics
// records nothing.
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

// NewMetrics creates request metrics and registers them with reg. If
// reg is nil, the metrics are created but not registered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soap",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "SOAP requests sent, by action and outcome.",
		}, []string{"action", "outcome"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "soap",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Latency of SOAP requests, by action.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.Requests, m.Latency} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observe(action, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(action, outcome).Inc()
	if outcome != OutcomeRateLimited {
		m.Latency.WithLabelValues(action).Observe(d.Seconds())
	}
}
