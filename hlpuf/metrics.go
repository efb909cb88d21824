package hlpuf

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hlpuf"

// Metrics counts protocol outcomes. A nil *Metrics records nothing.
type Metrics struct {
	verdicts   *prometheus.CounterVec
	measured   prometheus.Counter
	mismatches prometheus.Counter
	fidelity   *prometheus.HistogramVec
}

// NewMetrics creates the protocol metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verdicts_total",
				Help:      "Number of authentication verdicts reached, by role, variant and verdict",
			},
			[]string{"role", "variant", "verdict"},
		),
		measured: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "symbols_measured_total",
				Help:      "Number of stream symbols measured by servers",
			},
		),
		mismatches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "symbol_mismatches_total",
				Help:      "Number of measured stream symbols that disagreed with the expected response",
			},
		),
		fidelity: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fidelity",
				Help:      "Fidelity of received batch proofs",
				Buckets:   []float64{0.0625, 0.125, 0.25, 0.5, 0.75, 0.999, 1},
			},
			[]string{"role"},
		),
	}
	for _, c := range []prometheus.Collector{m.verdicts, m.measured, m.mismatches, m.fidelity} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(r Report) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(string(r.Role), r.Variant.String(), r.Verdict.String()).Inc()
	switch {
	case r.Variant == VariantBatch && r.Verdict != VerdictNone:
		m.fidelity.WithLabelValues(string(r.Role)).Observe(r.Fidelity)
	case r.Variant == VariantStream && r.Role == RoleServer:
		m.measured.Add(float64(r.Symbols))
		m.mismatches.Add(float64(r.Mismatches))
	}
}
