package perf

import "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"

// PrometheusObserver exports monitor samples. Timings feed the operation
// duration histogram; any other sample sets the label's value gauge.
type PrometheusObserver struct {
	m *metrics.Metrics
}

func NewPrometheusObserver(m *metrics.Metrics) *PrometheusObserver {
	return &PrometheusObserver{m: m}
}

func (p *PrometheusObserver) ObserveDuration(label string, millis float64) {
	p.m.OperationDuration.WithLabelValues(label).Observe(millis)
}

func (p *PrometheusObserver) ObserveSample(label string, value float64) {
	p.m.MonitorValues.WithLabelValues(label).Set(value)
}
