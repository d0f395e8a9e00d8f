package analysis

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors of the analysis worker.
type Metrics struct {
	Runs        *prometheus.CounterVec
	Duration    prometheus.Histogram
	Companies   prometheus.Gauge
	Excluded    prometheus.Gauge
	Diagnostics prometheus.Gauge
	LastSuccess prometheus.Gauge
}

// NewMetrics creates the collectors and registers them when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuation_analysis_runs_total",
				Help: "Total number of analysis runs by outcome",
			},
			[]string{"status"},
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "valuation_analysis_duration_seconds",
				Help:    "Duration of analysis runs in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		Companies: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "valuation_analysis_companies",
				Help: "Companies evaluated by the last successful run",
			},
		),
		Excluded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "valuation_analysis_excluded_companies",
				Help: "Companies excluded from the last successful run",
			},
		),
		Diagnostics: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "valuation_analysis_diagnostics",
				Help: "Numeric diagnostics reported by the last successful run",
			},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "valuation_analysis_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Runs, m.Duration, m.Companies, m.Excluded, m.Diagnostics, m.LastSuccess)
	}
	return m
}

func (m *Metrics) observe(snap *Snapshot, seconds float64) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues("success").Inc()
	m.Duration.Observe(seconds)
	m.Companies.Set(float64(snap.Report.Len()))
	m.Excluded.Set(float64(len(snap.Report.Excluded)))
	m.Diagnostics.Set(float64(len(snap.Diagnostics)))
	m.LastSuccess.Set(float64(snap.GeneratedAt.Unix()))
}

func (m *Metrics) failed() {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues("failed").Inc()
}
