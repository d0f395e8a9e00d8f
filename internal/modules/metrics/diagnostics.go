package metrics

import (
	"sync"

	"github.com/rs/zerolog"
)

// Diagnostic describes a numeric edge case hit while computing a metric.
type Diagnostic struct {
	Ticker  string  `json:"ticker"`
	Metric  string  `json:"metric"`
	Message string  `json:"message"`
	Value   float64 `json:"value"`
}

// DiagnosticReporter receives diagnostics. Implementations must be safe for concurrent use.
type DiagnosticReporter interface {
	Report(d Diagnostic)
}

// LogReporter writes diagnostics as zerolog warnings.
type LogReporter struct {
	log zerolog.Logger
}

// NewLogReporter creates a reporter backed by the given logger.
func NewLogReporter(log zerolog.Logger) *LogReporter {
	return &LogReporter{log: log.With().Str("component", "metrics").Logger()}
}

// Report implements DiagnosticReporter.
func (r *LogReporter) Report(d Diagnostic) {
	r.log.Warn().
		Str("ticker", d.Ticker).
		Str("metric", d.Metric).
		Float64("value", d.Value).
		Msg(d.Message)
}

// DiagnosticLog collects diagnostics in memory.
type DiagnosticLog struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewDiagnosticLog creates an empty collector.
func NewDiagnosticLog() *DiagnosticLog {
	return &DiagnosticLog{}
}

// Report implements DiagnosticReporter.
func (l *DiagnosticLog) Report(d Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, d)
}

// Items returns a copy of the collected diagnostics in report order.
func (l *DiagnosticLog) Items() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// ForMetric returns the diagnostics recorded for one metric name.
func (l *DiagnosticLog) ForMetric(metric string) []Diagnostic {
	var out []Diagnostic
	for _, d := range l.Items() {
		if d.Metric == metric {
			out = append(out, d)
		}
	}
	return out
}

// MultiReporter fans a diagnostic out to several reporters.
type MultiReporter []DiagnosticReporter

// Report implements DiagnosticReporter.
func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}

// UniqueReporter forwards only the first diagnostic per ticker and metric.
// One analysis run evaluates a company several times; a run-scoped UniqueReporter
// keeps each edge case to a single entry.
type UniqueReporter struct {
	next DiagnosticReporter
	mu   sync.Mutex
	seen map[[2]string]struct{}
}

// NewUniqueReporter wraps next.
func NewUniqueReporter(next DiagnosticReporter) *UniqueReporter {
	return &UniqueReporter{next: next, seen: make(map[[2]string]struct{})}
}

// Report implements DiagnosticReporter.
func (u *UniqueReporter) Report(d Diagnostic) {
	key := [2]string{d.Ticker, d.Metric}
	u.mu.Lock()
	if _, dup := u.seen[key]; dup {
		u.mu.Unlock()
		return
	}
	u.seen[key] = struct{}{}
	u.mu.Unlock()

	if u.next != nil {
		u.next.Report(d)
	}
}

type nopReporter struct{}

func (nopReporter) Report(Diagnostic) {}
