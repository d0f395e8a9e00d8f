package utils

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSlowThreshold is the duration above which an operation is reported as slow.
const DefaultSlowThreshold = 30 * time.Second

// Timer measures one operation and logs its duration when stopped
type Timer struct {
	start         time.Time
	name          string
	log           zerolog.Logger
	slowThreshold time.Duration
	now           func() time.Time
}

// NewTimer creates a new timer with the given name
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start:         time.Now(),
		name:          name,
		log:           log,
		slowThreshold: DefaultSlowThreshold,
		now:           time.Now,
	}
}

// WithSlowThreshold changes the duration above which Stop warns.
func (t *Timer) WithSlowThreshold(d time.Duration) *Timer {
	if d > 0 {
		t.slowThreshold = d
	}
	return t
}

// Stop stops the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	duration := t.now().Sub(t.start)

	t.log.Debug().
		Str("operation", t.name).
		Dur("duration_ms", duration).
		Float64("duration_seconds", duration.Seconds()).
		Msg("Performance measurement")

	if duration > t.slowThreshold {
		t.log.Warn().
			Str("operation", t.name).
			Dur("duration", duration).
			Dur("threshold", t.slowThreshold).
			Msg("Slow operation detected")
	}

	return duration
}

// Slow reports whether a measured duration exceeded the threshold.
func (t *Timer) Slow(d time.Duration) bool {
	return d > t.slowThreshold
}

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	func MyFunction() {
//	    defer utils.OperationTimer("my_function", log)()
//	}
func OperationTimer(operation string, log zerolog.Logger) func() {
	t := NewTimer(operation, log)
	return func() { t.Stop() }
}

// PerformanceMonitor tracks named timers that are started and ended separately.
// It is safe for concurrent use.
type PerformanceMonitor struct {
	mu     sync.Mutex
	timers map[string]time.Time
	log    zerolog.Logger
	now    func() time.Time
}

// NewPerformanceMonitor creates an empty monitor.
func NewPerformanceMonitor(log zerolog.Logger) *PerformanceMonitor {
	return &PerformanceMonitor{
		timers: make(map[string]time.Time),
		log:    log.With().Str("component", "performance").Logger(),
		now:    time.Now,
	}
}

// Start begins (or restarts) the named timer.
func (m *PerformanceMonitor) Start(name string) {
	m.mu.Lock()
	m.timers[name] = m.now()
	m.mu.Unlock()

	m.log.Info().Str("timer", name).Msg("Timer started")
}

// End stops the named timer and returns its elapsed time.
// It returns false when the timer was never started.
func (m *PerformanceMonitor) End(name string) (time.Duration, bool) {
	m.mu.Lock()
	started, ok := m.timers[name]
	delete(m.timers, name)
	m.mu.Unlock()

	if !ok {
		m.log.Warn().Str("timer", name).Msg("Timer not found")
		return 0, false
	}

	elapsed := m.now().Sub(started)
	m.log.Info().
		Str("timer", name).
		Float64("elapsed_seconds", elapsed.Seconds()).
		Msg("Timer finished")
	return elapsed, true
}
