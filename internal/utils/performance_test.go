package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTimer_StopWarnsWhenSlow(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timer := NewTimer("analysis", log).WithSlowThreshold(time.Second)
	timer.start = start
	timer.now = func() time.Time { return start.Add(2 * time.Second) }

	d := timer.Stop()
	assert.Equal(t, 2*time.Second, d)
	assert.True(t, timer.Slow(d))
	assert.Contains(t, buf.String(), "Slow operation detected")
}

func TestTimer_StopQuietWhenFast(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.InfoLevel)

	timer := NewTimer("analysis", log)
	timer.WithSlowThreshold(0) // ignored, keeps the default
	assert.Equal(t, DefaultSlowThreshold, timer.slowThreshold)

	timer.Stop()
	assert.Empty(t, buf.String())
}

func TestPerformanceMonitor(t *testing.T) {
	m := NewPerformanceMonitor(zerolog.Nop())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Start("collect")
	now = now.Add(1500 * time.Millisecond)

	elapsed, ok := m.End("collect")
	assert.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, elapsed)

	_, ok = m.End("collect")
	assert.False(t, ok, "timers are removed once ended")
}
