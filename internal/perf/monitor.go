// Package perf measures achieved frame rate and per-frame latency over a
// rolling window. Purely observational; it never influences control flow.
package perf

import (
	"sync"
	"time"
)

// DefaultWindowSize is the number of recent samples kept per metric.
const DefaultWindowSize = 30

// Monitor tracks inter-frame intervals and per-frame processing latencies.
type Monitor struct {
	mu        sync.Mutex
	window    int
	intervals []float64 // seconds
	latencies []float64 // milliseconds
	lastFrame time.Time
	primed    bool
}

// NewMonitor creates a monitor with the default rolling window.
func NewMonitor() *Monitor {
	return &Monitor{window: DefaultWindowSize}
}

// FrameComplete records the end of a frame at the given time. The first
// call only establishes the baseline.
func (m *Monitor) FrameComplete(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.primed {
		m.intervals = push(m.intervals, now.Sub(m.lastFrame).Seconds(), m.window)
	}
	m.lastFrame = now
	m.primed = true
}

// RecordLatency records one frame's processing latency in milliseconds.
func (m *Monitor) RecordLatency(ms float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = push(m.latencies, ms, m.window)
}

// FPS returns the achieved frame rate over the window, or 0 before any
// complete interval has been observed.
func (m *Monitor) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	avg := mean(m.intervals)
	if avg == 0 {
		return 0
	}
	return 1.0 / avg
}

// AvgLatencyMS returns the mean per-frame latency over the window.
func (m *Monitor) AvgLatencyMS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mean(m.latencies)
}

// Reset clears all samples. Called when a session starts.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intervals = m.intervals[:0]
	m.latencies = m.latencies[:0]
	m.primed = false
}

func push(samples []float64, v float64, window int) []float64 {
	if len(samples) >= window {
		copy(samples, samples[1:])
		samples = samples[:window-1]
	}
	return append(samples, v)
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}
