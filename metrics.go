package scpi

import (
	"sync"
	"time"
)

// Metrics accumulates dispatch statistics for one interpreter. All
// methods are safe for concurrent readers, so an external collector may
// snapshot while the interpreter runs.
type Metrics struct {
	mu sync.Mutex

	dispatches uint64
	errors     map[Code]uint64
	suspended  uint64

	totalTime time.Duration
	maxTime   time.Duration
}

// NewMetrics returns an empty metrics block.
func NewMetrics() *Metrics {
	return &Metrics{errors: make(map[Code]uint64)}
}

// RecordDispatch records one completed dispatch.
func (m *Metrics) RecordDispatch(d time.Duration, suspended bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dispatches++
	if suspended {
		m.suspended++
	}
	m.totalTime += d
	if d > m.maxTime {
		m.maxTime = d
	}
}

// RecordError records one failure by taxonomy code.
func (m *Metrics) RecordError(code Code) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[code]++
}

// Snapshot is a point-in-time copy of the metrics.
type Snapshot struct {
	// Dispatches is the number of handler invocations.
	Dispatches uint64
	// Suspended is the number of dispatches that suspended cooperatively.
	Suspended uint64
	// Errors counts failures by taxonomy code.
	Errors map[Code]uint64
	// TotalTime is the cumulative handler execution time.
	TotalTime time.Duration
	// MaxTime is the longest single dispatch.
	MaxTime time.Duration
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	errs := make(map[Code]uint64, len(m.errors))
	for k, v := range m.errors {
		errs[k] = v
	}
	return Snapshot{
		Dispatches: m.dispatches,
		Suspended:  m.suspended,
		Errors:     errs,
		TotalTime:  m.totalTime,
		MaxTime:    m.maxTime,
	}
}
