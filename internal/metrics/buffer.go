package metrics

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of samples retained per metric name before
// the oldest entries are evicted.
const DefaultCapacity = 1000

// Metric is one recorded sample. Values are either numeric (float64 after a
// JSON round-trip) or strings; the evaluator decides how to compare them.
// A Metric is immutable once recorded.
type Metric struct {
	Name      string            `json:"name"`
	Value     any               `json:"value"`
	Timestamp time.Time         `json:"timestamp"`
	Tags      map[string]string `json:"tags,omitempty"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
}

// Buffer is a thread-safe, append-only sample store keyed by metric name,
// with FIFO eviction per name. Bounding each series independently keeps one
// chatty metric from evicting the history of a quiet one. The set of names
// itself is unbounded; total memory grows with distinct metric names.
type Buffer struct {
	mu       sync.RWMutex
	series   map[string][]Metric
	capacity int
	now      func() time.Time // injectable for deterministic tests
}

// NewBuffer creates a Buffer holding at most capacity samples per metric name.
// A capacity <= 0 falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		series:   make(map[string][]Metric),
		capacity: capacity,
		now:      time.Now,
	}
}

// Record appends m to its metric's series. A zero Timestamp is stamped with
// the current time. Once a series is full its oldest samples are dropped.
func (b *Buffer) Record(m Metric) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.Timestamp.IsZero() {
		m.Timestamp = b.now()
	}
	s := append(b.series[m.Name], m)
	if len(s) > b.capacity {
		s = s[len(s)-b.capacity:]
	}
	b.series[m.Name] = s
}

// Recent returns all samples for name recorded within the window ending now,
// in insertion order. No matching samples yields an empty slice, not nil.
func (b *Buffer) Recent(name string, window time.Duration) []Metric {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cutoff := b.now().Add(-window)
	out := make([]Metric, 0)
	for _, m := range b.series[name] {
		if !m.Timestamp.Before(cutoff) {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the total number of samples currently held across all series.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, s := range b.series {
		n += len(s)
	}
	return n
}
