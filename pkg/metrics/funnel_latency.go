// Package metrics tracks request and upstream latency in memory.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Tracker keeps the last window latency samples of one operation plus
// lifetime call and error counts.
type Tracker struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	full    bool
	calls   int64
	errors  int64
}

func NewTracker(window int) *Tracker {
	if window <= 0 {
		window = 1000
	}
	return &Tracker{samples: make([]time.Duration, window)}
}

// Record adds one sample. failed counts the call as an error.
func (t *Tracker) Record(d time.Duration, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples[t.next] = d
	t.next = (t.next + 1) % len(t.samples)
	if t.next == 0 {
		t.full = true
	}
	t.calls++
	if failed {
		t.errors++
	}
}

// Stats summarises the current window.
type Stats struct {
	Calls   int64   `json:"calls"`
	Errors  int64   `json:"errors"`
	Samples int     `json:"samples"`
	AvgMs   float64 `json:"avg_ms"`
	P50Ms   float64 `json:"p50_ms"`
	P95Ms   float64 `json:"p95_ms"`
	P99Ms   float64 `json:"p99_ms"`
	MaxMs   float64 `json:"max_ms"`
}

func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	n := t.next
	if t.full {
		n = len(t.samples)
	}
	window := make([]time.Duration, n)
	copy(window, t.samples[:n])
	s := Stats{Calls: t.calls, Errors: t.errors, Samples: n}
	t.mu.Unlock()

	if n == 0 {
		return s
	}

	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
	var sum time.Duration
	for _, d := range window {
		sum += d
	}
	s.AvgMs = ms(sum / time.Duration(n))
	s.P50Ms = ms(percentile(window, 0.50))
	s.P95Ms = ms(percentile(window, 0.95))
	s.P99Ms = ms(percentile(window, 0.99))
	s.MaxMs = ms(window[n-1])
	return s
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	return sorted[int(float64(len(sorted)-1)*p)]
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// Registry holds one Tracker per operation name.
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
	window   int
}

func NewRegistry(window int) *Registry {
	return &Registry{trackers: make(map[string]*Tracker), window: window}
}

func (r *Registry) Record(name string, d time.Duration, failed bool) {
	r.mu.RLock()
	t, ok := r.trackers[name]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		if t, ok = r.trackers[name]; !ok {
			t = NewTracker(r.window)
			r.trackers[name] = t
		}
		r.mu.Unlock()
	}
	t.Record(d, failed)
}

// Snapshot returns the stats of every tracked operation.
func (r *Registry) Snapshot() map[string]Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Stats, len(r.trackers))
	for name, t := range r.trackers {
		out[name] = t.Stats()
	}
	return out
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry(1000)
	})
	return global
}

// Record records into the process-wide registry.
func Record(name string, d time.Duration, failed bool) {
	Global().Record(name, d, failed)
}
