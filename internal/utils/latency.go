package utils

import (
	"math"
	"sort"
	"sync"
	"time"
)

// LatencyTracker keeps a bounded window of recent durations.
type LatencyTracker struct {
	mu     sync.Mutex
	window []time.Duration
	next   int
	full   bool
	total  int
}

// NewLatencyTracker creates a tracker keeping the last size samples.
func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 512
	}
	return &LatencyTracker{window: make([]time.Duration, size)}
}

// Observe records a duration, overwriting the oldest sample once full.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.window[l.next] = d
	l.next = (l.next + 1) % len(l.window)
	if l.next == 0 {
		l.full = true
	}
	l.total++
}

// Count returns the number of samples currently held.
func (l *LatencyTracker) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size()
}

// Observed returns the total number of samples ever recorded.
func (l *LatencyTracker) Observed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Percentile returns the nearest-rank percentile (0-100) of the window.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.Lock()
	n := l.size()
	sorted := make([]time.Duration, n)
	copy(sorted, l.window[:n])
	l.mu.Unlock()

	if n == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[n-1]
	}
	rank := int(math.Ceil(p/100*float64(n))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= n {
		rank = n - 1
	}
	return sorted[rank]
}

func (l *LatencyTracker) size() int {
	if l.full {
		return len(l.window)
	}
	return l.next
}
