package fusion

import "fmt"

// JitterStats summarizes one filled ring of inter-arrival deltas in
// milliseconds. It has no identity beyond the latest computation; each
// filled ring replaces the previous snapshot entirely.
type JitterStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean_ms"`
	Min   float64 `json:"min_ms"`
	Max   float64 `json:"max_ms"`
}

// BookKeeper is the diagnostic side channel of the pipeline: a bounded ring
// of inter-sample-arrival deltas for one channel. When the ring fills, the
// stats over the full ring are returned and the ring restarts seeded with
// its last element, so the gap between two consecutive windows still
// participates in the next window's statistics and the restart never
// produces a degenerate zero-length first delta. Consequently every fill
// after the first takes capacity-1 new records.
//
// Record never fails: deltas are non-negative by construction (monotonic
// timestamps at the source) and magnitude is unbounded.
type BookKeeper struct {
	capacity int
	ring     []float64
}

// NewBookKeeper returns a bookkeeper with the given ring capacity. The seed
// policy needs at least two slots to be meaningful.
func NewBookKeeper(capacity int) (*BookKeeper, error) {
	if capacity < 2 {
		return nil, fmt.Errorf("fusion: jitter ring size must be >= 2, got %d", capacity)
	}
	return &BookKeeper{
		capacity: capacity,
		ring:     make([]float64, 0, capacity),
	}, nil
}

// Record appends one inter-arrival delta. When the ring fills it returns
// (stats over the full ring, true) and restarts the ring with the carried
// seed; otherwise the second return is false.
func (b *BookKeeper) Record(deltaMillis float64) (JitterStats, bool) {
	b.ring = append(b.ring, deltaMillis)
	if len(b.ring) < b.capacity {
		return JitterStats{}, false
	}

	stats := calculate(b.ring)
	seed := b.ring[len(b.ring)-1]
	b.ring = append(b.ring[:0], seed)
	return stats, true
}

// calculate computes the summary over one full ring.
func calculate(window []float64) JitterStats {
	stats := JitterStats{
		Count: len(window),
		Min:   window[0],
		Max:   window[0],
	}

	var sum float64
	for _, d := range window {
		sum += d
		if d < stats.Min {
			stats.Min = d
		}
		if d > stats.Max {
			stats.Max = d
		}
	}
	stats.Mean = sum / float64(len(window))
	return stats
}
