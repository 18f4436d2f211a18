package fusion

import (
	"fmt"

	"github.com/xwdoor/bubble/internal/orientation"
)

// Aggregator batches coordinates into fixed-size windows and reduces each
// full window to one averaged coordinate, decoupling the raw sample rate
// from the decision rate. Exactly one average is produced per capacity
// pushes; a mid-fill window is never emitted. Not safe for concurrent use,
// each channel owns its own aggregator.
type Aggregator struct {
	capacity int
	window   []orientation.Coordinate
}

// NewAggregator returns an aggregator with the given window capacity.
func NewAggregator(n int) (*Aggregator, error) {
	if n < 1 {
		return nil, fmt.Errorf("fusion: window size must be >= 1, got %d", n)
	}
	return &Aggregator{
		capacity: n,
		window:   make([]orientation.Coordinate, 0, n),
	}, nil
}

// Push appends c to the current window. When the window reaches capacity it
// is averaged and cleared, and Push returns (average, true); otherwise the
// second return is false and the first is meaningless.
func (a *Aggregator) Push(c orientation.Coordinate) (orientation.Coordinate, bool) {
	a.window = append(a.window, c)
	if len(a.window) < a.capacity {
		return orientation.Coordinate{}, false
	}

	avg := orientation.Average(a.window)
	a.window = a.window[:0]
	return avg, true
}

// Len reports how far the current window has filled.
func (a *Aggregator) Len() int {
	return len(a.window)
}
