package fusion

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xwdoor/bubble/internal/orientation"
	"github.com/xwdoor/bubble/internal/sample"
)

// Defaults for Config fields left zero.
const (
	DefaultWindowSize = 20
	DefaultRingSize   = 1000
)

// Usage errors: operating the pipeline outside its started phase is a
// programming error and fails fast, never silently.
var (
	ErrNotStarted = fmt.Errorf("fusion: pipeline not started")
	ErrStarted    = fmt.Errorf("fusion: pipeline already started")
	ErrStopped    = fmt.Errorf("fusion: pipeline stopped")
)

// Config fixes the pipeline's shape for its lifetime. SamplingPeriod is the
// hardware sampling-period hint; the pipeline itself is driven purely by
// Feed calls and only records the hint for consumers that want it.
type Config struct {
	WindowSize     int
	RingSize       int
	SamplingPeriod time.Duration
}

// Event is the externally observable orientation-changed notification: the
// new state paired with the averaged coordinate that produced it, stamped
// with the triggering sample's time. Immutable, fire-and-forget.
type Event struct {
	State      orientation.State      `json:"state"`
	Coordinate orientation.Coordinate `json:"coordinate"`
	At         time.Time              `json:"at"`
}

// Deliverer receives events in emission order. Exactly one deliverer is
// active per pipeline for its lifetime, injected at construction.
type Deliverer interface {
	Deliver(Event)
}

// DelivererFunc adapts a plain callback to the Deliverer interface.
type DelivererFunc func(Event)

func (f DelivererFunc) Deliver(e Event) { f(e) }

// Diagnostics receives jitter snapshots whenever a channel's timing ring
// fills. Purely informational; a nil Diagnostics disables the side channel.
type Diagnostics func(sample.Channel, JitterStats)

// Pipeline lifecycle phases.
const (
	phaseCreated int32 = iota
	phaseStarted
	phaseStopped
)

// lane is the per-channel pipeline stage state. Each channel's samples
// arrive on one goroutine, so a lane needs no locking of its own.
type lane struct {
	agg    *Aggregator
	keeper *BookKeeper
	lastAt time.Time
}

// Pipeline wires raw-sample intake through coordinate extraction, window
// aggregation and the shared orientation state machine, and relays
// inter-arrival deltas into per-channel bookkeepers. Channels share no
// mutable state except the state machine, whose update and the subsequent
// event delivery happen inside one critical section so concurrent channels
// never interleave.
type Pipeline struct {
	cfg   Config
	phase atomic.Int32
	lanes map[sample.Channel]*lane

	// mu serializes state-machine updates and event delivery across
	// channels, and guards the deliverer reference released by Stop.
	mu      sync.Mutex
	machine *orientation.StateMachine
	deliver Deliverer

	// diagMu guards only the diagnostics reference. A slow diagnostics
	// sink contends with Stop and other diagnostics calls, never with
	// event delivery.
	diagMu sync.Mutex
	diag   Diagnostics
}

// New constructs a pipeline with one lane per known channel. The deliverer
// is required; diag may be nil.
func New(cfg Config, d Deliverer, diag Diagnostics) (*Pipeline, error) {
	if d == nil {
		return nil, fmt.Errorf("fusion: deliverer is required")
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.RingSize == 0 {
		cfg.RingSize = DefaultRingSize
	}

	lanes := make(map[sample.Channel]*lane, len(sample.Channels))
	for _, ch := range sample.Channels {
		agg, err := NewAggregator(cfg.WindowSize)
		if err != nil {
			return nil, err
		}
		keeper, err := NewBookKeeper(cfg.RingSize)
		if err != nil {
			return nil, err
		}
		lanes[ch] = &lane{agg: agg, keeper: keeper}
	}

	return &Pipeline{
		cfg:     cfg,
		lanes:   lanes,
		machine: orientation.NewStateMachine(),
		deliver: d,
		diag:    diag,
	}, nil
}

// Start registers the pipeline for sample intake. A stopped pipeline cannot
// be restarted; construct a new one, which trivially starts with empty
// windows.
func (p *Pipeline) Start() error {
	if !p.phase.CompareAndSwap(phaseCreated, phaseStarted) {
		if p.phase.Load() == phaseStopped {
			return ErrStopped
		}
		return ErrStarted
	}
	return nil
}

// Feed runs one raw sample through the channel's lane: the inter-arrival
// delta goes to the bookkeeper, the coordinate into the aggregator, and a
// full window's average through the state machine out to the deliverer.
// All work is synchronous and bounded on the calling goroutine. Samples on
// the same channel must not be fed concurrently; different channels may.
func (p *Pipeline) Feed(ch sample.Channel, s sample.Raw) error {
	switch p.phase.Load() {
	case phaseCreated:
		return ErrNotStarted
	case phaseStopped:
		return ErrStopped
	}

	ln, ok := p.lanes[ch]
	if !ok {
		return fmt.Errorf("fusion: unknown channel %q", ch)
	}

	// Diagnostic side effect first; it never touches the primary path.
	if !ln.lastAt.IsZero() {
		delta := float64(s.At.Sub(ln.lastAt)) / float64(time.Millisecond)
		if stats, full := ln.keeper.Record(delta); full {
			p.diagMu.Lock()
			if p.diag != nil {
				p.diag(ch, stats)
			}
			p.diagMu.Unlock()
		}
	}
	ln.lastAt = s.At

	avg, full := ln.agg.Push(orientation.Calculate(s))
	if !full {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase.Load() == phaseStopped {
		// Lost the race with Stop; the window's average is dropped.
		return ErrStopped
	}
	state := p.machine.Update(avg)
	p.deliver.Deliver(Event{State: state, Coordinate: avg, At: s.At})
	return nil
}

// SamplingPeriod returns the hardware sampling-period hint from the config.
func (p *Pipeline) SamplingPeriod() time.Duration {
	return p.cfg.SamplingPeriod
}

// Stop unregisters the pipeline: further Feed calls fail with ErrStopped,
// the delivery and diagnostics references are released, and any mid-fill
// windows are simply dropped, never flushed. Stop is terminal and safe to
// call more than once.
func (p *Pipeline) Stop() {
	p.phase.Store(phaseStopped)
	p.mu.Lock()
	p.deliver = nil
	p.mu.Unlock()
	p.diagMu.Lock()
	p.diag = nil
	p.diagMu.Unlock()
}
