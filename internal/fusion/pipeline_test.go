package fusion

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xwdoor/bubble/internal/orientation"
	"github.com/xwdoor/bubble/internal/sample"
)

// eventRecorder collects delivered events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) Deliver(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// flatSample is a gravity vector lying straight down the Z axis.
func flatSample(at time.Time) sample.Raw {
	return sample.Raw{X: 0, Y: 0, Z: 1, At: at}
}

// rolledSample is a gravity vector for a device on its right edge.
func rolledSample(at time.Time) sample.Raw {
	return sample.Raw{X: 0, Y: 1, Z: 0, At: at}
}

func TestPipelineLifecycleSentinels(t *testing.T) {
	t.Parallel()

	rec := &eventRecorder{}
	p, err := New(Config{WindowSize: 2}, rec, nil)
	require.NoError(t, err)

	err = p.Feed(sample.Accelerometer, flatSample(time.Now()))
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, p.Start())
	assert.ErrorIs(t, p.Start(), ErrStarted)

	p.Stop()
	err = p.Feed(sample.Accelerometer, flatSample(time.Now()))
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, p.Start(), ErrStopped)
}

func TestPipelineRejectsUnknownChannel(t *testing.T) {
	t.Parallel()

	p, err := New(Config{}, DelivererFunc(func(Event) {}), nil)
	require.NoError(t, err)
	require.NoError(t, p.Start())

	err = p.Feed(sample.Channel("thermometer"), flatSample(time.Now()))
	assert.Error(t, err)
}

func TestPipelineDeliversOneEventPerFullWindow(t *testing.T) {
	t.Parallel()

	rec := &eventRecorder{}
	p, err := New(Config{WindowSize: 3}, rec, nil)
	require.NoError(t, err)
	require.NoError(t, p.Start())

	at := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Feed(sample.Accelerometer, flatSample(at.Add(time.Duration(i)*10*time.Millisecond))))
	}

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, orientation.Flat, events[0].State)
	assert.InDelta(t, 0, events[0].Coordinate.X, 1e-9)
	assert.True(t, events[0].At.Equal(at.Add(20*time.Millisecond)), "event carries the triggering sample's timestamp")

	// Next window starts empty: two more pushes do not emit.
	p.Feed(sample.Accelerometer, rolledSample(at))
	p.Feed(sample.Accelerometer, rolledSample(at))
	assert.Len(t, rec.all(), 1)

	p.Feed(sample.Accelerometer, rolledSample(at))
	events = rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, orientation.Vertical, events[1].State)
}

func TestPipelineStopDropsPartialWindow(t *testing.T) {
	t.Parallel()

	rec := &eventRecorder{}
	p, err := New(Config{WindowSize: 5}, rec, nil)
	require.NoError(t, err)
	require.NoError(t, p.Start())

	require.NoError(t, p.Feed(sample.Accelerometer, flatSample(time.Now())))
	p.Stop()
	assert.Empty(t, rec.all(), "partial window must be discarded, not flushed")

	// A fresh pipeline starts with an empty window, not a residual one.
	rec2 := &eventRecorder{}
	p2, err := New(Config{WindowSize: 5}, rec2, nil)
	require.NoError(t, err)
	require.NoError(t, p2.Start())
	for i := 0; i < 4; i++ {
		require.NoError(t, p2.Feed(sample.Accelerometer, flatSample(time.Now())))
	}
	assert.Empty(t, rec2.all())
	require.NoError(t, p2.Feed(sample.Accelerometer, flatSample(time.Now())))
	assert.Len(t, rec2.all(), 1)
}

func TestPipelineJitterDiagnostics(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		got   []JitterStats
		chans []sample.Channel
	)
	diag := func(ch sample.Channel, s JitterStats) {
		mu.Lock()
		got = append(got, s)
		chans = append(chans, ch)
		mu.Unlock()
	}

	p, err := New(Config{WindowSize: 100, RingSize: 3}, DelivererFunc(func(Event) {}), diag)
	require.NoError(t, err)
	require.NoError(t, p.Start())

	// 4 samples at a steady 10ms period produce 3 deltas, filling the ring.
	at := time.Now()
	for i := 0; i < 4; i++ {
		require.NoError(t, p.Feed(sample.Magnetometer, flatSample(at.Add(time.Duration(i)*10*time.Millisecond))))
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, sample.Magnetometer, chans[0])
	assert.Equal(t, 3, got[0].Count)
	assert.InDelta(t, 10, got[0].Mean, 1e-6)
	assert.InDelta(t, 10, got[0].Min, 1e-6)
	assert.InDelta(t, 10, got[0].Max, 1e-6)
}

// A diagnostics sink that hangs mid-call must not hold up event delivery
// on another channel; it is a side channel off the primary path.
func TestPipelineSlowDiagnosticsDoesNotDelayDelivery(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	diag := func(sample.Channel, JitterStats) {
		close(entered)
		<-release
	}

	rec := &eventRecorder{}
	p, err := New(Config{WindowSize: 3, RingSize: 3}, rec, diag)
	require.NoError(t, err)
	require.NoError(t, p.Start())

	at := time.Now()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// 4 samples produce 3 deltas; the ring fills on the 4th feed and
		// the goroutine parks inside the diagnostics callback.
		for i := 0; i < 4; i++ {
			assert.NoError(t, p.Feed(sample.Magnetometer, rolledSample(at.Add(time.Duration(i)*10*time.Millisecond))))
		}
	}()
	<-entered

	// The other channel's full window must still deliver while the
	// diagnostics callback hangs.
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Feed(sample.Accelerometer, flatSample(at.Add(time.Duration(i)*10*time.Millisecond))))
	}

	events := rec.all()
	require.Len(t, events, 2) // the magnetometer window filled before its ring did
	assert.Equal(t, orientation.Flat, events[1].State)

	close(release)
	wg.Wait()
}

// Two channels concurrently filling their windows must produce exactly two
// events, each from a fully applied state-machine update.
func TestPipelineConcurrentChannels(t *testing.T) {
	t.Parallel()

	const window = 50
	rec := &eventRecorder{}
	p, err := New(Config{WindowSize: window}, rec, nil)
	require.NoError(t, err)
	require.NoError(t, p.Start())

	var wg sync.WaitGroup
	feed := func(ch sample.Channel, s func(time.Time) sample.Raw) {
		defer wg.Done()
		at := time.Now()
		for i := 0; i < window; i++ {
			assert.NoError(t, p.Feed(ch, s(at.Add(time.Duration(i)*time.Millisecond))))
		}
	}

	wg.Add(2)
	go feed(sample.Accelerometer, flatSample)
	go feed(sample.Magnetometer, rolledSample)
	wg.Wait()

	events := rec.all()
	require.Len(t, events, 2)
	states := map[orientation.State]bool{}
	for _, e := range events {
		states[e.State] = true
	}
	// One flat window and one vertical window, in either order.
	assert.True(t, states[orientation.Flat])
	assert.True(t, states[orientation.Vertical])
}
