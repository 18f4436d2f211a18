package orientation

import "math"

// State is one discrete orientation region. The set is closed: every
// coordinate classifies into exactly one of these.
type State string

const (
	Unknown       State = "unknown"
	Flat          State = "flat"
	TiltedLeft    State = "tilted-left"
	TiltedRight   State = "tilted-right"
	TiltedForward State = "tilted-forward"
	TiltedBack    State = "tilted-back"
	Vertical      State = "vertical"
)

// Classification thresholds in degrees of tilt on the dominant axis.
const (
	flatLimit     = 10.0
	verticalLimit = 75.0
)

// Classify maps a coordinate to its orientation region. Boundaries resolve
// upward: exactly flatLimit degrees is tilted, exactly verticalLimit is
// vertical. An exact tie between the two axes classifies on roll. NaN
// coordinates (degenerate sensor input) classify as Unknown rather than
// crashing.
func Classify(c Coordinate) State {
	if math.IsNaN(c.X) || math.IsNaN(c.Y) {
		return Unknown
	}

	ax := math.Abs(c.X)
	ay := math.Abs(c.Y)

	switch m := math.Max(ax, ay); {
	case m < flatLimit:
		return Flat
	case m >= verticalLimit:
		return Vertical
	}

	if ax >= ay {
		if c.X > 0 {
			return TiltedRight
		}
		return TiltedLeft
	}
	if c.Y > 0 {
		return TiltedForward
	}
	return TiltedBack
}

// StateMachine caches the current and previous orientation between updates
// so transitions are observable. Classification itself is stateless; the
// cache exists only for comparison and reporting. Not safe for concurrent
// use, callers serialize Update.
type StateMachine struct {
	current  State
	previous State
}

// NewStateMachine returns a machine in the Unknown state.
func NewStateMachine() *StateMachine {
	return &StateMachine{current: Unknown, previous: Unknown}
}

// Update classifies the coordinate, caches the result as the current state,
// and returns it. Any state can follow any other; there is no terminal
// state and no-change transitions are not suppressed here.
func (m *StateMachine) Update(c Coordinate) State {
	m.previous = m.current
	m.current = Classify(c)
	return m.current
}

// Orientation returns the state cached by the last Update.
func (m *StateMachine) Orientation() State {
	return m.current
}

// Previous returns the state that was current before the last Update.
func (m *StateMachine) Previous() State {
	return m.previous
}
