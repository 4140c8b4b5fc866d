// Package zoom turns brush gestures over the plot area into time-window changes.
//
// The controller is a two-state machine. Idle is the resting state. An empty
// selection (a click without drag) moves it to PendingReset and arms a
// one-shot timer; when the timer fires the window resets to the full data
// extent. Further empty selections while PendingReset are ignored, and a
// non-empty selection cancels the pending reset.
//
// Clearing the brush after a zoom re-fires brush end with an empty selection
// synchronously. That echo is swallowed by an explicit guard instead of being
// mistaken for a reset request.
package zoom

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/precip-chart/internal/scale"
)

// DefaultResetDelay is the debounce before an empty selection resets the zoom.
const DefaultResetDelay = 350 * time.Millisecond

// State is the controller state.
type State int

const (
	Idle State = iota
	PendingReset
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingReset:
		return "pending_reset"
	default:
		return "unknown"
	}
}

// Outcome reports what a brush end did.
type Outcome int

const (
	Ignored Outcome = iota
	Zoomed
	ResetArmed
)

func (o Outcome) String() string {
	switch o {
	case Zoomed:
		return "zoomed"
	case ResetArmed:
		return "reset_armed"
	default:
		return "ignored"
	}
}

// Selection is a brushed pixel range. A nil *Selection is an empty selection.
type Selection struct {
	X0, X1 float64
}

// Empty reports whether the selection has no extent.
func (s *Selection) Empty() bool {
	return s == nil || s.X0 == s.X1
}

// Target owns the time window the controller manipulates.
type Target interface {
	// TimeScale returns the current horizontal scale.
	TimeScale() scale.Time
	// SetTimeDomain narrows the window and starts a transition.
	SetTimeDomain(start, end time.Time)
	// ResetTimeDomain restores the full data extent and starts a transition.
	ResetTimeDomain()
}

// Brush is the selection overlay. Clearing it notifies the listener with an
// empty selection, the same way a user-initiated brush end would.
type Brush struct {
	selection *Selection
	onEnd     func(*Selection) Outcome
}

// Selection returns the current overlay selection, or nil.
func (b *Brush) Selection() *Selection { return b.selection }

// Clear removes the overlay selection and fires brush end.
func (b *Brush) Clear() {
	b.selection = nil
	if b.onEnd != nil {
		b.onEnd(nil)
	}
}

// Controller is the zoom state machine. Its lock is always taken before any
// lock inside the Target.
type Controller struct {
	mu       sync.Mutex
	target   Target
	clock    clockwork.Clock
	delay    time.Duration
	state    State
	clearing bool
	timer    clockwork.Timer
	armed    uint64
	brush    Brush
	onReset  func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for the reset timer.
func WithClock(c clockwork.Clock) Option {
	return func(z *Controller) { z.clock = c }
}

// WithResetDelay sets the debounce before an empty selection resets.
func WithResetDelay(d time.Duration) Option {
	return func(z *Controller) { z.delay = d }
}

// WithResetHook registers a function called after a timer-driven reset.
func WithResetHook(fn func()) Option {
	return func(z *Controller) { z.onReset = fn }
}

// New creates an idle controller for the target.
func New(target Target, opts ...Option) *Controller {
	z := &Controller{
		target: target,
		clock:  clockwork.NewRealClock(),
		delay:  DefaultResetDelay,
	}
	for _, opt := range opts {
		opt(z)
	}
	z.brush.onEnd = z.end
	return z
}

// State returns the current state.
func (z *Controller) State() State {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.state
}

// BrushEnd handles the end of a brush gesture. A selection with a NaN
// bound is ignored and leaves any pending reset armed.
func (z *Controller) BrushEnd(sel *Selection) Outcome {
	z.mu.Lock()
	defer z.mu.Unlock()
	if sel != nil && (math.IsNaN(sel.X0) || math.IsNaN(sel.X1)) {
		return Ignored
	}
	if !sel.Empty() {
		z.brush.selection = sel
	}
	return z.end(sel)
}

// end runs with z.mu held. It is re-entered from brush.Clear.
func (z *Controller) end(sel *Selection) Outcome {
	if sel.Empty() {
		if z.clearing || z.state == PendingReset {
			return Ignored
		}
		z.state = PendingReset
		z.armed++
		gen := z.armed
		z.timer = z.clock.AfterFunc(z.delay, func() { z.fire(gen) })
		return ResetArmed
	}

	if z.timer != nil {
		z.timer.Stop()
		z.timer = nil
	}

	x := z.target.TimeScale()
	r0, r1 := x.Range()
	lo, hi := math.Min(sel.X0, sel.X1), math.Max(sel.X0, sel.X1)
	lo, hi = clamp(lo, r0, r1), clamp(hi, r0, r1)
	if lo == hi {
		z.state = Idle
		return Ignored
	}
	start, end := x.Invert(lo), x.Invert(hi)
	z.target.SetTimeDomain(start, end)

	z.clearing = true
	z.brush.Clear()
	z.clearing = false

	z.state = Idle
	return Zoomed
}

func (z *Controller) fire(gen uint64) {
	z.mu.Lock()
	if z.state != PendingReset || gen != z.armed {
		z.mu.Unlock()
		return
	}
	z.target.ResetTimeDomain()
	z.state = Idle
	z.timer = nil
	hook := z.onReset
	z.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Stop cancels a pending reset.
func (z *Controller) Stop() {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.timer != nil {
		z.timer.Stop()
		z.timer = nil
	}
	z.state = Idle
}

func clamp(v, a, b float64) float64 {
	lo, hi := math.Min(a, b), math.Max(a, b)
	return math.Max(lo, math.Min(hi, v))
}
