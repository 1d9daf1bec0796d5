// Package gesture tracks selection-forming gestures (pointer drags and
// Shift-extended selections) across every view composed with one Tracker.
package gesture

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yaklabco/mdblocks/pkg/schedule"
)

// DefaultTailWindow is how long a selection change keeps the gate
// selecting.
const DefaultTailWindow = 140 * time.Millisecond

// ShiftKey is the key name that extends selections.
const ShiftKey = "Shift"

// State is the gesture state.
type State uint8

const (
	// Idle means no gesture is engaged.
	Idle State = iota
	// Selecting means a pointer button or Shift is held.
	Selecting
)

func (s State) String() string {
	if s == Selecting {
		return "selecting"
	}
	return "idle"
}

// Handle identifies a registered view.
type Handle struct {
	ID uuid.UUID
}

// Tracker is the single writer of gesture state. Hosts feed it
// window-level input; views read IsSelectingNow and register to be told
// when a gesture ends.
//
// A Tracker is safe for concurrent use. Listeners run on the goroutine that
// delivered the ending event, outside the tracker's lock.
type Tracker struct {
	mu sync.Mutex

	clock schedule.Clock
	tail  time.Duration

	pointer bool
	shift   bool

	// lastChange is the time of the last selection change. Zero until the
	// first one.
	lastChange time.Time

	listeners map[uuid.UUID]func()
	order     []uuid.UUID

	ends int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the clock used for the tail window.
func WithClock(c schedule.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithTailWindow sets the tail window.
func WithTailWindow(d time.Duration) Option {
	return func(t *Tracker) {
		if d >= 0 {
			t.tail = d
		}
	}
}

// NewTracker creates an idle tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		clock:     schedule.RealClock{},
		tail:      DefaultTailWindow,
		listeners: make(map[uuid.UUID]func()),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register adds a listener called whenever a gesture ends.
func (t *Tracker) Register(onEnd func()) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := uuid.New()
	t.listeners[id] = onEnd
	t.order = append(t.order, id)
	return Handle{ID: id}
}

// Unregister removes a listener. Unknown handles are ignored.
func (t *Tracker) Unregister(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.listeners[h.ID]; !ok {
		return
	}
	delete(t.listeners, h.ID)
	for i, id := range t.order {
		if id == h.ID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Views returns the number of registered views.
func (t *Tracker) Views() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// PointerDown records a pointer press. A press with no buttons engaged does
// not start a gesture.
func (t *Tracker) PointerDown(buttons int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pointer = buttons != 0
}

// PointerUp ends a pointer gesture.
func (t *Tracker) PointerUp() { t.end(false) }

// PointerCancel ends a pointer gesture.
func (t *Tracker) PointerCancel() { t.end(false) }

// DragEnd ends a pointer gesture.
func (t *Tracker) DragEnd() { t.end(false) }

// Blur ends any gesture; the window lost focus so release events may never
// arrive.
func (t *Tracker) Blur() { t.end(true) }

// KeyDown records a key press.
func (t *Tracker) KeyDown(key string) {
	if key != ShiftKey {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shift = true
}

// KeyUp records a key release. Releasing Shift ends a keyboard gesture.
func (t *Tracker) KeyUp(key string) {
	if key != ShiftKey {
		return
	}
	t.end(true)
}

// SelectionChanged records a selection update from any view and restarts
// the tail window.
func (t *Tracker) SelectionChanged() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastChange = t.clock.Now()
}

// State returns the engaged state, ignoring the tail window.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pointer || t.shift {
		return Selecting
	}
	return Idle
}

// IsSelectingNow reports whether a gesture is engaged or the last selection
// change is still inside the tail window.
func (t *Tracker) IsSelectingNow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pointer || t.shift {
		return true
	}
	return t.tailLocked() > 0
}

// SettlesIn returns how long until IsSelectingNow turns false on its own:
// the rest of the tail window. It is zero when the gate is already idle
// and while a gesture is engaged, since that ends with a notification.
func (t *Tracker) SettlesIn() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pointer || t.shift {
		return 0
	}
	return t.tailLocked()
}

func (t *Tracker) tailLocked() time.Duration {
	if t.lastChange.IsZero() {
		return 0
	}
	return max(0, t.tail-t.clock.Now().Sub(t.lastChange))
}

// Ends returns how many gesture ends have been observed.
func (t *Tracker) Ends() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ends
}

// end clears the engaged flags, then notifies every view. The tail window
// keeps running. releaseShift is false for pointer events, which leave a
// held Shift alone.
func (t *Tracker) end(releaseShift bool) {
	t.mu.Lock()
	t.pointer = false
	if releaseShift {
		t.shift = false
	}
	t.ends++

	listeners := make([]func(), 0, len(t.order))
	for _, id := range t.order {
		listeners = append(listeners, t.listeners[id])
	}
	t.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
