package gesture_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdblocks/pkg/gesture"
	"github.com/yaklabco/mdblocks/pkg/schedule"
)

func newTracker(t *testing.T) (*gesture.Tracker, *schedule.ManualClock) {
	t.Helper()

	clock := schedule.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return gesture.NewTracker(gesture.WithClock(clock)), clock
}

func TestTrackerTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input func(*gesture.Tracker)
		want  gesture.State
	}{
		{"pointer down with buttons", func(tr *gesture.Tracker) { tr.PointerDown(1) }, gesture.Selecting},
		{"pointer down without buttons", func(tr *gesture.Tracker) { tr.PointerDown(0) }, gesture.Idle},
		{"shift down", func(tr *gesture.Tracker) { tr.KeyDown("Shift") }, gesture.Selecting},
		{"other key down", func(tr *gesture.Tracker) { tr.KeyDown("a") }, gesture.Idle},
		{"pointer up", func(tr *gesture.Tracker) { tr.PointerDown(1); tr.PointerUp() }, gesture.Idle},
		{"pointer cancel", func(tr *gesture.Tracker) { tr.PointerDown(1); tr.PointerCancel() }, gesture.Idle},
		{"drag end", func(tr *gesture.Tracker) { tr.PointerDown(1); tr.DragEnd() }, gesture.Idle},
		{"blur", func(tr *gesture.Tracker) { tr.PointerDown(1); tr.KeyDown("Shift"); tr.Blur() }, gesture.Idle},
		{"shift up", func(tr *gesture.Tracker) { tr.KeyDown("Shift"); tr.KeyUp("Shift") }, gesture.Idle},
		{"pointer up keeps shift", func(tr *gesture.Tracker) {
			tr.KeyDown("Shift")
			tr.PointerDown(1)
			tr.PointerUp()
		}, gesture.Selecting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, _ := newTracker(t)
			tt.input(tr)
			assert.Equal(t, tt.want, tr.State())
			assert.Equal(t, tt.want == gesture.Selecting, tr.IsSelectingNow())
		})
	}
}

func TestTailWindowOutlivesGestureEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		end  func(*gesture.Tracker)
	}{
		{"pointer up", func(tr *gesture.Tracker) { tr.PointerUp() }},
		{"pointer cancel", func(tr *gesture.Tracker) { tr.PointerCancel() }},
		{"drag end", func(tr *gesture.Tracker) { tr.DragEnd() }},
		{"blur", func(tr *gesture.Tracker) { tr.Blur() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, clock := newTracker(t)
			tr.PointerDown(1)
			tr.SelectionChanged()
			clock.Advance(10 * time.Millisecond)
			assert.Zero(t, tr.SettlesIn(), "an engaged gesture settles by notification")

			tt.end(tr)
			assert.Equal(t, gesture.Idle, tr.State())
			assert.True(t, tr.IsSelectingNow(), "inside the tail after the gesture ended")
			assert.Equal(t, 130*time.Millisecond, tr.SettlesIn())

			clock.Advance(129 * time.Millisecond)
			assert.True(t, tr.IsSelectingNow())

			clock.Advance(time.Millisecond)
			assert.False(t, tr.IsSelectingNow())
			assert.Zero(t, tr.SettlesIn())
		})
	}
}

func TestTailWindowAfterShiftRelease(t *testing.T) {
	t.Parallel()

	tr, clock := newTracker(t)
	tr.KeyDown("Shift")
	tr.SelectionChanged()
	clock.Advance(200 * time.Millisecond)
	assert.True(t, tr.IsSelectingNow(), "shift is still held")

	tr.SelectionChanged()
	tr.KeyUp("Shift")
	assert.True(t, tr.IsSelectingNow())
	assert.Equal(t, gesture.DefaultTailWindow, tr.SettlesIn())

	clock.Advance(gesture.DefaultTailWindow)
	assert.False(t, tr.IsSelectingNow())
}

func TestTailWindowAfterCaretMove(t *testing.T) {
	t.Parallel()

	clock := schedule.NewManualClock(time.Unix(0, 0))
	tr := gesture.NewTracker(gesture.WithClock(clock), gesture.WithTailWindow(50*time.Millisecond))
	assert.False(t, tr.IsSelectingNow(), "no selection change yet")

	tr.SelectionChanged()
	clock.Advance(30 * time.Millisecond)
	tr.SelectionChanged()

	clock.Advance(49 * time.Millisecond)
	assert.True(t, tr.IsSelectingNow(), "each change restarts the tail")
	assert.Equal(t, gesture.Idle, tr.State())

	clock.Advance(time.Millisecond)
	assert.False(t, tr.IsSelectingNow())
}

func TestZeroTailWindow(t *testing.T) {
	t.Parallel()

	clock := schedule.NewManualClock(time.Unix(0, 0))
	tr := gesture.NewTracker(gesture.WithClock(clock), gesture.WithTailWindow(0))

	tr.PointerDown(1)
	tr.SelectionChanged()
	tr.PointerUp()
	assert.False(t, tr.IsSelectingNow())
	assert.Zero(t, tr.SettlesIn())
}

func TestGestureEndNotifiesRegisteredViews(t *testing.T) {
	t.Parallel()

	tr, _ := newTracker(t)

	var calls []string
	first := tr.Register(func() { calls = append(calls, "first") })
	tr.Register(func() { calls = append(calls, "second") })
	require.Equal(t, 2, tr.Views())
	assert.NotEqual(t, first.ID.String(), "")

	tr.PointerDown(1)
	tr.PointerUp()
	assert.Equal(t, []string{"first", "second"}, calls)

	tr.Unregister(first)
	tr.Unregister(first)
	tr.Blur()
	assert.Equal(t, []string{"first", "second", "second"}, calls)
	assert.Equal(t, 1, tr.Views())
	assert.Equal(t, 2, tr.Ends())
}

func TestIndependentTrackersDoNotShareState(t *testing.T) {
	t.Parallel()

	a, _ := newTracker(t)
	b, _ := newTracker(t)

	a.PointerDown(1)
	assert.True(t, a.IsSelectingNow())
	assert.False(t, b.IsSelectingNow())
}
