package schedule

import (
	"context"
	"sync"
	"time"
)

// DefaultFrameInterval is the frame period used by Loop.Run.
const DefaultFrameInterval = 16 * time.Millisecond

// Executor runs work on the engine's goroutine.
type Executor interface {
	// Post queues fn to run on the engine goroutine.
	Post(fn func())

	// RequestFrame queues fn to run at the next frame.
	RequestFrame(fn func())
}

// Loop is a single-goroutine executor. Work posted from any goroutine runs
// on whichever goroutine drives the loop, either Run or RunPending.
type Loop struct {
	mu     sync.Mutex
	posted []func()
	frames []func()
	wake   chan struct{}

	frameInterval time.Duration
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{
		wake:          make(chan struct{}, 1),
		frameInterval: DefaultFrameInterval,
	}
}

// Post queues fn. It is safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// RequestFrame queues fn for the next frame. It is safe to call from any
// goroutine.
func (l *Loop) RequestFrame(fn func()) {
	l.mu.Lock()
	l.frames = append(l.frames, fn)
	l.mu.Unlock()
}

// RunPending runs every posted callback, including ones posted while
// draining, and returns how many ran.
func (l *Loop) RunPending() int {
	ran := 0
	for {
		l.mu.Lock()
		batch := l.posted
		l.posted = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
			ran++
		}
	}
}

// Frame runs the callbacks queued before the frame started, then drains
// posted work they produced.
func (l *Loop) Frame() int {
	l.mu.Lock()
	batch := l.frames
	l.frames = nil
	l.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch) + l.RunPending()
}

// Run drives the loop until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.RunPending()
		case <-ticker.C:
			l.RunPending()
			l.Frame()
		}
	}
}
