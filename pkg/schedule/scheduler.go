package schedule

import "time"

// DefaultDebounce is the quiet delay after a text change before rebuilding.
const DefaultDebounce = 10 * time.Millisecond

// Scheduler decides when a view rebuilds its overlay.
//
// At most one debounced task is in flight: every new trigger cancels the
// previous one before scheduling its own. A generation counter guards
// against a timer that fired concurrently with its cancellation.
//
// Scheduler is not safe for concurrent use; call it from the goroutine that
// drives its Executor.
type Scheduler struct {
	clock    Clock
	exec     Executor
	debounce time.Duration
	rebuild  func()

	pending     Timer
	generation  uint64
	settle      Timer
	settleGen   uint64
	frameQueued bool
	closed      bool

	stats Stats
}

// Stats counts rebuilds by trigger.
type Stats struct {
	Immediate int
	Debounced int
	Frame     int
	Settled   int
	Canceled  int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used for debouncing.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithDebounce sets the text-change quiet delay.
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// New creates a scheduler that calls rebuild on exec's goroutine.
func New(exec Executor, rebuild func(), opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:    RealClock{},
		exec:     exec,
		debounce: DefaultDebounce,
		rebuild:  rebuild,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectionChanged rebuilds immediately; selection-only updates are cheap
// and must feel instant.
func (s *Scheduler) SelectionChanged() {
	if s.closed {
		return
	}
	s.cancel()
	s.stats.Immediate++
	s.rebuild()
}

// DocChanged schedules a rebuild after the debounce delay, replacing any
// rebuild already pending.
func (s *Scheduler) DocChanged() {
	if s.closed {
		return
	}
	s.cancel()

	gen := s.generation
	s.pending = s.clock.AfterFunc(s.debounce, func() {
		s.exec.Post(func() {
			if s.closed || gen != s.generation {
				return
			}
			s.pending = nil
			s.stats.Debounced++
			s.rebuild()
		})
	})
}

// GestureEnded rebuilds on the next frame and supersedes a pending debounce.
func (s *Scheduler) GestureEnded() {
	if s.closed {
		return
	}
	s.cancel()
	if s.frameQueued {
		return
	}

	s.frameQueued = true
	s.exec.RequestFrame(func() {
		s.frameQueued = false
		if s.closed {
			return
		}
		s.stats.Frame++
		s.rebuild()
	})
}

// SettleAfter rebuilds once d has elapsed, replacing any settle rebuild
// already armed. Views use it to rebuild when the gesture tail window runs
// out. It is independent of the debounce, which it never cancels.
func (s *Scheduler) SettleAfter(d time.Duration) {
	if s.closed {
		return
	}
	s.cancelSettle()

	gen := s.settleGen
	s.settle = s.clock.AfterFunc(d, func() {
		s.exec.Post(func() {
			if s.closed || gen != s.settleGen {
				return
			}
			s.settle = nil
			s.stats.Settled++
			s.rebuild()
		})
	})
}

// Settling reports whether a settle rebuild is armed.
func (s *Scheduler) Settling() bool {
	return s.settle != nil
}

// Pending reports whether a debounced rebuild is waiting.
func (s *Scheduler) Pending() bool {
	return s.pending != nil
}

// Stats returns rebuild counts.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// Close cancels pending work; later triggers are ignored.
func (s *Scheduler) Close() {
	s.cancel()
	s.cancelSettle()
	s.closed = true
}

func (s *Scheduler) cancelSettle() {
	s.settleGen++
	if s.settle != nil {
		s.settle.Stop()
		s.settle = nil
	}
}

func (s *Scheduler) cancel() {
	s.generation++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
		s.stats.Canceled++
	}
}
