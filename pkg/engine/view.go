// Package engine is the block-decoration engine: a text view that scans its
// document for blocks, decides which show their rendered form, keeps
// widgets (including nested editable views) in sync with the text, and
// routes nested edits back into the document.
//
// A View is single-threaded. Call it from one goroutine, the same one that
// drives its Executor.
package engine

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/gesture"
	"github.com/yaklabco/mdblocks/pkg/schedule"
	"github.com/yaklabco/mdblocks/pkg/surface"
	"github.com/yaklabco/mdblocks/pkg/syncbridge"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
	"github.com/yaklabco/mdblocks/pkg/visibility"
)

// ErrClosed is returned when dispatching to a closed view.
var ErrClosed = errors.New("view is closed")

// State is an immutable editor state.
type State struct {
	Doc       *textdoc.Document
	Selection textdoc.Selection
}

// Transaction is an atomic update. Changes apply to the current document;
// a nil Selection maps the current selection through them.
type Transaction struct {
	Changes   textdoc.ChangeSet
	Selection *textdoc.Selection
}

// Update describes what a dispatch or redraw changed.
type Update struct {
	Prev    State
	State   State
	Changes textdoc.ChangeSet

	DocChanged       bool
	SelectionChanged bool

	// Redraw is set when only widget rendering changed.
	Redraw bool
}

// View is an editor view over one document.
type View struct {
	opts options

	state   State
	cache   *blocks.Cache
	bridge  *syncbridge.Bridge
	tracker *gesture.Tracker
	handle  gesture.Handle
	policy  *visibility.Policy
	sched   *schedule.Scheduler
	deps    surface.Deps
	kinds   map[blocks.Kind]bool
	logger  *log.Logger

	overlay   Overlay
	mounted   []*mounted
	listeners map[int]func(Update)
	nextID    int
	rebuilds  int
	closed    bool
}

type mounted struct {
	widget surface.Widget
	key    *syncbridge.Mount
}

// New creates a view over text with the caret at the start, and builds its
// first overlay. Nested views start without a caret.
func New(text string, opts ...Option) *View {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.executor == nil {
		o.executor = schedule.NewLoop()
	}
	if o.tracker == nil {
		o.tracker = gesture.NewTracker(
			gesture.WithClock(o.clock),
			gesture.WithTailWindow(o.tailWindow),
		)
	}
	if o.styles == nil {
		o.styles = surface.NewStyles(false)
	}

	// Nested views hold no caret until the user places one in them.
	sel := textdoc.Single(textdoc.Cursor(0))
	if o.nested {
		sel = textdoc.Selection{}
	}

	v := &View{
		opts: o,
		state: State{
			Doc:       textdoc.New(text),
			Selection: sel,
		},
		cache:     blocks.NewCache(),
		tracker:   o.tracker,
		policy:    visibility.New(o.tracker),
		logger:    o.logger,
		listeners: make(map[int]func(Update)),
		kinds:     make(map[blocks.Kind]bool, len(o.extensions)),
	}
	for _, ext := range o.extensions {
		v.kinds[ext.Kind] = true
	}

	v.bridge = syncbridge.New(v.cache,
		syncbridge.WithScope(o.scope),
		syncbridge.WithLogger(o.logger),
	)
	v.sched = schedule.New(o.executor, v.Rebuild,
		schedule.WithClock(o.clock),
		schedule.WithDebounce(o.debounce),
	)
	v.deps = surface.Deps{
		Host:        v,
		Factory:     v,
		Highlighter: o.highlighter,
		Clipboard:   o.clipboard,
		Executor:    o.executor,
		Styles:      o.styles,
		LineHeight:  o.lineHeight,
		Logger:      o.logger,
	}
	if o.syncHighlight {
		v.deps.Executor = nil
	}
	v.handle = v.tracker.Register(v.sched.GestureEnded)

	v.Rebuild()
	return v
}

// State returns the current state.
func (v *View) State() State {
	return v.state
}

// Doc returns the current document.
func (v *View) Doc() *textdoc.Document {
	return v.state.Doc
}

// Text returns the current document text.
func (v *View) Text() string {
	return v.state.Doc.String()
}

// Selection returns the current selection.
func (v *View) Selection() textdoc.Selection {
	return v.state.Selection
}

// Tracker returns the gesture tracker the view reads.
func (v *View) Tracker() *gesture.Tracker {
	return v.tracker
}

// Scheduler returns the view's rebuild scheduler.
func (v *View) Scheduler() *schedule.Scheduler {
	return v.sched
}

// Executor returns the executor the view posts rebuilds to. Unless
// WithExecutor supplied one it is a *schedule.Loop owned by the caller,
// who must drive it for debounced rebuilds to run.
func (v *View) Executor() schedule.Executor {
	return v.opts.executor
}

// Cache returns the view's span cache.
func (v *View) Cache() *blocks.Cache {
	return v.cache
}

// IsNested reports whether the view is a nested surface.
func (v *View) IsNested() bool {
	return v.opts.nested
}

// Rebuilds returns how many times the overlay was rebuilt.
func (v *View) Rebuilds() int {
	return v.rebuilds
}

// OnUpdate registers a listener and returns a function that removes it.
func (v *View) OnUpdate(fn func(Update)) func() {
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return func() { delete(v.listeners, id) }
}

// Dispatch applies tr atomically, then schedules a rebuild: immediately
// for selection-only updates, debounced for text changes.
func (v *View) Dispatch(tr Transaction) error {
	if v.closed {
		return ErrClosed
	}

	prev := v.state
	doc, err := tr.Changes.Apply(prev.Doc)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	sel := prev.Selection.Map(tr.Changes)
	if tr.Selection != nil {
		sel = *tr.Selection
	}
	sel = sel.Clamp(doc.Len())

	docChanged := !tr.Changes.Empty()
	selChanged := !sel.Equal(prev.Selection)
	if !docChanged && !selChanged {
		return nil
	}

	v.state = State{Doc: doc, Selection: sel}
	if docChanged {
		v.bridge.Map(tr.Changes)
		v.overlay = v.overlay.mapped(doc, tr.Changes)
	}
	// A caret carried along by typing is not a selection gesture.
	if selChanged && !docChanged {
		v.tracker.SelectionChanged()
	}

	v.notify(Update{
		Prev:             prev,
		State:            v.state,
		Changes:          tr.Changes,
		DocChanged:       docChanged,
		SelectionChanged: selChanged,
	})

	if v.closed {
		return nil
	}
	if docChanged {
		v.sched.DocChanged()
	} else {
		v.sched.SelectionChanged()
	}
	return nil
}

// SetSelection moves the selection without changing text.
func (v *View) SetSelection(sel textdoc.Selection) error {
	return v.Dispatch(Transaction{Selection: &sel})
}

// ReplaceAll replaces the whole document with text.
func (v *View) ReplaceAll(text string) error {
	cs, err := textdoc.Replace(v.state.Doc, 0, v.state.Doc.Len(), text)
	if err != nil {
		return fmt.Errorf("replace all: %w", err)
	}
	return v.Dispatch(Transaction{Changes: cs})
}

// HandleEnter runs the extensions' Enter handlers in order. It returns
// false when none applied, leaving the newline to the host.
func (v *View) HandleEnter() (bool, error) {
	for _, ext := range v.opts.extensions {
		if ext.Enter == nil {
			continue
		}
		tr, ok := ext.Enter(v.state)
		if !ok {
			continue
		}
		return true, v.Dispatch(tr)
	}
	return false, nil
}

// MoveCaret places a collapsed caret at pos.
func (v *View) MoveCaret(pos int) {
	if err := v.SetSelection(textdoc.Single(textdoc.Cursor(pos))); err != nil {
		v.logger.Debug("move caret", "pos", pos, "error", err)
	}
}

// Invalidate notifies listeners that a widget redrew on its own.
func (v *View) Invalidate() {
	if v.closed {
		return
	}
	v.notify(Update{Prev: v.state, State: v.state, Redraw: true})
}

// Close destroys every widget and detaches from the tracker.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.sched.Close()
	v.tracker.Unregister(v.handle)
	for _, m := range v.mounted {
		m.widget.Destroy()
		v.bridge.Unmount(m.key)
	}
	v.mounted = nil
	v.overlay = Overlay{Doc: v.state.Doc}
	v.listeners = map[int]func(Update){}
}

// Closed reports whether Close was called.
func (v *View) Closed() bool {
	return v.closed
}

func (v *View) notify(u Update) {
	for id := 0; id < v.nextID; id++ {
		if fn, ok := v.listeners[id]; ok {
			fn(u)
		}
	}
	if v.opts.onChange != nil && u.DocChanged {
		v.opts.onChange(u.State.Doc.String())
	}
}
