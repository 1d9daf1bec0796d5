package engine

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/mdblocks/pkg/config"
	"github.com/yaklabco/mdblocks/pkg/gesture"
	"github.com/yaklabco/mdblocks/pkg/schedule"
	"github.com/yaklabco/mdblocks/pkg/surface"
	"github.com/yaklabco/mdblocks/pkg/syncbridge"
)

type options struct {
	tracker     *gesture.Tracker
	clock       schedule.Clock
	executor    schedule.Executor
	highlighter surface.Highlighter
	clipboard   surface.Clipboard
	styles      *surface.Styles
	logger      *log.Logger
	extensions  []Extension

	debounce   time.Duration
	tailWindow time.Duration
	lineHeight int
	scope      syncbridge.Scope

	nested        bool
	onChange      func(text string)
	syncHighlight bool
}

// Option configures a View.
type Option func(*options)

// WithTracker composes the view with a shared gesture tracker. Views built
// without one get their own.
func WithTracker(t *gesture.Tracker) Option {
	return func(o *options) { o.tracker = t }
}

// WithClock sets the clock used for debouncing and the gesture tail.
func WithClock(c schedule.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithExecutor sets where timer and highlight callbacks run. The host must
// drive it on the goroutine that owns the view.
func WithExecutor(e schedule.Executor) Option {
	return func(o *options) { o.executor = e }
}

// WithSyncHighlight makes code widgets highlight while they are built
// instead of posting the work to the executor. One-shot renderers use it.
func WithSyncHighlight() Option {
	return func(o *options) { o.syncHighlight = true }
}

// WithHighlighter sets the code highlighter. Without one, code renders plain.
func WithHighlighter(h surface.Highlighter) Option {
	return func(o *options) { o.highlighter = h }
}

// WithClipboard sets the clipboard used by code copy affordances.
func WithClipboard(c surface.Clipboard) Option {
	return func(o *options) { o.clipboard = c }
}

// WithStyles sets widget styles.
func WithStyles(s *surface.Styles) Option {
	return func(o *options) { o.styles = s }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithExtensions replaces the extension set.
func WithExtensions(exts ...Extension) Option {
	return func(o *options) { o.extensions = exts }
}

// WithDebounce sets the text-change quiet delay.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithTailWindow sets the gesture tail window of a tracker the view creates.
func WithTailWindow(d time.Duration) Option {
	return func(o *options) { o.tailWindow = d }
}

// WithLineHeight sets the line height used by height estimates.
func WithLineHeight(px int) Option {
	return func(o *options) { o.lineHeight = px }
}

// WithWriteBack sets the admonition write-back scope.
func WithWriteBack(s syncbridge.Scope) Option {
	return func(o *options) { o.scope = s }
}

// AsNested marks the view as a nested surface. onChange receives the full
// text after every change.
func AsNested(onChange func(text string)) Option {
	return func(o *options) {
		o.nested = true
		o.onChange = onChange
	}
}

// OptionsFromConfig translates configuration into view options.
func OptionsFromConfig(cfg *config.Config) []Option {
	if cfg == nil {
		return nil
	}

	scope := syncbridge.ScopeBody
	if cfg.WriteBack == config.WriteBackSpan {
		scope = syncbridge.ScopeSpan
	}

	return []Option{
		WithDebounce(cfg.Debounce),
		WithTailWindow(cfg.TailWindow),
		WithLineHeight(cfg.LineHeight),
		WithWriteBack(scope),
		WithExtensions(ExtensionsFor(cfg.Kinds)...),
	}
}

func defaultOptions() options {
	return options{
		clock:      schedule.RealClock{},
		logger:     log.New(io.Discard),
		extensions: DefaultExtensions(),
		debounce:   schedule.DefaultDebounce,
		tailWindow: gesture.DefaultTailWindow,
		lineHeight: surface.DefaultLineHeight,
	}
}
