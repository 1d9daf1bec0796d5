package surface

import (
	"context"
	"strings"

	"github.com/yaklabco/mdblocks/pkg/langdetect"
)

// CodeFence renders a code panel with a language label, a copy affordance,
// and a highlighted body that arrives asynchronously.
type CodeFence struct {
	base

	label       string
	highlighted string
	ready       bool
	started     bool
	cancel      context.CancelFunc
}

func newCodeFence(b base) *CodeFence {
	return &CodeFence{
		base:  b,
		label: langdetect.Label(b.span.Language, b.span.Body),
	}
}

// Label returns the fence tag, a guessed language, or "text".
func (c *CodeFence) Label() string {
	return c.label
}

// Code returns the exact code inside the fence.
func (c *CodeFence) Code() string {
	return c.span.Body
}

// Highlighted reports whether the highlighted body has arrived.
func (c *CodeFence) Highlighted() bool {
	return c.ready
}

// Copy writes the code to the clipboard. Failures are logged and otherwise
// ignored.
func (c *CodeFence) Copy() bool {
	if c.destroyed || c.deps.Clipboard == nil {
		return false
	}
	if err := c.deps.Clipboard.Write(c.span.Body); err != nil {
		c.deps.Logger.Debug("copy failed", "language", c.label, "error", err)
		return false
	}
	return true
}

// ClickBody places the caret at the start of the fence.
func (c *CodeFence) ClickBody() bool {
	return c.moveCaret(c.span.From)
}

// Render draws the panel, starting the highlight on first render.
func (c *CodeFence) Render(width int) string {
	c.startHighlight()

	body := c.span.Body
	if c.ready {
		body = c.highlighted
	}
	body = strings.TrimSuffix(body, "\n")

	styles := c.deps.Styles
	panel := styles.CodePanel
	if inner := width - panel.GetHorizontalFrameSize(); inner > 0 {
		panel = panel.Width(inner + panel.GetHorizontalPadding())
	}

	content := styles.CodeLabel.Render(c.label)
	if body != "" {
		content += "\n" + styles.CodeBody.Render(body)
	}
	return panel.Render(content)
}

// EstimatedHeight sizes the panel from the fence's line span.
func (c *CodeFence) EstimatedHeight() (int, bool) {
	return (c.span.EndLine-c.span.StartLine)*c.deps.LineHeight + 10, true
}

// Destroy drops any highlight still in flight.
func (c *CodeFence) Destroy() {
	c.base.Destroy()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *CodeFence) startHighlight() {
	if c.started || c.destroyed || c.deps.Highlighter == nil {
		return
	}
	c.started = true

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	code, lang := c.span.Body, c.label

	if c.deps.Executor == nil {
		out, err := c.deps.Highlighter.Highlight(ctx, code, lang)
		c.deliver(out, err, false)
		return
	}

	go func() {
		out, err := c.deps.Highlighter.Highlight(ctx, code, lang)
		c.deps.Executor.Post(func() { c.deliver(out, err, true) })
	}()
}

func (c *CodeFence) deliver(out string, err error, async bool) {
	if c.destroyed {
		return
	}
	if err != nil {
		c.deps.Logger.Debug("highlight failed", "language", c.label, "error", err)
		return
	}

	c.highlighted = out
	c.ready = true
	if async && c.deps.Host != nil {
		c.deps.Host.Invalidate()
	}
}
