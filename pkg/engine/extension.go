package engine

import (
	"regexp"
	"strings"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

// EnterHandler handles the Enter key. It returns false to let the next
// handler, or the host's default newline, take over.
type EnterHandler func(st State) (Transaction, bool)

// Extension installs rendering and key behavior for one block kind.
type Extension struct {
	Kind  blocks.Kind
	Enter EnterHandler
}

// AdmonitionExtension renders callouts. Its Enter handler continues any
// quote-prefixed line, including the header line.
func AdmonitionExtension() Extension {
	return Extension{Kind: blocks.KindAdmonition, Enter: continuePrefix(false)}
}

// QuoteExtension renders block quotes. Its Enter handler leaves directive
// lines to the admonition handler.
func QuoteExtension() Extension {
	return Extension{Kind: blocks.KindQuote, Enter: continuePrefix(true)}
}

// CodeFenceExtension renders fenced code.
func CodeFenceExtension() Extension {
	return Extension{Kind: blocks.KindCodeFence}
}

// PageBreakExtension renders page breaks.
func PageBreakExtension() Extension {
	return Extension{Kind: blocks.KindPageBreak}
}

// DefaultExtensions returns every extension in handler order.
func DefaultExtensions() []Extension {
	return []Extension{
		AdmonitionExtension(),
		QuoteExtension(),
		CodeFenceExtension(),
		PageBreakExtension(),
	}
}

// ExtensionsFor returns the default extensions limited to kinds. Unknown
// names are ignored; an empty list means all.
func ExtensionsFor(kinds []string) []Extension {
	if len(kinds) == 0 {
		return DefaultExtensions()
	}

	want := make(map[blocks.Kind]bool, len(kinds))
	for _, name := range kinds {
		if k, ok := blocks.ParseKind(name); ok {
			want[k] = true
		}
	}

	var out []Extension
	for _, ext := range DefaultExtensions() {
		if want[ext.Kind] {
			out = append(out, ext)
		}
	}
	return out
}

var quotePrefix = regexp.MustCompile(`^((?:>\s*)+)(.*)$`)

// continuePrefix continues a quote prefix at the caret's depth. On a line
// with no content it steps out one level, or clears the line at depth one.
func continuePrefix(skipDirectives bool) EnterHandler {
	return func(st State) (Transaction, bool) {
		head := st.Selection.Main().Head
		line := st.Doc.LineAt(head)

		if skipDirectives && blocks.IsDirectiveLine(line.Text) {
			return Transaction{}, false
		}
		m := quotePrefix.FindStringSubmatch(line.Text)
		if m == nil {
			return Transaction{}, false
		}

		depth := strings.Count(m[1], ">")
		if strings.TrimSpace(m[2]) == "" {
			prefix := ""
			if depth > 1 {
				prefix = strings.Repeat("> ", depth-1)
			}
			return replaceWithCaret(st.Doc, line.From, line.To, prefix, line.From+len(prefix))
		}

		insert := "\n" + strings.Repeat("> ", depth)
		return replaceWithCaret(st.Doc, head, head, insert, head+len(insert))
	}
}

func replaceWithCaret(doc *textdoc.Document, from, to int, insert string, caret int) (Transaction, bool) {
	cs, err := textdoc.Replace(doc, from, to, insert)
	if err != nil {
		return Transaction{}, false
	}
	sel := textdoc.Single(textdoc.Cursor(caret))
	return Transaction{Changes: cs, Selection: &sel}, true
}
