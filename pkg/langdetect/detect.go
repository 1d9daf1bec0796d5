// Package langdetect guesses the language of an untagged code fence so its
// label and highlighting have something better than plain text to go on.
package langdetect

import (
	"bytes"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Fallback is the label used when no language can be determined.
const Fallback = "text"

// classifierCandidates bounds the go-enry classifier to languages that
// commonly appear in notes.
//
//nolint:gochecknoglobals // read-only lookup table
var classifierCandidates = []string{
	"Go", "Python", "Shell", "JavaScript", "TypeScript",
	"Ruby", "Rust", "Java", "C", "C++", "SQL", "JSON",
	"YAML", "HTML", "CSS", "Markdown", "Dockerfile",
}

// signature recognizes one language from highly indicative content.
type signature struct {
	lang  string
	match func(content, trimmed []byte) bool
}

// signatures are checked in order; the first match wins.
//
//nolint:gochecknoglobals // read-only lookup table
var signatures = []signature{
	{"go", func(_, trimmed []byte) bool {
		return bytes.HasPrefix(trimmed, []byte("package ")) ||
			bytes.Contains(trimmed, []byte("func main()")) && bytes.Contains(trimmed, []byte("fmt."))
	}},
	{"python", func(content, _ []byte) bool {
		return containsAny(content, "def ", "import ") && containsAny(content, "):", "__name__", "print(")
	}},
	{"html", func(_, trimmed []byte) bool {
		lower := bytes.ToLower(trimmed)
		return bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.HasPrefix(lower, []byte("<html"))
	}},
	{"json", func(_, trimmed []byte) bool {
		return (bytes.HasPrefix(trimmed, []byte("{")) && bytes.HasSuffix(trimmed, []byte("}")) ||
			bytes.HasPrefix(trimmed, []byte("[")) && bytes.HasSuffix(trimmed, []byte("]"))) &&
			bytes.Contains(trimmed, []byte(`"`))
	}},
	{"dockerfile", func(content, trimmed []byte) bool {
		return bytes.HasPrefix(trimmed, []byte("FROM ")) ||
			bytes.Contains(content, []byte("WORKDIR ")) && bytes.Contains(content, []byte("COPY "))
	}},
	{"sql", func(_, trimmed []byte) bool {
		upper := bytes.ToUpper(trimmed)
		for _, kw := range []string{"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "CREATE "} {
			if bytes.HasPrefix(upper, []byte(kw)) {
				return true
			}
		}
		return false
	}},
	{"rust", func(content, _ []byte) bool {
		return containsAny(content, "fn main()", "println!", "let mut ")
	}},
	{"javascript", func(content, _ []byte) bool {
		return containsAny(content, "=>", "const ", "let ", "console.log")
	}},
	{"yaml", func(content, _ []byte) bool {
		return yamlKeys(content) >= 2
	}},
}

// Detect returns the guessed fence tag for code, or Fallback.
func Detect(content []byte) string {
	if len(bytes.TrimSpace(content)) == 0 {
		return Fallback
	}

	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return normalize(lang)
	}

	trimmed := bytes.TrimSpace(content)
	for _, sig := range signatures {
		if sig.match(content, trimmed) {
			return sig.lang
		}
	}

	if lang, safe := enry.GetLanguageByClassifier(content, classifierCandidates); safe && lang != "" {
		return normalize(lang)
	}

	return Fallback
}

// Label returns the display label for a fence: its tag when present,
// otherwise a guess from the body.
func Label(tag, body string) string {
	if tag = strings.TrimSpace(tag); tag != "" {
		return tag
	}
	return Detect([]byte(body))
}

func containsAny(content []byte, needles ...string) bool {
	for _, n := range needles {
		if bytes.Contains(content, []byte(n)) {
			return true
		}
	}
	return false
}

// yamlKeys counts "key: value" lines and root list items, skipping lines
// that look like code.
func yamlKeys(content []byte) int {
	count := 0
	for _, line := range bytes.Split(content, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if bytes.Contains(line, []byte(": ")) &&
			!bytes.ContainsAny(line, "({") && line[0] != '"' {
			count++
		}
		if bytes.HasPrefix(line, []byte("- ")) {
			count++
		}
	}
	return count
}

// normalize converts go-enry language names to fence tags.
func normalize(lang string) string {
	if lang == "Shell" {
		return "bash"
	}
	return strings.ToLower(lang)
}
