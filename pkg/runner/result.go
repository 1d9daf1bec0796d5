package runner

import "github.com/yaklabco/mdblocks/pkg/blocks"

// FileOutcome is the scan result of one file.
type FileOutcome struct {
	// Path is the absolute path of the file.
	Path string

	// Spans are the file's blocks in document order.
	Spans []blocks.Span

	// Bytes is the size of the file content.
	Bytes int

	// Error is set when the file could not be read.
	Error error
}

// Stats aggregates a run.
type Stats struct {
	FilesDiscovered int
	FilesScanned    int
	FilesErrored    int
	FilesWithBlocks int

	Blocks       int
	BlocksByKind map[blocks.Kind]int
}

// Result is the outcome of a run, with files in discovery order.
type Result struct {
	Files []FileOutcome
	Stats Stats
}

// HasErrors reports whether any file failed.
func (r *Result) HasErrors() bool {
	return r != nil && r.Stats.FilesErrored > 0
}

// Spans returns every span of every file in order.
func (r *Result) Spans() []blocks.Span {
	if r == nil {
		return nil
	}
	var out []blocks.Span
	for _, f := range r.Files {
		out = append(out, f.Spans...)
	}
	return out
}

func newStats() Stats {
	return Stats{BlocksByKind: make(map[blocks.Kind]int)}
}

func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Error != nil {
		r.Stats.FilesErrored++
		return
	}

	r.Stats.FilesScanned++
	r.Stats.Blocks += len(outcome.Spans)
	if len(outcome.Spans) > 0 {
		r.Stats.FilesWithBlocks++
	}
	for _, s := range outcome.Spans {
		r.Stats.BlocksByKind[s.Kind]++
	}
}
