package runner

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/fsutil"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

// Runner scans files with a worker pool.
type Runner struct {
	logger *log.Logger
}

// New creates a runner. A nil logger discards output.
func New(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{logger: logger}
}

// Run discovers files under opts.Paths and scans them concurrently. Files
// appear in the result in discovery order regardless of completion order.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Files: make([]FileOutcome, 0, len(files)),
		Stats: newStats(),
	}
	result.Stats.FilesDiscovered = len(files)
	if len(files) == 0 {
		return result, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	jobs = min(jobs, len(files))

	workCh := make(chan string)
	outCh := make(chan FileOutcome)

	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(ctx, workCh, outCh)
		}()
	}

	go func() {
		defer close(workCh)
		for _, path := range files {
			select {
			case <-ctx.Done():
				return
			case workCh <- path:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	outcomes := make(map[string]FileOutcome, len(files))
	for outcome := range outCh {
		outcomes[outcome.Path] = outcome
	}

	for _, path := range files {
		if outcome, ok := outcomes[path]; ok {
			result.accumulate(outcome)
		}
	}

	if ctx.Err() != nil {
		return result, fmt.Errorf("run cancelled: %w", ctx.Err())
	}
	return result, nil
}

func (r *Runner) worker(ctx context.Context, workCh <-chan string, outCh chan<- FileOutcome) {
	for path := range workCh {
		if ctx.Err() != nil {
			return
		}

		outcome := ScanFile(ctx, path)
		if outcome.Error != nil {
			r.logger.Debug("scan failed", "path", path, "error", outcome.Error)
		}

		select {
		case <-ctx.Done():
			return
		case outCh <- outcome:
		}
	}
}

// ScanFile reads and scans a single file.
func ScanFile(ctx context.Context, path string) FileOutcome {
	content, _, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return FileOutcome{Path: path, Error: err}
	}
	return FileOutcome{
		Path:  path,
		Spans: blocks.Scan(textdoc.New(string(content))),
		Bytes: len(content),
	}
}
