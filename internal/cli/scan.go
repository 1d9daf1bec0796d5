package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdblocks/internal/logging"
	"github.com/yaklabco/mdblocks/internal/ui/pretty"
	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/config"
	"github.com/yaklabco/mdblocks/pkg/langdetect"
	"github.com/yaklabco/mdblocks/pkg/runner"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

// scanFlags holds the flags for the scan command.
type scanFlags struct {
	format         string
	exclude        []string
	jobs           int
	followSymlinks bool
}

// jsonFile is the JSON form of one scanned file.
type jsonFile struct {
	Path   string      `json:"path"`
	Blocks []jsonBlock `json:"blocks"`
	Error  string      `json:"error,omitempty"`
}

// jsonBlock is the JSON form of one span.
type jsonBlock struct {
	Index     int    `json:"index"`
	Kind      string `json:"kind"`
	From      int    `json:"from"`
	To        int    `json:"to"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Tag       string `json:"tag,omitempty"`
	Header    string `json:"header,omitempty"`
	Language  string `json:"language,omitempty"`
	Label     string `json:"label,omitempty"`
	Body      string `json:"body"`
}

func newScanCommand(global *globalFlags) *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan <path>...",
		Short: "List the blocks of one or more documents",
		Long: `Scan Markdown documents and list their blocks in document order:
callouts, blockquotes, fenced code and page breaks.

Directories are walked recursively for .md and .markdown files, skipping
hidden entries and anything matched by --exclude. Files are scanned in
parallel and reported in path order.

Block indexes printed here are the ones accepted by edit and copy.
Use a single "-" to read the document from standard input.`,
		Example: `  mdblocks scan notes.md
  mdblocks scan --format json notes.md
  mdblocks scan docs --exclude "vendor/**"
  cat notes.md | mdblocks scan -`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return &UsageError{Err: err}
			}
			if len(args) > 1 && slices.Contains(args, stdinPath) {
				return usageErrorf("%q cannot be combined with other paths", stdinPath)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, global, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", string(config.FormatText), "Output format: text or json")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "Glob patterns to skip, relative to the working directory")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 0, "Number of files scanned in parallel (0 means one per CPU)")
	cmd.Flags().BoolVar(&flags.followSymlinks, "follow-symlinks", false, "Walk into symlinked directories")

	return cmd
}

func runScan(cmd *cobra.Command, global *globalFlags, flags *scanFlags, paths []string) error {
	format := config.OutputFormat(flags.format)
	if format != config.FormatText && format != config.FormatJSON {
		return usageErrorf("invalid format %q: must be text or json", flags.format)
	}
	if flags.jobs < 0 {
		return usageErrorf("invalid jobs %d: must not be negative", flags.jobs)
	}

	sess, err := newSession(cmd, global, &config.Config{Format: format})
	if err != nil {
		return err
	}

	result, err := scanPaths(cmd, sess, flags, paths)
	if err != nil {
		return err
	}

	if format == config.FormatJSON {
		if err := writeJSONFiles(cmd, result); err != nil {
			return err
		}
	} else {
		writeTextFiles(sess, result)
	}

	return scanError(result)
}

// scanPaths scans standard input directly and everything else through the
// runner.
func scanPaths(cmd *cobra.Command, sess *session, flags *scanFlags, paths []string) (*runner.Result, error) {
	if len(paths) == 1 && paths[0] == stdinPath {
		content, _, err := readDocument(cmd.Context(), cmd, stdinPath)
		if err != nil {
			return nil, err
		}
		spans := blocks.Scan(textdoc.New(string(content)))
		sess.logger.Debug("scanned document",
			logging.FieldPath, displayPath(stdinPath),
			logging.FieldBytes, len(content),
			logging.FieldBlocks, len(spans),
		)
		return &runner.Result{
			Files: []runner.FileOutcome{{Path: stdinPath, Spans: spans, Bytes: len(content)}},
			Stats: runner.Stats{FilesDiscovered: 1, FilesScanned: 1, Blocks: len(spans)},
		}, nil
	}

	result, err := runner.New(sess.logger).Run(cmd.Context(), runner.Options{
		Paths:          paths,
		ExcludeGlobs:   flags.exclude,
		FollowSymlinks: flags.followSymlinks,
		Jobs:           flags.jobs,
	})
	if err != nil {
		return nil, err
	}
	sess.logger.Debug("scanned files",
		"files", result.Stats.FilesScanned,
		logging.FieldBlocks, result.Stats.Blocks,
	)
	return result, nil
}

func writeTextFiles(sess *session, result *runner.Result) {
	table := pretty.NewTableFormatter(sess.styles, sess.width())
	for i, file := range result.Files {
		path := scanDisplayPath(file.Path)
		if file.Error != nil {
			sess.logger.Error("scan failed", logging.FieldPath, path, logging.FieldError, file.Error)
			continue
		}
		if i > 0 {
			fmt.Fprintln(sess.out)
		}
		if len(file.Spans) > 0 {
			fmt.Fprint(sess.out, table.FormatTable(file.Spans))
			fmt.Fprintln(sess.out)
		}
		fmt.Fprint(sess.out, sess.styles.FormatScanSummary(path, file.Spans))
	}

	if len(result.Files) > 1 {
		fmt.Fprintln(sess.out)
		fmt.Fprint(sess.out, sess.styles.FormatRunTotal(result.Stats.Blocks, result.Stats.FilesScanned))
	}
	if len(result.Files) == 0 {
		fmt.Fprint(sess.out, sess.styles.Dim.Render("No Markdown files found")+"\n")
	}
}

func writeJSONFiles(cmd *cobra.Command, result *runner.Result) error {
	out := make([]jsonFile, 0, len(result.Files))
	for _, file := range result.Files {
		entry := jsonFile{Path: scanDisplayPath(file.Path), Blocks: jsonBlocks(file.Spans)}
		if file.Error != nil {
			entry.Error = file.Error.Error()
		}
		out = append(out, entry)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func jsonBlocks(spans []blocks.Span) []jsonBlock {
	out := make([]jsonBlock, 0, len(spans))
	for i, span := range spans {
		b := jsonBlock{
			Index:     i,
			Kind:      span.Kind.String(),
			From:      span.From,
			To:        span.To,
			StartLine: span.StartLine,
			EndLine:   span.EndLine,
			Tag:       span.Tag,
			Header:    span.Header,
			Language:  span.Language,
			Body:      span.Body,
		}
		if span.Kind == blocks.KindCodeFence {
			b.Label = langdetect.Label(span.Language, span.Body)
		}
		out = append(out, b)
	}
	return out
}

// scanError reports the first unreadable file, if any.
func scanError(result *runner.Result) error {
	if !result.HasErrors() {
		return nil
	}
	for _, file := range result.Files {
		if file.Error != nil {
			return fmt.Errorf("%d of %d files could not be scanned: %w",
				result.Stats.FilesErrored, result.Stats.FilesDiscovered, file.Error)
		}
	}
	return nil
}

// scanDisplayPath shortens paths below the working directory.
func scanDisplayPath(path string) string {
	if path == stdinPath {
		return displayPath(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
