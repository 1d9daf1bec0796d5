package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/yaklabco/mdblocks/internal/logging"
	"github.com/yaklabco/mdblocks/internal/ui/pretty"
	"github.com/yaklabco/mdblocks/pkg/engine"
	"github.com/yaklabco/mdblocks/pkg/fsutil"
	"github.com/yaklabco/mdblocks/pkg/schedule"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

// watchFlags holds the flags for the watch command.
type watchFlags struct {
	viewFlags

	timeout time.Duration
}

func newWatchCommand(global *globalFlags) *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-render a document whenever it changes",
		Long: `Render a document and keep re-rendering it as it is saved.

File changes are applied to the open view as a minimal edit, so widgets of
blocks that did not change are kept, and re-rendering waits for the
configured debounce delay after the last change.`,
		Example: `  mdblocks watch notes.md
  mdblocks watch --timeout 1m notes.md`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, global, flags, args[0])
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Stop after this long (default: until interrupted)")

	return cmd
}

func runWatch(cmd *cobra.Command, global *globalFlags, flags *watchFlags, path string) error {
	if path == stdinPath {
		return usageErrorf("watch needs a file path, not standard input")
	}

	sess, err := newSession(cmd, global, flags.config())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}

	content, _, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	loop := schedule.NewLoop()
	view, err := sess.newView(string(content), engine.WithExecutor(loop))
	if err != nil {
		return err
	}
	defer view.Close()

	w := &watchSession{
		sess:     sess,
		view:     view,
		path:     abs,
		width:    sess.width(),
		terminal: pretty.IsTerminal(sess.out),
	}
	view.OnUpdate(func(u engine.Update) {
		if u.Redraw {
			w.draw()
		}
	})
	w.draw()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	// Editors often save by renaming over the file, so watch its directory.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching directory %s: %w", filepath.Dir(abs), err)
	}
	go forwardEvents(ctx, fsw, abs, loop, w.reload, sess.logger)

	sess.logger.Debug("watching document", logging.FieldPath, abs)

	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// watchSession owns the view of a watched document. Its methods run on
// the loop goroutine.
type watchSession struct {
	sess     *session
	view     *engine.View
	path     string
	width    int
	terminal bool
	draws    int
}

func (w *watchSession) draw() {
	out := w.sess.out
	if w.terminal {
		fmt.Fprint(out, clearScreen)
	} else if w.draws > 0 {
		fmt.Fprintln(out, w.sess.styles.Dim.Render(strings.Repeat("-", min(w.width, 40))))
	}
	w.draws++

	text := w.view.Render(w.width)
	fmt.Fprint(out, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(out)
	}
}

// reload reads the file and applies the difference to the view.
func (w *watchSession) reload(ctx context.Context) {
	content, _, err := fsutil.ReadFile(ctx, w.path)
	if err != nil {
		w.sess.logger.Warn("reload failed", logging.FieldPath, w.path, logging.FieldError, err)
		return
	}

	next := textdoc.New(string(content))
	cs := textdoc.Diff(w.view.Doc(), next)
	if cs.Empty() {
		return
	}
	if err := w.view.Dispatch(engine.Transaction{Changes: cs}); err != nil {
		w.sess.logger.Warn("apply change failed", logging.FieldError, err)
		return
	}
	w.sess.logger.Debug("document changed",
		logging.FieldPath, w.path,
		logging.FieldBytes, next.Len(),
		logging.FieldRebuilds, w.view.Rebuilds(),
	)
}

// forwardEvents posts a reload to the loop for every write to path.
func forwardEvents(
	ctx context.Context,
	fsw *fsnotify.Watcher,
	path string,
	exec schedule.Executor,
	reload func(context.Context),
	logger *log.Logger,
) {
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				logger.Debug("ignoring event", logging.FieldEvent, event.Op.String())
				continue
			}
			exec.Post(func() { reload(ctx) })

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Debug("watch error", logging.FieldError, err)

		case <-ctx.Done():
			return
		}
	}
}
