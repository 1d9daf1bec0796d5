package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/yaklabco/mdblocks/pkg/fsutil"
)

// Discover resolves opts.Paths to a sorted, de-duplicated list of absolute
// Markdown file paths. Hidden files and directories are skipped while
// walking; files named explicitly are kept if their extension matches.
func Discover(ctx context.Context, opts Options) ([]string, error) {
	workDir, err := resolveWorkDir(opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	d := &discoverer{
		ctx:        ctx,
		workDir:    workDir,
		extensions: opts.effectiveExtensions(),
		exclude:    opts.ExcludeGlobs,
		follow:     opts.FollowSymlinks,
		seen:       make(map[string]bool),
	}

	for _, input := range opts.effectivePaths() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery cancelled: %w", err)
		}

		abs := input
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(workDir, abs)
		}
		abs = filepath.Clean(abs)

		info, err := os.Stat(abs)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", fsutil.ErrNotFound, input)
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("%w: %s", fsutil.ErrPermissionDenied, input)
		case err != nil:
			return nil, fmt.Errorf("stat %s: %w", input, err)
		}
		if info.IsDir() {
			if err := d.walk(abs); err != nil {
				return nil, err
			}
			continue
		}
		if d.matches(abs) {
			d.add(abs)
		}
	}

	slices.Sort(d.files)
	return d.files, nil
}

type discoverer struct {
	ctx        context.Context
	workDir    string
	extensions []string
	exclude    []string
	follow     bool

	seen  map[string]bool
	files []string
}

func (d *discoverer) add(path string) {
	if !d.seen[path] {
		d.seen[path] = true
		d.files = append(d.files, path)
	}
}

func (d *discoverer) walk(root string) error {
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := d.ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrPermission) {
				return nil
			}
			return walkErr
		}

		hidden := path != root && strings.HasPrefix(entry.Name(), ".")
		if entry.IsDir() {
			if hidden || (path != root && d.excluded(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden {
			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			return d.symlink(path)
		}
		if d.matches(path) {
			d.add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk directory %s: %w", root, err)
	}
	return nil
}

// symlink follows a link found while walking. Broken links are skipped.
func (d *discoverer) symlink(path string) error {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil //nolint:nilerr // broken symlinks are skipped
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil //nolint:nilerr // unreadable targets are skipped
	}
	if !info.IsDir() {
		if d.matches(path) {
			d.add(path)
		}
		return nil
	}
	if !d.follow {
		return nil
	}
	return d.walk(target)
}

func (d *discoverer) matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(d.extensions, ext) {
		return false
	}
	return !d.excluded(path)
}

// excluded matches path, relative to the working directory, and its base
// name against the exclude globs.
func (d *discoverer) excluded(path string) bool {
	rel, err := filepath.Rel(d.workDir, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)

	for _, pattern := range d.exclude {
		pattern = filepath.ToSlash(pattern)
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
		// "dir/**" also excludes dir itself.
		if prefix, found := strings.CutSuffix(pattern, "/**"); found {
			if ok, _ := doublestar.Match(prefix, rel); ok {
				return true
			}
		}
	}
	return false
}

func resolveWorkDir(workDir string) (string, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return abs, nil
}
