package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/fsutil"
	"github.com/yaklabco/mdblocks/pkg/runner"
)

// tree writes files under a temp dir and returns its path.
func tree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()

	out := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	root := tree(t, map[string]string{
		"README.md":             "",
		"docs/guide.markdown":   "",
		"docs/notes.txt":        "",
		"docs/api/ref.md":       "",
		"vendor/dep/README.md":  "",
		".hidden/secret.md":     "",
		"docs/.draft.md":        "",
		"node_modules/x/doc.md": "",
	})

	tests := []struct {
		name string
		opts runner.Options
		want []string
	}{
		{
			name: "walks the working directory by default",
			opts: runner.Options{WorkingDir: root},
			want: []string{"README.md", "docs/api/ref.md", "docs/guide.markdown", "node_modules/x/doc.md", "vendor/dep/README.md"},
		},
		{
			name: "exclude globs",
			opts: runner.Options{WorkingDir: root, ExcludeGlobs: []string{"vendor/**", "**/node_modules"}},
			want: []string{"README.md", "docs/api/ref.md", "docs/guide.markdown"},
		},
		{
			name: "base name globs",
			opts: runner.Options{WorkingDir: root, ExcludeGlobs: []string{"README.md"}},
			want: []string{"docs/api/ref.md", "docs/guide.markdown", "node_modules/x/doc.md"},
		},
		{
			name: "explicit files and dirs are de-duplicated",
			opts: runner.Options{WorkingDir: root, Paths: []string{"docs", "docs/api/ref.md", "docs/notes.txt"}},
			want: []string{"docs/api/ref.md", "docs/guide.markdown"},
		},
		{
			name: "custom extensions",
			opts: runner.Options{WorkingDir: root, Paths: []string{"docs"}, Extensions: []string{".txt"}},
			want: []string{"docs/notes.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			files, err := runner.Discover(context.Background(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rel(t, root, files))
		})
	}
}

func TestDiscoverMissingPath(t *testing.T) {
	t.Parallel()

	_, err := runner.Discover(context.Background(), runner.Options{
		WorkingDir: t.TempDir(),
		Paths:      []string{"absent"},
	})
	require.ErrorIs(t, err, fsutil.ErrNotFound)
}

func TestDiscoverCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Discover(ctx, runner.Options{WorkingDir: t.TempDir()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun(t *testing.T) {
	t.Parallel()

	root := tree(t, map[string]string{
		"a.md":     "> [!NOTE]\n> x\n\n---\n",
		"b/b.md":   "plain text\n",
		"b/c.md":   "```go\nx\n```\n\n> q\n",
		"z/big.md": "> [!TIP] t\n> y\n\n> [!WARNING] w\n> z\n",
	})

	for _, jobs := range []int{1, 4} {
		result, err := runner.New(nil).Run(context.Background(), runner.Options{WorkingDir: root, Jobs: jobs})
		require.NoError(t, err)

		paths := make([]string, len(result.Files))
		for i, f := range result.Files {
			paths[i] = f.Path
		}
		assert.Equal(t, []string{"a.md", "b/b.md", "b/c.md", "z/big.md"}, rel(t, root, paths), "jobs=%d", jobs)

		stats := result.Stats
		assert.Equal(t, 4, stats.FilesDiscovered)
		assert.Equal(t, 4, stats.FilesScanned)
		assert.Equal(t, 3, stats.FilesWithBlocks)
		assert.Equal(t, 6, stats.Blocks)
		assert.Equal(t, 3, stats.BlocksByKind[blocks.KindAdmonition])
		assert.Equal(t, 1, stats.BlocksByKind[blocks.KindQuote])
		assert.Equal(t, 1, stats.BlocksByKind[blocks.KindCodeFence])
		assert.Equal(t, 1, stats.BlocksByKind[blocks.KindPageBreak])
		assert.Len(t, result.Spans(), 6)
		assert.False(t, result.HasErrors())
	}
}

func TestRunEmpty(t *testing.T) {
	t.Parallel()

	result, err := runner.New(nil).Run(context.Background(), runner.Options{WorkingDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.Zero(t, result.Stats.FilesDiscovered)
}

func TestScanFileError(t *testing.T) {
	t.Parallel()

	outcome := runner.ScanFile(context.Background(), filepath.Join(t.TempDir(), "gone.md"))
	require.ErrorIs(t, outcome.Error, fsutil.ErrNotFound)
	assert.Empty(t, outcome.Spans)
}
