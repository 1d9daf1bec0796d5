package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdblocks/pkg/fsutil"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	t.Run("content and metadata", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "> [!NOTE]\n> body\n")
		content, info, err := fsutil.ReadFile(context.Background(), path)
		require.NoError(t, err)

		assert.Equal(t, "> [!NOTE]\n> body\n", string(content))
		assert.Equal(t, path, info.Path)
		assert.Equal(t, int64(len(content)), info.Size)
		assert.Equal(t, os.FileMode(0o600), info.Mode.Perm())
		assert.True(t, info.Matches(content))
		assert.False(t, info.Matches([]byte("other")))
	})

	tests := []struct {
		name string
		path func(t *testing.T) string
		want error
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { t.Helper(); return filepath.Join(t.TempDir(), "absent.md") },
			want: fsutil.ErrNotFound,
		},
		{
			name: "directory",
			path: func(t *testing.T) string { t.Helper(); return t.TempDir() },
			want: fsutil.ErrIsDirectory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := fsutil.ReadFile(context.Background(), tt.path(t))
			require.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := fsutil.ReadFile(ctx, writeFile(t, "x"))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCheckModified(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unchanged", func(t *testing.T) {
		t.Parallel()

		_, info, err := fsutil.ReadFile(ctx, writeFile(t, "same"))
		require.NoError(t, err)

		modified, err := fsutil.CheckModified(ctx, info)
		require.NoError(t, err)
		assert.False(t, modified)
	})

	t.Run("content changed with same size and time", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "aaaa")
		_, info, err := fsutil.ReadFile(ctx, path)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("bbbb"), 0o600))
		require.NoError(t, os.Chtimes(path, info.ModTime, info.ModTime))

		modified, err := fsutil.CheckModified(ctx, info)
		require.NoError(t, err)
		assert.True(t, modified)
	})

	t.Run("deleted", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "gone")
		_, info, err := fsutil.ReadFile(ctx, path)
		require.NoError(t, err)
		require.NoError(t, os.Remove(path))

		modified, err := fsutil.CheckModified(ctx, info)
		require.NoError(t, err)
		assert.True(t, modified)
	})

	t.Run("nil info", func(t *testing.T) {
		t.Parallel()

		_, err := fsutil.CheckModified(ctx, nil)
		require.ErrorIs(t, err, fsutil.ErrNilFileInfo)
	})
}

func TestSaveDocument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unchanged content is not written", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "text\n")
		content, info, err := fsutil.ReadFile(ctx, path)
		require.NoError(t, err)

		result, err := fsutil.SaveDocument(ctx, info, content, fsutil.SidecarBackup())
		require.NoError(t, err)
		assert.False(t, result.Written)
		assert.NoFileExists(t, path+fsutil.BackupSuffix)
	})

	t.Run("writes and preserves mode", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "before\n")
		_, info, err := fsutil.ReadFile(ctx, path)
		require.NoError(t, err)

		result, err := fsutil.SaveDocument(ctx, info, []byte("after\n"), fsutil.BackupConfig{})
		require.NoError(t, err)
		assert.True(t, result.Written)
		assert.Empty(t, result.BackupPath)

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "after\n", string(got))

		stat, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
	})

	t.Run("creates a backup once", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "v1\n")
		_, info, err := fsutil.ReadFile(ctx, path)
		require.NoError(t, err)

		result, err := fsutil.SaveDocument(ctx, info, []byte("v2\n"), fsutil.SidecarBackup())
		require.NoError(t, err)
		assert.Equal(t, path+fsutil.BackupSuffix, result.BackupPath)

		_, info, err = fsutil.ReadFile(ctx, path)
		require.NoError(t, err)
		result, err = fsutil.SaveDocument(ctx, info, []byte("v3\n"), fsutil.SidecarBackup())
		require.NoError(t, err)
		assert.True(t, result.Written)
		assert.Empty(t, result.BackupPath)

		backup, err := os.ReadFile(path + fsutil.BackupSuffix)
		require.NoError(t, err)
		assert.Equal(t, "v1\n", string(backup))
	})

	t.Run("refuses when modified externally", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "mine\n")
		_, info, err := fsutil.ReadFile(ctx, path)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("theirs, longer\n"), 0o600))
		require.NoError(t, os.Chtimes(path, time.Now(), time.Now().Add(time.Minute)))

		_, err = fsutil.SaveDocument(ctx, info, []byte("edited\n"), fsutil.SidecarBackup())
		require.ErrorIs(t, err, fsutil.ErrModified)

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "theirs, longer\n", string(got))
		assert.NoFileExists(t, path+fsutil.BackupSuffix)
	})
}

func TestWriteNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates parents", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sub", "dir", ".mdblocks.yml")
		require.NoError(t, fsutil.WriteNew(ctx, path, []byte("theme: monokai\n"), false))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "theme: monokai\n", string(got))
	})

	t.Run("refuses existing without force", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "keep")
		require.ErrorIs(t, fsutil.WriteNew(ctx, path, []byte("new"), false), fsutil.ErrExists)

		require.NoError(t, fsutil.WriteNew(ctx, path, []byte("new"), true))
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	})
}

func TestBackupPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode fsutil.BackupMode
		want string
	}{
		{fsutil.BackupModeSidecar, "a.md.mdblocks.bak"},
		{fsutil.BackupModeNone, ""},
		{"unknown", "a.md.mdblocks.bak"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fsutil.BackupPath("a.md", tt.mode))
		})
	}
}

func FuzzWriteAtomic(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("> [!TIP]\n> x\n"))
	f.Add([]byte("\x00\x01\x02\x03"))
	f.Add(make([]byte, 1024))

	f.Fuzz(func(t *testing.T, content []byte) {
		path := filepath.Join(t.TempDir(), "doc.md")

		require.NoError(t, fsutil.WriteAtomic(context.Background(), path, content, 0))

		got, info, err := fsutil.ReadFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, content, got)
		assert.True(t, info.Matches(content))
	})
}
