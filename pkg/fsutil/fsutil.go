// Package fsutil reads and writes Markdown documents safely for the
// mdblocks CLI: content hashing on read, detection of external edits
// before a write, atomic replacement, and sidecar backups.
package fsutil

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"time"
)

// Sentinel errors for error categorization via errors.Is.
var (
	// ErrNilFileInfo is returned when a nil FileInfo is passed.
	ErrNilFileInfo = errors.New("nil FileInfo")

	// ErrNotFound indicates the file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrPermissionDenied indicates a permission error.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrIsDirectory indicates the path is a directory, not a file.
	ErrIsDirectory = errors.New("path is a directory")

	// ErrModified indicates the file changed on disk after it was read.
	ErrModified = errors.New("file modified since it was read")

	// ErrExists indicates a file that must not be overwritten already exists.
	ErrExists = errors.New("file already exists")
)

// FileInfo captures the state of a document when it was read.
type FileInfo struct {
	// Path is the path the document was read from.
	Path string

	// Mode is the file's permission and mode bits.
	Mode os.FileMode

	// ModTime is the file's modification time.
	ModTime time.Time

	// Size is the file size in bytes.
	Size int64

	// Hash is the SHA-256 hash of the file content.
	Hash [32]byte
}

// Matches reports whether content is byte-identical to what was read.
func (fi *FileInfo) Matches(content []byte) bool {
	return fi != nil && sha256.Sum256(content) == fi.Hash
}

// ReadFile reads a document and returns its content with the metadata
// needed to detect later external modification.
func ReadFile(ctx context.Context, path string) ([]byte, *FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, nil, classify(path, err)
	}
	if stat.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, classify(path, err)
	}

	return content, &FileInfo{
		Path:    path,
		Mode:    stat.Mode(),
		ModTime: stat.ModTime(),
		Size:    stat.Size(),
		Hash:    sha256.Sum256(content),
	}, nil
}

func classify(path string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %s: %w", ErrPermissionDenied, path, err)
	default:
		return fmt.Errorf("read %s: %w", path, err)
	}
}

// CheckModified reports whether the file changed since info was captured.
// Modification time and size are compared first; when they agree the
// content is re-hashed. A deleted file counts as modified.
func CheckModified(ctx context.Context, info *FileInfo) (bool, error) {
	if info == nil {
		return false, ErrNilFileInfo
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("check modified: %w", err)
	}

	stat, err := os.Stat(info.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("stat %s: %w", info.Path, err)
	}

	if !stat.ModTime().Equal(info.ModTime) || stat.Size() != info.Size {
		return true, nil
	}

	content, err := os.ReadFile(info.Path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", info.Path, err)
	}
	return sha256.Sum256(content) != info.Hash, nil
}

// SaveResult describes the outcome of SaveDocument.
type SaveResult struct {
	// Written is true when the file on disk was replaced.
	Written bool

	// BackupPath is set when a backup was created for this save.
	BackupPath string
}

// SaveDocument writes content back to the file described by info.
//
// Nothing is written when content equals what was read. The write is
// refused with ErrModified when the file changed on disk in the meantime.
// When backup is enabled the original content is preserved first.
func SaveDocument(ctx context.Context, info *FileInfo, content []byte, backup BackupConfig) (SaveResult, error) {
	if info == nil {
		return SaveResult{}, ErrNilFileInfo
	}
	if info.Matches(content) {
		return SaveResult{}, nil
	}

	modified, err := CheckModified(ctx, info)
	if err != nil {
		return SaveResult{}, err
	}
	if modified {
		return SaveResult{}, fmt.Errorf("%w: %s", ErrModified, info.Path)
	}

	var result SaveResult
	created, err := CreateBackup(ctx, info.Path, backup)
	if err != nil {
		return SaveResult{}, err
	}
	if created {
		result.BackupPath = BackupPath(info.Path, backup.Mode)
	}

	if err := WriteAtomic(ctx, info.Path, content, info.Mode.Perm()); err != nil {
		return result, err
	}
	result.Written = true
	return result, nil
}
