// Package runner scans many Markdown files for blocks concurrently.
package runner

// Options controls multi-file scanning.
type Options struct {
	// Paths are the files or directories to scan. Empty means ".".
	Paths []string

	// WorkingDir resolves relative Paths. Empty means the process working
	// directory.
	WorkingDir string

	// Extensions are the lowercase file extensions, with leading dot,
	// treated as Markdown. Empty means DefaultExtensions().
	Extensions []string

	// ExcludeGlobs skip matching files and directories, relative to
	// WorkingDir. "**" matches across directories.
	ExcludeGlobs []string

	// FollowSymlinks walks into symlinked directories.
	FollowSymlinks bool

	// Jobs is the number of concurrent workers; 0 or less means NumCPU.
	Jobs int
}

// DefaultExtensions returns the default set of Markdown file extensions.
func DefaultExtensions() []string {
	return []string{".md", ".markdown"}
}

func (o Options) effectiveExtensions() []string {
	if len(o.Extensions) == 0 {
		return DefaultExtensions()
	}
	return o.Extensions
}

func (o Options) effectivePaths() []string {
	if len(o.Paths) == 0 {
		return []string{"."}
	}
	return o.Paths
}
