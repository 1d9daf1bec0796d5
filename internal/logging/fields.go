package logging

// Field name constants for structured logging.
const (
	// Common fields.
	FieldError      = "error"
	FieldPath       = "path"
	FieldWorkingDir = "working_dir"
	FieldConfig     = "config"

	// Document fields.
	FieldBytes  = "bytes"
	FieldBlocks = "blocks"
	FieldBlock  = "block"
	FieldKind   = "kind"
	FieldCursor = "cursor"
	FieldWidth  = "width"

	// Edit fields.
	FieldDryRun  = "dry_run"
	FieldScope   = "scope"
	FieldChanged = "changed"

	// Watch fields.
	FieldEvent    = "event"
	FieldRebuilds = "rebuilds"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
