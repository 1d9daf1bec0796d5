package configloader

import (
	"fmt"
	"strings"

	"github.com/yaklabco/mdblocks/internal/logging"
	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/config"
	"github.com/yaklabco/mdblocks/pkg/highlight"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Field is the name of the invalid field (e.g., "write_back").
	Field string

	// Value is the invalid value.
	Value any

	// Message describes the validation error.
	Message string

	// FilePath is the config file containing the error (if known).
	FilePath string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Errors are validation failures that prevent loading.
	Errors []ValidationError

	// Warnings are non-fatal issues (e.g., unknown block kinds).
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// HasWarnings returns true if there are any warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// AllMessages returns all error and warning messages combined.
func (r *ValidationResult) AllMessages() []string {
	messages := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		messages = append(messages, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		messages = append(messages, "warning: "+w.Error())
	}
	return messages
}

// knownColors lists valid color modes.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownColors = map[string]bool{
	config.ColorAuto:   true,
	config.ColorAlways: true,
	config.ColorNever:  true,
}

// Validate checks a configuration for errors and warnings. Zero values are
// accepted so partial file layers validate.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	fail := func(field string, value any, format string, args ...any) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if cfg.Debounce < 0 {
		fail("debounce", cfg.Debounce, "must be >= 0")
	}
	if cfg.TailWindow < 0 {
		fail("tail_window", cfg.TailWindow, "must be >= 0")
	}
	if cfg.LineHeight < 0 {
		fail("line_height", cfg.LineHeight, "must be > 0")
	}
	if cfg.Width < 0 {
		fail("width", cfg.Width, "must be >= 0 (0 means terminal width)")
	}
	if cfg.Theme != "" && !highlight.HasTheme(cfg.Theme) {
		fail("theme", cfg.Theme, "unknown theme %q; run `mdblocks themes` to list them", cfg.Theme)
	}
	if cfg.WriteBack != "" && !cfg.WriteBack.IsValid() {
		fail("write_back", cfg.WriteBack, "invalid scope %q; must be one of: body, span", cfg.WriteBack)
	}
	if cfg.Color != "" && !knownColors[cfg.Color] {
		fail("color", cfg.Color, "invalid color mode %q; must be one of: auto, always, never", cfg.Color)
	}
	if cfg.LogLevel != "" && !logging.ValidLevel(cfg.LogLevel) {
		fail("log_level", cfg.LogLevel, "invalid level %q; must be one of: debug, info, warn, error", cfg.LogLevel)
	}
	if cfg.Format != "" && !cfg.Format.IsValid() {
		fail("format", cfg.Format, "invalid format %q; must be one of: text, json, html", cfg.Format)
	}

	for i, name := range cfg.Kinds {
		if _, ok := blocks.ParseKind(name); !ok {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   fmt.Sprintf("kinds[%d]", i),
				Value:   name,
				Message: fmt.Sprintf("unknown block kind %q; it will be ignored", name),
			})
		}
	}

	return result
}

// ValidateWithFile validates configuration and includes file path in errors.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := Validate(cfg)
	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}
	return result
}
