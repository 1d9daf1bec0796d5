package cli

import (
	"errors"
	"fmt"

	"github.com/yaklabco/mdblocks/internal/configloader"
	"github.com/yaklabco/mdblocks/pkg/engine"
	"github.com/yaklabco/mdblocks/pkg/fsutil"
)

// Exit codes for mdblocks.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitFailure indicates the command ran but could not do its job.
	ExitFailure = 1

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// ErrConfig marks errors raised while loading configuration.
var ErrConfig = errors.New("configuration error")

// UsageError is an error caused by invalid command-line usage.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	var validation *configloader.ValidationError
	switch {
	case errors.As(err, &usage), errors.Is(err, engine.ErrNoBlock):
		return ExitInvalidUsage
	case errors.As(err, &validation), errors.Is(err, ErrConfig):
		return ExitConfigError
	case errors.Is(err, fsutil.ErrNotFound),
		errors.Is(err, fsutil.ErrPermissionDenied),
		errors.Is(err, fsutil.ErrIsDirectory),
		errors.Is(err, fsutil.ErrModified),
		errors.Is(err, fsutil.ErrExists):
		return ExitIOError
	case errors.Is(err, engine.ErrClosed):
		return ExitInternalError
	default:
		return ExitFailure
	}
}
