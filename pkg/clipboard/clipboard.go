// Package clipboard writes text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("clipboard unsupported")

// System writes to the OS clipboard.
type System struct {
	write func(string) error
}

// NewSystem creates a clipboard backed by the platform's clipboard utility.
func NewSystem() *System {
	return &System{write: clipboard.WriteAll}
}

// Write copies text to the clipboard.
func (s *System) Write(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := s.write(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Memory is an in-process clipboard used by tests and headless hosts.
type Memory struct {
	Text   string
	Writes int
	Err    error
}

// Write stores text, or returns Err if set.
func (m *Memory) Write(text string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Text = text
	m.Writes++
	return nil
}
