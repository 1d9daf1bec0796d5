package clipboard_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdblocks/pkg/clipboard"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	var m clipboard.Memory
	require.NoError(t, m.Write("print(1)\n"))
	assert.Equal(t, "print(1)\n", m.Text)
	assert.Equal(t, 1, m.Writes)

	m.Err = errors.New("denied")
	require.Error(t, m.Write("other"))
	assert.Equal(t, "print(1)\n", m.Text)
}
