package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/mdblocks/pkg/config"
)

func TestFormatAndScopeValidity(t *testing.T) {
	t.Parallel()

	assert.True(t, config.FormatJSON.IsValid())
	assert.False(t, config.OutputFormat("sarif").IsValid())
	assert.True(t, config.WriteBackSpan.IsValid())
	assert.False(t, config.WriteBack("header").IsValid())
}
