package configloader

import "github.com/yaklabco/mdblocks/pkg/config"

// merge combines two configurations, with override taking precedence over base.
// The merge follows these rules:
//   - Scalar values: override overwrites base if override is non-zero
//   - Pointers: override overwrites base if non-nil
//   - Slices: override replaces base entirely if override is non-nil
//
// Neither input is modified.
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override.Clone()
	}
	if override == nil {
		return base.Clone()
	}

	result := base.Clone()

	if override.Debounce != 0 {
		result.Debounce = override.Debounce
	}
	if override.TailWindow != 0 {
		result.TailWindow = override.TailWindow
	}
	if override.LineHeight != 0 {
		result.LineHeight = override.LineHeight
	}
	if override.Theme != "" {
		result.Theme = override.Theme
	}
	if override.WriteBack != "" {
		result.WriteBack = override.WriteBack
	}
	if override.Color != "" {
		result.Color = override.Color
	}
	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Width != 0 {
		result.Width = override.Width
	}

	// false is the zero value; a flag can turn dry-run on but a lower layer
	// cannot turn it off.
	if override.DryRun {
		result.DryRun = true
	}

	if override.Highlight != nil {
		h := *override.Highlight
		result.Highlight = &h
	}
	if override.Kinds != nil {
		result.Kinds = make([]string, len(override.Kinds))
		copy(result.Kinds, override.Kinds)
	}

	return result
}

// MergeAll merges multiple configurations in order, with later configs taking precedence.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0].Clone()
	for i := 1; i < len(configs); i++ {
		result = merge(result, configs[i])
	}
	return result
}
