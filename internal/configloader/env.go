package configloader

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yaklabco/mdblocks/pkg/config"
)

// envVarPrefix is the prefix for all mdblocks environment variables.
const envVarPrefix = "MDBLOCKS_"

// envFieldType represents the type of a configuration field.
type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeBool
	envTypeInt
	envTypeDuration
	envTypeSlice
)

// envMapping defines environment variable to config field mappings.
type envMapping struct {
	field       string
	typ         envFieldType
	description string
}

// envMappings maps environment variable names (without prefix) to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"DEBOUNCE":    {"debounce", envTypeDuration, "Rebuild delay after a text change, e.g. 10ms"},
	"TAIL_WINDOW": {"tail_window", envTypeDuration, "Gesture tail window, e.g. 140ms"},
	"LINE_HEIGHT": {"line_height", envTypeInt, "Line height in pixels for height estimates"},
	"THEME":       {"theme", envTypeString, "Chroma style for code fences"},
	"HIGHLIGHT":   {"highlight", envTypeBool, "Highlight code fences: true or false"},
	"WRITE_BACK":  {"write_back", envTypeString, "Admonition write-back scope: body or span"},
	"KINDS":       {"kinds", envTypeSlice, "Comma-separated block kinds to render"},
	"COLOR":       {"color", envTypeString, "Color mode: auto, always, or never"},
	"LOG_LEVEL":   {"log_level", envTypeString, "Log level: debug, info, warn, or error"},
	"FORMAT":      {"format", envTypeString, "Output format: text, json, or html"},
}

// LoadFromEnv applies MDBLOCKS_* overrides read through getenv.
func LoadFromEnv(cfg *config.Config, getenv func(string) string) error {
	if cfg == nil {
		return nil
	}

	for envSuffix, mapping := range envMappings {
		envVar := envVarPrefix + envSuffix
		value := strings.TrimSpace(getenv(envVar))
		if value == "" {
			continue
		}
		if err := applyEnvValue(cfg, mapping, value, envVar); err != nil {
			return err
		}
	}
	return nil
}

// applyEnvValue applies a single environment variable value to the config.
func applyEnvValue(cfg *config.Config, mapping envMapping, value, envVar string) error {
	switch mapping.typ {
	case envTypeString:
		return setStringField(cfg, mapping.field, value)
	case envTypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q (expected true/false/1/0)", envVar, value)
		}
		if mapping.field != "highlight" {
			return fmt.Errorf("unknown boolean field: %s", mapping.field)
		}
		cfg.Highlight = &b
	case envTypeInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", envVar, value)
		}
		if mapping.field != "line_height" {
			return fmt.Errorf("unknown integer field: %s", mapping.field)
		}
		cfg.LineHeight = i
	case envTypeDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", envVar, value)
		}
		return setDurationField(cfg, mapping.field, d)
	case envTypeSlice:
		if mapping.field != "kinds" {
			return fmt.Errorf("unknown slice field: %s", mapping.field)
		}
		cfg.Kinds = parseSliceValue(value)
	default:
		return fmt.Errorf("unknown field type for %s", envVar)
	}
	return nil
}

// parseSliceValue parses a comma-separated string into a slice.
// Each element is trimmed of whitespace.
func parseSliceValue(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func setStringField(cfg *config.Config, field, value string) error {
	switch field {
	case "theme":
		cfg.Theme = value
	case "write_back":
		cfg.WriteBack = config.WriteBack(value)
	case "color":
		cfg.Color = value
	case "log_level":
		cfg.LogLevel = value
	case "format":
		cfg.Format = config.OutputFormat(value)
	default:
		return fmt.Errorf("unknown string field: %s", field)
	}
	return nil
}

func setDurationField(cfg *config.Config, field string, value time.Duration) error {
	switch field {
	case "debounce":
		cfg.Debounce = value
	case "tail_window":
		cfg.TailWindow = value
	default:
		return fmt.Errorf("unknown duration field: %s", field)
	}
	return nil
}

// GetEnvVarName returns the full environment variable name for a config field.
func GetEnvVarName(field string) string {
	for suffix, mapping := range envMappings {
		if mapping.field == field {
			return envVarPrefix + suffix
		}
	}
	return ""
}

// EnvVar describes one supported environment variable.
type EnvVar struct {
	Name        string
	Description string
}

// ListEnvVars returns every supported environment variable, sorted by name.
func ListEnvVars() []EnvVar {
	out := make([]EnvVar, 0, len(envMappings))
	for suffix, mapping := range envMappings {
		out = append(out, EnvVar{Name: envVarPrefix + suffix, Description: mapping.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
