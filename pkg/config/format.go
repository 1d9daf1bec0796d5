package config

// OutputFormat specifies the output format of the scan and render commands.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatHTML OutputFormat = "html"
)

// IsValid returns true if the format is known.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatText, FormatJSON, FormatHTML:
		return true
	default:
		return false
	}
}
