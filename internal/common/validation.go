package common

import (
	"fmt"
	"slices"

	"resumefit/internal/formatters"
)

// ValidateOutputFormat checks format against the configured formats and the formatter registry.
// An empty supportedFormats list means any registered format is accepted.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) > 0 && !slices.Contains(supportedFormats, format) {
		return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
			format, supportedFormats)
	}

	registered := formatters.NewFormatterRegistry().GetSupportedFormats()
	if !slices.Contains(registered, format) {
		return fmt.Errorf("no formatter registered for '%s'. Available formats: %v",
			format, registered)
	}
	return nil
}

// CompletionFormats returns the formats offered for shell completion
func CompletionFormats(supportedFormats []string) []string {
	if len(supportedFormats) == 0 {
		return formatters.NewFormatterRegistry().GetSupportedFormats()
	}
	return supportedFormats
}
