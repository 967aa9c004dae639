package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumefit/internal/errors"
	"resumefit/internal/formatters"
)

// CommandConfig holds common configuration for commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler handles formatting and writing output
type OutputHandler struct {
	registry *formatters.FormatterRegistry
	stdout   io.Writer
	logger   *errors.Logger
}

// NewOutputHandler creates an output handler writing to stdout when no file is given
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return NewOutputHandlerWithWriter(os.Stdout, logger)
}

// NewOutputHandlerWithWriter is NewOutputHandler with a custom stdout
func NewOutputHandlerWithWriter(w io.Writer, logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		registry: formatters.NewFormatterRegistry(),
		stdout:   w,
		logger:   logger,
	}
}

// HandleOutput formats data and writes it to the specified output
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile == "" {
		if _, err := fmt.Fprintln(oh.stdout, output); err != nil {
			return errors.NewIOError("OUTPUT_WRITE_FAILED", "Cannot write output", err)
		}
		return nil
	}

	if err := WriteFile(config.OutputFile, output); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully",
		"file", config.OutputFile, "format", config.OutputFormat)
	return nil
}

// GetSupportedFormats returns all output formats with a registered formatter
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}

// WriteFile writes content to a file, creating its directory
func WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content+"\n"), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}
