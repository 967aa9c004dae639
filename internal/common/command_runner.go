package common

import (
	"context"
	"time"

	"resumefit/internal/errors"
)

// OperationFunc produces the value a command prints
type OperationFunc[Output any] func(context.Context) (Output, error)

// RunCommand runs op and writes its result with the configured format and destination.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	name string,
	op OperationFunc[Output],
) error {
	start := time.Now()
	logger.Debug("Running command", "command", name, "output_format", cmdConfig.OutputFormat)

	result, err := op(ctx)
	if err != nil {
		return err
	}

	logger.Debug("Command completed",
		"command", name,
		"duration_ms", time.Since(start).Milliseconds())

	return NewOutputHandler(logger).HandleOutput(result, cmdConfig)
}
