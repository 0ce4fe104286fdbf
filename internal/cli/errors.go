package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/jaa/ytqueue/internal/engine"
	"github.com/jaa/ytqueue/internal/exitcode"
)

// usageErrorMarkers are fragments of cobra's own argument and flag errors.
var usageErrorMarkers = []string{
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"flag needs an argument",
	"accepts ",
	"requires at least",
}

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

func mapExitCode(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var coded *ExitError
	if errors.As(err, &coded) {
		return coded.Code
	}
	if errors.Is(err, engine.ErrInterrupted) || errors.Is(err, context.Canceled) {
		return exitcode.Interrupted
	}
	message := err.Error()
	for _, marker := range usageErrorMarkers {
		if strings.Contains(message, marker) {
			return exitcode.InvalidUsage
		}
	}
	return exitcode.RuntimeFailure
}
