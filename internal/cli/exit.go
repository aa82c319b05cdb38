package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/sdejongh/filenorris/pkg/models"
)

// StatusError carries the process exit code of a finished command.
// Err is nil when the run completed and its report has already been shown.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error { return e.Err }

// exitCodeFor maps a fatal run error to an exit code
func exitCodeFor(err error) int {
	if errors.Is(err, context.Canceled) {
		return models.StatusCancelled.ExitCode()
	}
	return models.StatusFailed.ExitCode()
}

// ExitCode returns the process exit code for the error returned by a command,
// and whether the error still has to be printed
func ExitCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		// fatal run errors were already reported by the formatter
		return statusErr.Code, false
	}
	return exitCodeFor(err), true
}

var errVerboseQuiet = errors.New("--verbose and --quiet cannot be used together")
