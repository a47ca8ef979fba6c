// internal/cli/exit_error.go
package cli

import (
	"errors"
	"fmt"

	"apptainer-compose/internal/executil"
)

// ExitError signals a non-zero exit code without forcing os.Exit in
// RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// wrapExit converts a propagated container exit status into an
// ExitError so Execute can mirror the code.
func wrapExit(err error) error {
	if err == nil {
		return nil
	}
	var status *executil.ExitStatusError
	if errors.As(err, &status) {
		return &ExitError{Code: status.Code, Err: err}
	}
	return err
}
