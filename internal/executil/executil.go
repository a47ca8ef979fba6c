// internal/executil/executil.go
package executil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"
)

// ExitStatusError carries the exit code of a failed command so callers
// can propagate it as their own exit status.
type ExitStatusError struct {
	Code int
	Cmd  string
	Err  error
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("command failed (exit=%d): %s", e.Code, e.Cmd)
}

func (e *ExitStatusError) Unwrap() error { return e.Err }

// Run executes argv with inherited stdio. argv[0] is the program.
func Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	display := Display(argv)
	log.Info("running", "cmd", display)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return fmt.Errorf("command timed out: %s", display)
			}
			return fmt.Errorf("command canceled: %s", display)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
				return &ExitStatusError{Code: status.ExitStatus(), Cmd: display, Err: err}
			}
		}
		return fmt.Errorf("failed to run command: %s: %w", display, err)
	}
	return nil
}

// DryRun prints the command that would run without executing it.
func DryRun(_ context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	fmt.Println(Display(argv))
	return nil
}

// Output executes argv and returns its combined trimmed output.
func Output(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to run command: %s: %w", Display(argv), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Display renders argv as a copy-pasteable shell line. Tokens that
// cannot be quoted pass through raw.
func Display(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		q, err := syntax.Quote(a, syntax.LangPOSIX)
		if err != nil {
			q = a
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}
