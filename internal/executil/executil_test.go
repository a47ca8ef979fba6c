// internal/executil/executil_test.go
package executil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunSuccess(t *testing.T) {
	if err := Run(context.Background(), []string{"true"}); err != nil {
		t.Fatalf("run true: %v", err)
	}
}

func TestRunPropagatesExitStatus(t *testing.T) {
	err := Run(context.Background(), []string{"sh", "-c", "exit 3"})
	var exitErr *ExitStatusError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want ExitStatusError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("code = %d, want 3", exitErr.Code)
	}
}

func TestRunMissingBinaryIsNotExitStatus(t *testing.T) {
	err := Run(context.Background(), []string{"definitely-not-a-command-zzz"})
	if err == nil {
		t.Fatal("want error for missing binary")
	}
	var exitErr *ExitStatusError
	if errors.As(err, &exitErr) {
		t.Errorf("missing binary reported as exit status: %v", err)
	}
}

func TestRunEmptyArgv(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("want error for empty argv")
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, []string{"sleep", "5"})
	if err == nil || !strings.Contains(err.Error(), "canceled") {
		t.Errorf("err = %v, want canceled", err)
	}
}

func TestDryRunExecutesNothing(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "marker")
	if err := DryRun(context.Background(), []string{"touch", marker}); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if _, err := os.Stat(marker); !errors.Is(err, os.ErrNotExist) {
		t.Error("dry run executed the command")
	}
}

func TestOutput(t *testing.T) {
	out, err := Output(context.Background(), []string{"echo", "hello"})
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	if out != "hello" {
		t.Errorf("out = %q, want hello", out)
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"plain tokens", []string{"apptainer", "run", "app.sif"}, "apptainer run app.sif"},
		{"space needs quotes", []string{"echo", "a b"}, "echo 'a b'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Display(tt.in); got != tt.want {
				t.Errorf("Display(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
