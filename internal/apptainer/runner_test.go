// internal/apptainer/runner_test.go
package apptainer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apptainer-compose/internal/executil"
	"apptainer-compose/pkg/compose"
	"apptainer-compose/pkg/recipe"
)

// fakeRuntime writes a stand-in runtime binary that answers --version
// and otherwise runs tail.
func fakeRuntime(t *testing.T, tail string) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "apptainer")
	script := "#!/bin/sh\nif [ \"$1\" = \"--version\" ]; then echo 'apptainer version 1.2.5'; exit 0; fi\n" + tail + "\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin
}

func composeFixture(t *testing.T, doc string) *compose.File {
	t.Helper()
	f, err := compose.Parse(strings.NewReader(doc), "compose.yaml")
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return f
}

func writeDockerfile(t *testing.T, text string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestBuildWritesDefinitionAndRuns(t *testing.T) {
	ctxDir := writeDockerfile(t, "FROM alpine:3.19\nRUN apk add curl\n")
	workDir := t.TempDir()
	t.Chdir(workDir)

	f := composeFixture(t, "services:\n  app:\n    build: "+ctxDir+"\n")
	r := NewRunner(Options{Binary: fakeRuntime(t, "exit 0")}, false)
	if err := r.Build(context.Background(), f); err != nil {
		t.Fatalf("build: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(workDir, "app.def"))
	if err != nil {
		t.Fatalf("definition not written: %v", err)
	}
	def := string(b)
	if !strings.Contains(def, "Bootstrap: docker") || !strings.Contains(def, "From: alpine:3.19") {
		t.Errorf("definition content:\n%s", def)
	}
}

func TestBuildPropagatesExitStatus(t *testing.T) {
	ctxDir := writeDockerfile(t, "FROM alpine\n")
	t.Chdir(t.TempDir())

	f := composeFixture(t, "services:\n  app:\n    build: "+ctxDir+"\n")
	r := NewRunner(Options{Binary: fakeRuntime(t, "exit 7")}, false)
	err := r.Build(context.Background(), f)

	var exitErr *executil.ExitStatusError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want ExitStatusError", err)
	}
	if exitErr.Code != 7 {
		t.Errorf("code = %d, want 7", exitErr.Code)
	}
}

func TestBuildSkipsImageOnlyServices(t *testing.T) {
	f := composeFixture(t, "services:\n  app:\n    image: alpine\n")
	r := NewRunner(Options{}, false)
	if err := r.Build(context.Background(), f); err != nil {
		t.Fatalf("build: %v", err)
	}
}

func TestBuildMissingDockerfileAborts(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)

	f := composeFixture(t, "services:\n  app:\n    build: "+t.TempDir()+"\n")
	err := NewRunner(Options{}, false).Build(context.Background(), f)
	if !errors.Is(err, recipe.ErrMissingReference) {
		t.Fatalf("err = %v, want recipe.ErrMissingReference", err)
	}
	if _, statErr := os.Stat(filepath.Join(workDir, "app.def")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("definition written despite missing Dockerfile")
	}
}

func TestBuildInvalidRecipeAbortsBeforeAnyWork(t *testing.T) {
	goodCtx := writeDockerfile(t, "FROM alpine\n")
	badCtx := writeDockerfile(t, "RUN echo no-base\n")
	workDir := t.TempDir()
	t.Chdir(workDir)

	callLog := filepath.Join(workDir, "calls.log")
	bin := fakeRuntime(t, "echo \"$@\" >> "+callLog+"\nexit 0")

	doc := "services:\n  good:\n    build: " + goodCtx + "\n  bad:\n    build: " + badCtx + "\n"
	err := NewRunner(Options{Binary: bin}, false).Build(context.Background(), composeFixture(t, doc))
	if !errors.Is(err, recipe.ErrMissingFrom) {
		t.Fatalf("err = %v, want recipe.ErrMissingFrom", err)
	}
	if _, statErr := os.Stat(filepath.Join(workDir, "good.def")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("earlier service's definition written despite later translation error")
	}
	if _, statErr := os.Stat(callLog); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("runtime invoked despite translation error")
	}
}

func TestBuildDryRunWritesNothing(t *testing.T) {
	ctxDir := writeDockerfile(t, "FROM alpine\n")
	workDir := t.TempDir()
	t.Chdir(workDir)

	f := composeFixture(t, "services:\n  app:\n    build: "+ctxDir+"\n")
	if err := NewRunner(Options{}, true).Build(context.Background(), f); err != nil {
		t.Fatalf("dry-run build: %v", err)
	}
	if _, err := os.Stat(filepath.Join(workDir, "app.def")); !errors.Is(err, os.ErrNotExist) {
		t.Error("dry run wrote a definition file")
	}
}

func TestUpDryRun(t *testing.T) {
	f := composeFixture(t, "services:\n  app:\n    image: alpine\n    command: echo hi\n")
	if err := NewRunner(Options{}, true).Up(context.Background(), f); err != nil {
		t.Fatalf("dry-run up: %v", err)
	}
}

func TestUpSynthesisErrorAbortsBeforeExec(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)

	callLog := filepath.Join(workDir, "calls.log")
	bin := fakeRuntime(t, "echo \"$@\" >> "+callLog+"\nexit 0")

	doc := "services:\n  ok:\n    image: alpine\n  broken:\n    command: echo hi\n"
	err := NewRunner(Options{Binary: bin}, false).Up(context.Background(), composeFixture(t, doc))
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
	if _, statErr := os.Stat(callLog); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("runtime invoked despite synthesis error")
	}
}

func TestUpRunsServicesInOrder(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)

	callLog := filepath.Join(workDir, "calls.log")
	bin := fakeRuntime(t, "echo \"$@\" >> "+callLog+"\nexit 0")

	doc := "services:\n  first:\n    image: alpine\n    command: echo one\n  second:\n    image: busybox\n"
	if err := NewRunner(Options{Binary: bin}, false).Up(context.Background(), composeFixture(t, doc)); err != nil {
		t.Fatalf("up: %v", err)
	}

	b, err := os.ReadFile(callLog)
	if err != nil {
		t.Fatalf("runtime never invoked: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("calls = %q, want 2", lines)
	}
	if !strings.Contains(lines[0], "exec docker://alpine echo one") {
		t.Errorf("first call = %q", lines[0])
	}
	if !strings.Contains(lines[1], "run docker://busybox") {
		t.Errorf("second call = %q", lines[1])
	}
}

func TestRunUnknownService(t *testing.T) {
	f := composeFixture(t, "services:\n  app:\n    image: alpine\n")
	err := NewRunner(Options{}, false).Run(context.Background(), f, "ghost")
	if !errors.Is(err, compose.ErrMissingReference) {
		t.Fatalf("err = %v, want compose.ErrMissingReference", err)
	}
	var refErr *compose.ReferenceError
	if !errors.As(err, &refErr) || refErr.Service != "ghost" {
		t.Errorf("err = %v, want service ghost", err)
	}
}

func TestProbeFailureNamesBinary(t *testing.T) {
	f := composeFixture(t, "services:\n  app:\n    image: alpine\n")
	err := NewRunner(Options{Binary: "definitely-missing-runtime-zzz"}, false).Up(context.Background(), f)
	if err == nil || !strings.Contains(err.Error(), "definitely-missing-runtime-zzz") {
		t.Errorf("err = %v, want message naming the binary", err)
	}
}
