// pkg/compose/extends_test.go
package compose

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustService(t *testing.T, f *File, name string) *Service {
	t.Helper()
	svc, ok := f.Service(name)
	if !ok {
		t.Fatalf("service %s missing", name)
	}
	return svc
}

func TestExtendsMergeAndPathRewrite(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFixture(t, dir, "base/compose.yaml", `services:
  common:
    build: .
    volumes:
      - ./:/mount
      - ./logs:/var/log
    environment:
      MODE: base
      EXTRA: kept
`)
	writeFixture(t, dir, "compose.yaml", `services:
  app:
    environment:
      MODE: child
    extends:
      file: base/compose.yaml
      service: common
`)

	f, err := ParseFile("compose.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	app := mustService(t, f, "app")

	if app.Build != "base" {
		t.Errorf("inherited build %q, want base", app.Build)
	}
	if app.DefFile != "base/common.def" || app.SifFile != "base/common.sif" {
		t.Errorf("inherited recipe paths %q %q", app.DefFile, app.SifFile)
	}

	binds := app.Volumes.All()
	if len(binds) != 2 {
		t.Fatalf("got %d binds, want 2: %v", len(binds), binds)
	}
	if binds[0].Value != "base/:/mount" {
		t.Errorf("rewritten bind %q, want base/:/mount", binds[0].Value)
	}
	if binds[1].Value != "base/logs:/var/log" {
		t.Errorf("rewritten bind %q, want base/logs:/var/log", binds[1].Value)
	}

	if v, _ := app.Environment.Get("MODE"); v != "'child'" {
		t.Errorf("child environment should win: MODE = %q", v)
	}
	if _, ok := app.Environment.Get("EXTRA"); ok {
		t.Error("child environment block must replace the parent block entirely")
	}
}

func TestExtendsEnvironmentOverlayAfterBlock(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFixture(t, dir, "parent.yaml", `services:
  common:
    image: alpine
    environment:
      MODE: base
      EXTRA: kept
`)
	writeFixture(t, dir, "compose.yaml", `services:
  app:
    extends:
      file: parent.yaml
      service: common
    environment:
      MODE: child
`)

	f, err := ParseFile("compose.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	app := mustService(t, f, "app")
	if v, _ := app.Environment.Get("MODE"); v != "'child'" {
		t.Errorf("MODE = %q, keys after extends overlay the merge", v)
	}
	if v, ok := app.Environment.Get("EXTRA"); !ok || v != "'kept'" {
		t.Errorf("EXTRA = %q (present %v), inherited entries survive an overlay", v, ok)
	}
}

func TestExtendsChildFieldsWin(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFixture(t, dir, "parent.yaml", `services:
  common:
    image: alpine:3
    command: sleep 1
`)
	writeFixture(t, dir, "compose.yaml", `services:
  app:
    image: busybox
    extends:
      file: parent.yaml
      service: common
`)

	f, err := ParseFile("compose.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	app := mustService(t, f, "app")
	if app.Image != "docker://busybox" {
		t.Errorf("image %q, want child's docker://busybox", app.Image)
	}
	if want := []string{"sleep", "1"}; !equalStrings(app.Command, want) {
		t.Errorf("command %v, want inherited %v", app.Command, want)
	}
}

func TestExtendsKeysAfterBlockOverrideParent(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFixture(t, dir, "parent.yaml", `services:
  common:
    image: alpine:3
`)
	writeFixture(t, dir, "compose.yaml", `services:
  app:
    extends:
      file: parent.yaml
      service: common
    image: busybox
`)

	f, err := ParseFile("compose.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := mustService(t, f, "app").Image; got != "docker://busybox" {
		t.Errorf("image %q, keys after extends must override", got)
	}
}

func TestExtendsChain(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFixture(t, dir, "lib/base.yaml", `services:
  root:
    build: .
`)
	writeFixture(t, dir, "mid.yaml", `services:
  middle:
    extends:
      file: lib/base.yaml
      service: root
`)
	writeFixture(t, dir, "compose.yaml", `services:
  app:
    extends:
      file: mid.yaml
      service: middle
`)

	f, err := ParseFile("compose.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := mustService(t, f, "app").Build; got != "lib" {
		t.Errorf("build %q, want lib", got)
	}
}

func TestExtendsCycle(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFixture(t, dir, "a.yaml", `services:
  one:
    extends:
      file: b.yaml
      service: two
`)
	writeFixture(t, dir, "b.yaml", `services:
  two:
    extends:
      file: a.yaml
      service: one
`)

	_, err := ParseFile("a.yaml")
	if err == nil {
		t.Fatal("expected cycle error, got none")
	}
	if !errors.Is(err, ErrExtendsCycle) {
		t.Errorf("error %v is not a cycle error", err)
	}
	var cyc *CycleError
	if !errors.As(err, &cyc) {
		t.Fatalf("error %v carries no chain", err)
	}
	if len(cyc.Chain) == 0 {
		t.Error("cycle chain is empty")
	}
}

func TestExtendsSelfCycle(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFixture(t, dir, "compose.yaml", `services:
  app:
    extends:
      file: compose.yaml
      service: app
`)

	_, err := ParseFile("compose.yaml")
	if !errors.Is(err, ErrExtendsCycle) {
		t.Errorf("error %v is not a cycle error", err)
	}
}

func TestExtendsMissingFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFixture(t, dir, "compose.yaml", `services:
  app:
    extends:
      file: nowhere.yaml
      service: common
`)

	_, err := ParseFile("compose.yaml")
	if !errors.Is(err, ErrMissingReference) {
		t.Errorf("error %v is not a missing reference", err)
	}
}

func TestExtendsMissingService(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFixture(t, dir, "parent.yaml", `services:
  other:
    image: alpine
`)
	writeFixture(t, dir, "compose.yaml", `services:
  app:
    extends:
      file: parent.yaml
      service: common
`)

	_, err := ParseFile("compose.yaml")
	if !errors.Is(err, ErrMissingReference) {
		t.Errorf("error %v is not a missing reference", err)
	}
	var ref *ReferenceError
	if !errors.As(err, &ref) {
		t.Fatalf("error %v is not a reference error", err)
	}
	if ref.Service != "common" {
		t.Errorf("reference names service %q, want common", ref.Service)
	}
}

func TestExtendsSharedParentParsedOnce(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFixture(t, dir, "parent.yaml", `services:
  common:
    image: alpine
    environment:
      A: 1
`)
	writeFixture(t, dir, "compose.yaml", `services:
  first:
    extends:
      file: parent.yaml
      service: common
    environment:
      A: first
  second:
    extends:
      file: parent.yaml
      service: common
`)

	f, err := ParseFile("compose.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, _ := mustService(t, f, "first").Environment.Get("A"); v != "'first'" {
		t.Errorf("first A = %q", v)
	}
	if v, _ := mustService(t, f, "second").Environment.Get("A"); v != "'1'" {
		t.Errorf("second service must see the unmodified parent, A = %q", v)
	}
}
