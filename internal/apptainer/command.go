// internal/apptainer/command.go
package apptainer

import (
	"errors"
	"fmt"

	"apptainer-compose/pkg/compose"
)

// DefaultBinary is the runtime invoked when no override is configured.
const DefaultBinary = "apptainer"

// ErrMissingField marks a service that lacks the field an action needs.
var ErrMissingField = errors.New("missing required field")

// MissingFieldError names the service and the field it lacks.
type MissingFieldError struct {
	Service string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("service %s has no %s", e.Service, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// Action selects which runtime invocation to synthesize.
type Action int

const (
	ActionBuild Action = iota
	ActionRun
	ActionUp
)

func (a Action) String() string {
	switch a {
	case ActionBuild:
		return "build"
	case ActionRun:
		return "run"
	case ActionUp:
		return "up"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Options carries the knobs that shape a synthesized command.
type Options struct {
	// Binary overrides the runtime executable.
	Binary string

	// WritableTmpfs adds an ephemeral writable overlay on run/up.
	WritableTmpfs bool

	// Args are ad-hoc arguments appended after the image on ActionRun.
	Args []string
}

func (o Options) binary() string {
	if o.Binary != "" {
		return o.Binary
	}
	return DefaultBinary
}

// Synthesize translates one service into a full runtime argv, binary
// name first.
//
// Build produces `build -F <sif> <def>`. Run and up pick the verb by
// whether the service carries an explicit command (`exec`) or not
// (`run`), then emit --writable-tmpfs, --bind per volume, --env per
// environment entry, the target image, and the trailing arguments:
// ad-hoc CLI args for run, the service's own command for up.
func Synthesize(svc *compose.Service, action Action, opts Options) ([]string, error) {
	bin := opts.binary()

	if action == ActionBuild {
		if svc.Build == "" {
			return nil, &MissingFieldError{Service: svc.Name, Field: "build directive"}
		}
		return []string{bin, "build", "-F", svc.SifFile, svc.DefFile}, nil
	}

	verb := "run"
	if len(svc.Command) > 0 {
		verb = "exec"
	}
	argv := []string{bin, verb}

	if opts.WritableTmpfs {
		argv = append(argv, "--writable-tmpfs")
	}
	for _, e := range svc.Volumes.All() {
		argv = append(argv, "--bind", e.Value)
	}
	for _, e := range svc.Environment.All() {
		argv = append(argv, "--env", e.Key+"="+e.Value)
	}

	switch {
	case svc.Build != "":
		argv = append(argv, svc.SifFile)
	case svc.Image != "":
		argv = append(argv, svc.Image)
	default:
		return nil, &MissingFieldError{Service: svc.Name, Field: "image or build source"}
	}

	if action == ActionRun {
		argv = append(argv, opts.Args...)
	} else {
		argv = append(argv, svc.Command...)
	}
	return argv, nil
}
