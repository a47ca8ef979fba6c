// internal/apptainer/runner.go
package apptainer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"apptainer-compose/internal/executil"
	"apptainer-compose/internal/version"
	"apptainer-compose/pkg/compose"
	"apptainer-compose/pkg/recipe"
)

// Runner drives the runtime binary for a parsed compose file, one
// service at a time in declaration order. All translation for an
// action happens before its first external invocation; the first
// non-zero exit stops the sequence.
type Runner struct {
	Opts   Options
	DryRun bool
}

// NewRunner returns a Runner for the given options.
func NewRunner(opts Options, dryRun bool) *Runner {
	return &Runner{Opts: opts, DryRun: dryRun}
}

// Build converts and builds every service that carries a build
// directive. Image-only services are skipped.
func (r *Runner) Build(ctx context.Context, f *compose.File) error {
	type job struct {
		svc  *compose.Service
		rec  *recipe.Recipe
		argv []string
	}
	var jobs []job
	for _, svc := range f.Services {
		if svc.Build == "" {
			log.Debug("service has no build directive, skipping", "service", svc.Name)
			continue
		}
		dockerfile, err := recipe.FindDockerfile(svc.Build)
		if err != nil {
			return err
		}
		rec, err := recipe.ParseFile(dockerfile)
		if err != nil {
			return err
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("%s: %w", dockerfile, err)
		}
		argv, err := Synthesize(svc, ActionBuild, r.Opts)
		if err != nil {
			return err
		}
		log.Debug("converted", "service", svc.Name, "dockerfile", dockerfile, "stages", len(rec.Stages))
		jobs = append(jobs, job{svc: svc, rec: rec, argv: argv})
	}
	if len(jobs) == 0 {
		log.Warn("no services with a build directive", "file", f.Path)
		return nil
	}
	if err := r.probe(ctx); err != nil {
		return err
	}
	for _, j := range jobs {
		if !r.DryRun {
			if err := recipe.SaveDefinition(j.svc.DefFile, j.rec, true); err != nil {
				return err
			}
			log.Info("definition written", "service", j.svc.Name, "path", j.svc.DefFile)
		}
		if err := r.exec(ctx, j.argv); err != nil {
			return err
		}
	}
	return nil
}

// Up starts every service in declaration order.
func (r *Runner) Up(ctx context.Context, f *compose.File) error {
	var argvs [][]string
	for _, svc := range f.Services {
		argv, err := Synthesize(svc, ActionUp, r.Opts)
		if err != nil {
			return err
		}
		argvs = append(argvs, argv)
	}
	if len(argvs) == 0 {
		log.Warn("no services to start", "file", f.Path)
		return nil
	}
	if err := r.probe(ctx); err != nil {
		return err
	}
	for _, argv := range argvs {
		if err := r.exec(ctx, argv); err != nil {
			return err
		}
	}
	return nil
}

// Run starts exactly the named service with the ad-hoc arguments from
// the command line.
func (r *Runner) Run(ctx context.Context, f *compose.File, name string) error {
	svc, ok := f.Service(name)
	if !ok {
		return &compose.ReferenceError{File: f.Path, Service: name}
	}
	argv, err := Synthesize(svc, ActionRun, r.Opts)
	if err != nil {
		return err
	}
	if err := r.probe(ctx); err != nil {
		return err
	}
	return r.exec(ctx, argv)
}

func (r *Runner) exec(ctx context.Context, argv []string) error {
	if r.DryRun {
		return executil.DryRun(ctx, argv)
	}
	return executil.Run(ctx, argv)
}

// probe checks the runtime binary answers --version and logs what it
// is. Skipped in dry-run mode.
func (r *Runner) probe(ctx context.Context) error {
	if r.DryRun {
		return nil
	}
	bin := r.Opts.binary()
	out, err := executil.Output(ctx, []string{bin, "--version"})
	if err != nil {
		return fmt.Errorf("runtime binary %q is not usable: %w", bin, err)
	}
	v, err := version.FromOutput(out)
	if err != nil {
		return fmt.Errorf("runtime binary %q: %w", bin, err)
	}
	log.Info("runtime detected", "binary", bin, "version", v)
	return nil
}
