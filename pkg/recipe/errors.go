// pkg/recipe/errors.go
package recipe

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers classify failures with errors.Is.
var (
	// ErrGrammar marks a malformed Dockerfile instruction.
	ErrGrammar = errors.New("dockerfile grammar violation")

	// ErrMissingReference marks a cross-stage copy naming an undeclared
	// stage, or a build context with no Dockerfile.
	ErrMissingReference = errors.New("missing reference")

	// ErrMissingFrom marks a build stage that never received a base
	// image header.
	ErrMissingFrom = errors.New("stage missing base image")
)

// GrammarError reports a malformed line with its position.
type GrammarError struct {
	File string
	Line int
	Msg  string
}

func (e *GrammarError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func (e *GrammarError) Unwrap() error { return ErrGrammar }

// ReferenceError reports a copy source stage that was never declared,
// or a build context directory without a Dockerfile.
type ReferenceError struct {
	File  string
	Stage string
	Err   error
}

func (e *ReferenceError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: copy from undeclared stage %q", e.File, e.Stage)
	}
	return fmt.Sprintf("no Dockerfile found in %s", e.File)
}

func (e *ReferenceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingReference}
	}
	return []error{ErrMissingReference, e.Err}
}

// MissingFromError names the stage that lacks a base image header.
type MissingFromError struct {
	Stage string
}

func (e *MissingFromError) Error() string {
	return fmt.Sprintf("stage %q has no base image header", e.Stage)
}

func (e *MissingFromError) Unwrap() error { return ErrMissingFrom }
