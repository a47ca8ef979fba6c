// pkg/compose/errors.go
package compose

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds. Callers classify failures with errors.Is.
var (
	// ErrGrammar marks a malformed compose document.
	ErrGrammar = errors.New("compose grammar violation")

	// ErrMissingReference marks an extends target or looked-up service
	// name that cannot be resolved.
	ErrMissingReference = errors.New("missing reference")

	// ErrExtendsCycle marks a circular or runaway extends chain.
	ErrExtendsCycle = errors.New("extends cycle")
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

// ReferenceError reports a service name or extends target that does
// not resolve.
type ReferenceError struct {
	File    string
	Service string
	Err     error
}

func (e *ReferenceError) Error() string {
	if e.Service == "" {
		return fmt.Sprintf("cannot resolve extends file %q: %v", e.File, e.Err)
	}
	return fmt.Sprintf("service %q not found in %s", e.Service, e.File)
}

func (e *ReferenceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingReference}
	}
	return []error{ErrMissingReference, e.Err}
}

// CycleError reports a circular extends chain.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "extends cycle: " + strings.Join(e.Chain, " -> ")
}

func (e *CycleError) Unwrap() error { return ErrExtendsCycle }
