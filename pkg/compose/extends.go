// pkg/compose/extends.go
package compose

import (
	"errors"
	"path/filepath"
	"strings"

	"apptainer-compose/pkg/lineio"
)

// maxExtendsDepth bounds extends chains; anything deeper is treated as
// a cycle.
const maxExtendsDepth = 16

// resolver caches parsed files and guards extends recursion. One
// resolver serves one top-level parse.
type resolver struct {
	cache    map[string]*File
	active   []string
	inFlight map[string]bool
}

func newResolver() *resolver {
	return &resolver{
		cache:    make(map[string]*File),
		inFlight: make(map[string]bool),
	}
}

func (r *resolver) parseFile(path string) (*File, error) {
	if f, ok := r.cache[path]; ok {
		return f, nil
	}
	sc, err := lineio.Open(path)
	if err != nil {
		return nil, err
	}
	defer sc.Close()
	f, err := r.parse(sc, path)
	if err != nil {
		return nil, err
	}
	r.cache[path] = f
	return f, nil
}

func (r *resolver) parse(sc *lineio.Scanner, path string) (*File, error) {
	p := &parser{
		path:     path,
		cur:      newCursor(sc),
		resolver: r,
		file:     &File{Path: path},
	}
	f, err := p.run()
	if err != nil {
		return nil, err
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// resolve returns an independent copy of the named service from file,
// parsing and caching the file as needed. Re-entering a (file, service)
// pair already being resolved, or exceeding the depth bound, fails
// with a CycleError.
func (r *resolver) resolve(file, service string) (*Service, error) {
	key := file + "#" + service
	if r.inFlight[key] || len(r.active) >= maxExtendsDepth {
		return nil, &CycleError{Chain: append(append([]string(nil), r.active...), key)}
	}
	r.inFlight[key] = true
	r.active = append(r.active, key)
	defer func() {
		delete(r.inFlight, key)
		r.active = r.active[:len(r.active)-1]
	}()

	f, err := r.parseFile(file)
	if err != nil {
		if errors.Is(err, ErrExtendsCycle) {
			return nil, err
		}
		return nil, &ReferenceError{File: file, Err: err}
	}
	svc, ok := f.Service(service)
	if !ok {
		return nil, &ReferenceError{File: file, Service: service}
	}
	return svc.Clone(), nil
}

// mergeExtends merges a resolved parent under the child. Merge
// precedence, field by field:
//
//	Name                  always the child's
//	Image, Build, Command child's when set, else parent's
//	DefFile, SifFile      follow Build's winner
//	Volumes, Environment  child's when non-empty, else parent's
//
// After the merge, build, def/sif and volume host paths are re-anchored
// under the parent file's directory, whichever side they came from.
func mergeExtends(child, parent *Service, parentDir string) *Service {
	out := parent.Clone()
	out.Name = child.Name

	if child.Image != "" {
		out.Image = child.Image
	}
	if child.Build != "" {
		out.Build = child.Build
		out.DefFile = child.DefFile
		out.SifFile = child.SifFile
	}
	if len(child.Command) > 0 {
		out.Command = append([]string(nil), child.Command...)
	}
	if child.Volumes.Len() > 0 {
		out.Volumes = child.Volumes.Clone()
	}
	if child.Environment.Len() > 0 {
		out.Environment = child.Environment.Clone()
	}

	if out.Build != "" {
		if out.Build == "." {
			out.Build = parentDir
		} else {
			out.Build = joinPath(parentDir, out.Build)
		}
		out.DefFile = joinPath(parentDir, out.DefFile)
		out.SifFile = joinPath(parentDir, out.SifFile)
	}
	if out.Volumes.Len() > 0 {
		rewritten := NewOrderedMap()
		for _, e := range out.Volumes.All() {
			host, container, _ := strings.Cut(e.Value, ":")
			rewritten.Set(e.Key, joinPath(parentDir, host)+":"+container)
		}
		out.Volumes = rewritten
	}
	return out
}

func parentDir(file string) string {
	return filepath.Dir(file)
}

// joinPath joins textually and collapses separators the way compose
// paths are written; filepath.Clean would rewrite relative bind specs
// like "./" out of recognition. Anchoring under "." is the identity.
func joinPath(dir, path string) string {
	if dir == "." {
		return path
	}
	return collapseSlashes(dir + "/" + path)
}

func collapseSlashes(p string) string {
	return strings.ReplaceAll(strings.ReplaceAll(p, "//", "/"), "/./", "/")
}
