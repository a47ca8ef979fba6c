// pkg/compose/service.go
package compose

// Entry is one key/value pair of an OrderedMap.
type Entry struct {
	Key   string
	Value string
}

// OrderedMap keeps first-occurrence key order with last-wins values,
// the declaration-order semantics compose documents rely on.
type OrderedMap struct {
	entries []Entry
	index   map[string]int
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{index: make(map[string]int)}
}

// Set stores value under key. A repeated key overwrites in place and
// keeps its original position.
func (m *OrderedMap) Set(key, value string) {
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	i, ok := m.index[key]
	if !ok {
		return "", false
	}
	return m.entries[i].Value, true
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// All returns the entries in declaration order. Callers must not
// modify the returned slice.
func (m *OrderedMap) All() []Entry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Clone returns an independent copy.
func (m *OrderedMap) Clone() *OrderedMap {
	out := NewOrderedMap()
	if m == nil {
		return out
	}
	for _, e := range m.entries {
		out.Set(e.Key, e.Value)
	}
	return out
}

// Service is one named unit of a compose document, mapping to one
// runtime invocation.
type Service struct {
	Name string

	// Image is the full registry reference (docker://... scheme applied
	// at parse time). Empty for build-only services.
	Image string

	// Build is the build context directory; empty for image-only
	// services. DefFile and SifFile are derived from the service name
	// whenever Build is set.
	Build   string
	DefFile string
	SifFile string

	// Command holds explicit command tokens, split on single spaces
	// with quotes preserved verbatim.
	Command []string

	// Volumes maps container path to the full host:container bind spec.
	Volumes *OrderedMap

	// Environment maps variable name to its pre-quoted value.
	Environment *OrderedMap
}

func newService(name string) *Service {
	return &Service{
		Name:        name,
		Volumes:     NewOrderedMap(),
		Environment: NewOrderedMap(),
	}
}

// Clone returns an independent copy of the service.
func (s *Service) Clone() *Service {
	out := *s
	out.Command = append([]string(nil), s.Command...)
	out.Volumes = s.Volumes.Clone()
	out.Environment = s.Environment.Clone()
	return &out
}

// File is one parsed compose document.
type File struct {
	Path     string
	Services []*Service
}

// Service returns the named service.
func (f *File) Service(name string) (*Service, bool) {
	for _, s := range f.Services {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}
