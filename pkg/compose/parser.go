// pkg/compose/parser.go
package compose

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"apptainer-compose/pkg/lineio"
)

const imageScheme = "docker://"

// Depths of the restricted grammar.
const (
	depthRoot    = 0
	depthService = 2
	depthKey     = 4
	depthNested  = 6
)

// parser walks tokenized events and accumulates services. All state
// lives here; nothing is shared between parses.
type parser struct {
	path     string
	cur      *cursor
	resolver *resolver
	file     *File
}

// ParseFile parses the compose document at path.
func ParseFile(path string) (*File, error) {
	return newResolver().parseFile(path)
}

// Parse parses a compose document from r. path anchors extends
// resolution and error positions.
func Parse(r io.Reader, path string) (*File, error) {
	return newResolver().parse(lineio.New(r), path)
}

// run scans for the depth-0 services root; everything before and
// around it is ignored.
func (p *parser) run() (*File, error) {
	for {
		ev, ok := p.cur.peek()
		if !ok {
			return p.file, nil
		}
		if ev.Depth == depthRoot && ev.Kind == KeyEvent && !ev.HasValue && ev.Key == "services" {
			p.cur.next()
			if err := p.services(); err != nil {
				return nil, err
			}
			continue
		}
		p.cur.next()
	}
}

// services consumes depth-2 service headers until the input ends.
func (p *parser) services() error {
	for {
		ev, ok := p.cur.peek()
		if !ok {
			return nil
		}
		if ev.Depth != depthService {
			p.cur.next()
			continue
		}
		if ev.Kind != KeyEvent {
			return p.grammarf(ev.Line, "malformed service header %q", strings.TrimSpace(ev.Text))
		}
		if err := p.service(ev); err != nil {
			return err
		}
	}
}

// service consumes one header and its depth-4 body. Control returns as
// soon as an event at depth 2 or shallower arrives.
func (p *parser) service(header Event) error {
	p.cur.next()
	if err := p.checkKey(header); err != nil {
		return err
	}
	if header.HasValue {
		return p.grammarf(header.Line, "service header %q must not carry a value", header.Key)
	}
	if _, exists := p.file.Service(header.Key); exists {
		return p.grammarf(header.Line, "duplicate service %q", header.Key)
	}

	svc := newService(header.Key)
	for {
		ev, ok := p.cur.peek()
		if !ok {
			break
		}
		if ev.Depth <= depthService {
			break
		}
		if ev.Depth != depthKey {
			p.cur.next()
			continue
		}
		if ev.Kind != KeyEvent {
			return p.grammarf(ev.Line, "malformed service entry %q", strings.TrimSpace(ev.Text))
		}
		p.cur.next()
		if err := p.serviceKey(svc, ev); err != nil {
			return err
		}
	}
	p.file.Services = append(p.file.Services, svc)
	return nil
}

func (p *parser) serviceKey(svc *Service, ev Event) error {
	if err := p.checkKey(ev); err != nil {
		return err
	}
	if ev.HasValue {
		if err := p.checkValue(ev); err != nil {
			return err
		}
	}
	switch ev.Key {
	case "image":
		if !ev.HasValue {
			return p.grammarf(ev.Line, "image requires a value")
		}
		if strings.Contains(ev.Value, " ") {
			return p.grammarf(ev.Line, "invalid image reference %q", ev.Value)
		}
		svc.Image = imageScheme + ev.Value
	case "build":
		if !ev.HasValue {
			return p.grammarf(ev.Line, "build requires a value")
		}
		if strings.Contains(ev.Value, " ") {
			return p.grammarf(ev.Line, "invalid build path %q", ev.Value)
		}
		svc.Build = ev.Value
		svc.DefFile = svc.Name + ".def"
		svc.SifFile = svc.Name + ".sif"
	case "command":
		if !ev.HasValue {
			return p.grammarf(ev.Line, "command requires a value")
		}
		svc.Command = strings.Split(ev.Value, " ")
	case "volumes":
		if ev.HasValue {
			log.Warn("volumes expects a nested block, ignoring inline value", "file", p.path, "line", ev.Line)
			return nil
		}
		return p.volumes(svc)
	case "environment":
		if ev.HasValue {
			log.Warn("environment expects a nested block, ignoring inline value", "file", p.path, "line", ev.Line)
			return nil
		}
		return p.environment(svc)
	case "extends":
		return p.extends(svc, ev.Line)
	case "networks":
		log.Warn("unsupported compose key, ignoring", "key", ev.Key, "file", p.path, "line", ev.Line)
		return nil
	default:
		return p.grammarf(ev.Line, "unrecognized service key %q", ev.Key)
	}
	return nil
}

// volumes consumes depth-6 list items. Each entry is
// host:container[:mode]; the mode is dropped and the entry is keyed by
// its container path, so re-declaring a container path overwrites.
func (p *parser) volumes(svc *Service) error {
	for {
		ev, ok := p.cur.peek()
		if !ok || ev.Depth != depthNested || ev.Kind != ItemEvent {
			return nil
		}
		p.cur.next()
		spec := ev.Value
		if n := strings.Count(spec, ":"); n != 1 && n != 2 {
			return p.grammarf(ev.Line, "volume %q must be host:container[:mode]", spec)
		}
		parts := strings.SplitN(spec, ":", 3)
		svc.Volumes.Set(parts[1], parts[0]+":"+parts[1])
	}
}

// environment consumes depth-6 NAME: VALUE entries.
func (p *parser) environment(svc *Service) error {
	for {
		ev, ok := p.cur.peek()
		if !ok || ev.Depth != depthNested {
			return nil
		}
		if ev.Kind != KeyEvent {
			return p.grammarf(ev.Line, "malformed environment entry %q", strings.TrimSpace(ev.Text))
		}
		p.cur.next()
		if err := p.checkKey(ev); err != nil {
			return err
		}
		if ev.HasValue {
			if err := p.checkValue(ev); err != nil {
				return err
			}
		}
		svc.Environment.Set(ev.Key, quoteEnvValue(ev.Value, ev.HasValue))
	}
}

// quoteEnvValue normalizes an environment value for later use as a
// --env flag payload: null and absent become empty, double quotes
// become single quotes, bare values gain single quotes, and values
// already touching a single quote pass through.
func quoteEnvValue(v string, has bool) string {
	switch {
	case !has, v == "null":
		return ""
	case len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"':
		return "'" + v[1:len(v)-1] + "'"
	case v[0] != '\'' && v[len(v)-1] != '\'':
		return "'" + v + "'"
	}
	return v
}

// extends consumes the depth-6 file/service keys, resolves the parent
// service through the shared resolver, and merges it under the child.
func (p *parser) extends(svc *Service, open int) error {
	var file, service string
	var fileSet, serviceSet bool
	for {
		ev, ok := p.cur.peek()
		if !ok || ev.Depth != depthNested {
			break
		}
		if ev.Kind != KeyEvent {
			return p.grammarf(ev.Line, "malformed extends entry %q", strings.TrimSpace(ev.Text))
		}
		p.cur.next()
		if err := p.checkKey(ev); err != nil {
			return err
		}
		if !ev.HasValue {
			return p.grammarf(ev.Line, "extends key %q requires a value", ev.Key)
		}
		if err := p.checkValue(ev); err != nil {
			return err
		}
		switch ev.Key {
		case "file":
			file, fileSet = ev.Value, true
		case "service":
			service, serviceSet = ev.Value, true
		}
	}
	if !fileSet || !serviceSet {
		return p.grammarf(open, "extends requires both file and service")
	}
	parent, err := p.resolver.resolve(file, service)
	if err != nil {
		return err
	}
	*svc = *mergeExtends(svc, parent, parentDir(file))
	return nil
}

func (p *parser) checkKey(ev Event) error {
	k := ev.Key
	if k == "" || strings.Contains(k, " ") || strings.Contains(k, ": ") {
		return p.grammarf(ev.Line, "invalid key %q", k)
	}
	if !ev.HasValue && strings.Contains(k, ":") {
		return p.grammarf(ev.Line, "invalid key %q", k)
	}
	return nil
}

func (p *parser) checkValue(ev Event) error {
	if strings.Contains(ev.Value, ": ") {
		return p.grammarf(ev.Line, "malformed value %q", ev.Value)
	}
	return nil
}

func (p *parser) grammarf(line int, format string, args ...any) error {
	return &GrammarError{File: p.path, Line: line, Msg: fmt.Sprintf(format, args...)}
}
