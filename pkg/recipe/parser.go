// pkg/recipe/parser.go
package recipe

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"apptainer-compose/pkg/lineio"
)

// basePlaceholder names the implicit stage that collects instructions
// appearing before the first FROM. The first `FROM ... AS name` renames
// it; later stages get their declared name or a stage-N fallback.
const basePlaceholder = "acompose-base"

var (
	reFromAs  = regexp.MustCompile(`(?i)\s+AS\s+(\S+)\s*$`)
	reArchive = regexp.MustCompile(`\.(gz|gzip|bz2|xz)$`)
)

// instrFunc handles one instruction. rem is the remainder after the
// keyword; continuation lines re-enter the same handler.
type instrFunc func(rem string, ln lineio.Line) error

type parser struct {
	path   string
	args   *argTable
	stages []*Stage
	byName map[string]*Stage
	active *Stage

	prev     instrFunc
	prevLine string
}

// ParseFile reads and parses the Dockerfile at path.
func ParseFile(path string) (*Recipe, error) {
	sc, err := lineio.Open(path, lineio.KeepComments())
	if err != nil {
		return nil, err
	}
	defer sc.Close()
	return parse(sc, path)
}

// Parse parses a Dockerfile from r. path is used in error messages.
func Parse(r io.Reader, path string) (*Recipe, error) {
	return parse(lineio.New(r, lineio.KeepComments()), path)
}

func parse(sc *lineio.Scanner, path string) (*Recipe, error) {
	p := newParser(path)
	for {
		ln, ok := sc.Next()
		if !ok {
			break
		}
		if err := p.feed(ln); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return &Recipe{Stages: p.stages}, nil
}

func newParser(path string) *parser {
	base := &Stage{Name: basePlaceholder}
	return &parser{
		path:   path,
		args:   newArgTable(),
		stages: []*Stage{base},
		byName: map[string]*Stage{basePlaceholder: base},
		active: base,
	}
}

// feed routes one line. A recognized keyword at the start of the line
// selects its handler; otherwise the line either continues the
// previous instruction or lands verbatim in %post.
func (p *parser) feed(ln lineio.Line) error {
	rem, fn := p.mapping(ln.Text)
	if fn == nil {
		rem, fn = p.continuation(ln.Text)
	}
	var err error
	if fn != nil {
		err = fn(rem, ln)
	}
	p.prev = fn
	p.prevLine = ln.Text
	return err
}

func (p *parser) mapping(text string) (string, instrFunc) {
	first, _, _ := strings.Cut(text, " ")
	fn := p.handler(strings.ToUpper(first))
	if fn == nil {
		return "", nil
	}
	return strings.TrimSpace(text[len(first):]), fn
}

func (p *parser) handler(keyword string) instrFunc {
	switch keyword {
	case "ADD":
		return p.add
	case "ARG":
		return p.arg
	case "CMD":
		return p.cmd
	case "COPY":
		return p.copy
	case "ENTRYPOINT":
		return p.entrypoint
	case "ENV":
		return p.env
	case "EXPOSE":
		return p.expose
	case "FROM":
		return p.from
	case "HEALTHCHECK":
		return p.healthcheck
	case "LABEL", "MAINTAINER":
		return p.label
	case "RUN":
		return p.run
	case "STOPSIGNAL":
		return p.stopsignal
	case "VOLUME":
		return p.volume
	case "WORKDIR":
		return p.workdir
	}
	return nil
}

// continuation decides what to do with a line that starts with no
// keyword. A trailing backslash on this line or the previous one,
// comments stripped, chains it to the previous handler; a chain with
// no handler to continue is dropped; anything else goes to %post
// verbatim.
func (p *parser) continuation(text string) (string, instrFunc) {
	cur := stripComment(text)
	prev := stripComment(p.prevLine)
	if (strings.HasSuffix(cur, `\`) && p.prev != nil) || strings.HasSuffix(prev, `\`) {
		if p.prev == nil {
			return "", nil
		}
		return strings.TrimSpace(text), p.prev
	}
	return text, p.defaultLine
}

func stripComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func (p *parser) grammarf(line int, format string, args ...any) error {
	return &GrammarError{File: p.path, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// defaultLine lands unrecognized text in the install script unchanged,
// comments included.
func (p *parser) defaultLine(rem string, _ lineio.Line) error {
	p.active.Install = append(p.active.Install, rem)
	return nil
}

func (p *parser) from(rem string, ln lineio.Line) error {
	if rem == "" {
		return p.grammarf(ln.Num, "FROM requires a base image")
	}
	name := ""
	image := rem
	if m := reFromAs.FindStringSubmatchIndex(rem); m != nil {
		name = rem[m[2]:m[3]]
		image = strings.TrimSpace(rem[:m[0]])
	}
	image = p.args.substitute(image)

	switch {
	case name != "":
		if _, dup := p.byName[name]; dup {
			return p.grammarf(ln.Num, "duplicate stage name %q", name)
		}
		if p.pristinePlaceholder() {
			delete(p.byName, p.active.Name)
			p.active.Name = name
			p.byName[name] = p.active
		} else {
			p.newStage(name)
		}
	case p.active.From != "":
		p.newStage(fmt.Sprintf("stage-%d", len(p.stages)+1))
	}

	p.active.From = image
	if strings.Contains(image, "scratch") {
		log.Warn("scratch base images are not served by Docker Hub", "file", p.path, "line", ln.Num)
	}
	log.Debug("opened build stage", "stage", p.active.Name, "from", image)
	return nil
}

// pristinePlaceholder reports whether the implicit first stage is
// still unnamed and baseless, so a named FROM may claim it instead of
// opening a second stage.
func (p *parser) pristinePlaceholder() bool {
	return len(p.stages) == 1 && p.active.Name == basePlaceholder && p.active.From == ""
}

func (p *parser) newStage(name string) {
	s := &Stage{Name: name}
	p.stages = append(p.stages, s)
	p.byName[name] = s
	p.active = s
}

func (p *parser) run(rem string, _ lineio.Line) error {
	if rem != "" {
		p.active.Install = append(p.active.Install, rem)
	}
	return nil
}

func (p *parser) arg(rem string, _ lineio.Line) error {
	if !strings.Contains(rem, "=") {
		log.Warn("ARG without a default has no build-time value, skipping", "arg", rem, "file", p.path)
		return nil
	}
	exports := p.envTokens(rem)
	p.active.Install = append(p.active.Install, exports...)
	for _, assign := range exports {
		name, value, _ := strings.Cut(assign, "=")
		p.args.set(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return nil
}

func (p *parser) env(rem string, _ lineio.Line) error {
	exports := p.envTokens(rem)
	p.active.Install = append(p.active.Install, exports...)
	p.active.Env = append(p.active.Env, exports...)
	return nil
}

// envTokens splits an ENV or ARG remainder into KEY=VALUE assignments.
// Pieces are runs of plain text or quoted spans, quotes kept. A piece
// ending in = joins the next piece, a bare KEY pairs with the next
// piece, and a trailing bare key is dropped with a warning.
func (p *parser) envTokens(rem string) []string {
	pieces := splitEnvPieces(rem)
	var out []string
	for len(pieces) > 0 {
		cur := pieces[0]
		pieces = pieces[1:]
		switch {
		case strings.HasSuffix(cur, "="):
			next := ""
			if len(pieces) > 0 {
				next = pieces[0]
				pieces = pieces[1:]
			}
			out = append(out, cur+next)
		case strings.Contains(cur, "="):
			out = append(out, cur)
		case strings.HasSuffix(cur, `\`):
			continue
		default:
			if len(pieces) == 0 {
				log.Warn("environment key with no value, skipping", "key", cur, "file", p.path)
				continue
			}
			out = append(out, cur+"="+pieces[0])
			pieces = pieces[1:]
		}
	}
	return out
}

// splitEnvPieces cuts s on single spaces and on quoted spans. A quoted
// span is its own piece even when glued to the text before it, which is
// what lets `KEY="a b"` pair back up. An unterminated quote swallows
// the rest of the line.
func splitEnvPieces(s string) []string {
	var pieces []string
	var cur strings.Builder
	flush := func() {
		if strings.TrimSpace(cur.String()) != "" {
			pieces = append(pieces, cur.String())
		}
		cur.Reset()
	}
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ':
			flush()
			i++
		case c == '"' || c == '\'':
			flush()
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				pieces = append(pieces, s[i:])
				i = len(s)
				break
			}
			pieces = append(pieces, s[i:i+end+2])
			i += end + 2
		default:
			cur.WriteByte(c)
			i++
		}
	}
	flush()
	return pieces
}

func (p *parser) copy(rem string, ln lineio.Line) error {
	stage := ""
	if strings.HasPrefix(rem, "--from") {
		first, rest, _ := strings.Cut(rem, " ")
		stage = strings.TrimPrefix(strings.TrimPrefix(first, "--from"), "=")
		if stage == "" {
			return p.grammarf(ln.Num, "COPY --from requires a stage name")
		}
		if _, ok := p.byName[stage]; !ok {
			return &ReferenceError{File: p.path, Stage: stage}
		}
		rem = rest
	}
	tokens := strings.Fields(rem)
	if len(tokens) < 2 {
		log.Warn("COPY needs a source and a destination, skipping", "file", p.path, "line", ln.Num)
		return nil
	}
	dest := tokens[len(tokens)-1]
	for _, src := range tokens[:len(tokens)-1] {
		p.addFile(src, dest, stage)
	}
	return nil
}

func (p *parser) add(rem string, ln lineio.Line) error {
	tokens := strings.Fields(rem)
	if len(tokens) < 2 {
		log.Warn("ADD needs a source and a destination, skipping", "file", p.path, "line", ln.Num)
		return nil
	}
	dest := tokens[len(tokens)-1]
	for _, src := range tokens[:len(tokens)-1] {
		switch {
		case strings.HasPrefix(src, "http"):
			p.active.Install = append(p.active.Install, "curl "+src+" -o "+dest+"/"+path.Base(src))
		case reArchive.MatchString(src):
			p.active.Install = append(p.active.Install, "tar -xf "+src+" -C "+dest)
			p.addFile(src, dest, "")
		default:
			p.addFile(src, dest, "")
		}
	}
	return nil
}

// addFile records one copied pair. Pairs from another stage group under
// that stage; local sources are checked on disk so a doomed build warns
// early.
func (p *parser) addFile(src, dest, stage string) {
	if strings.Contains(src, "*") {
		log.Warn("wildcards are not expanded in definition files", "source", src)
	}
	if stage != "" {
		p.active.addStageFile(stage, FilePair{Source: src, Dest: dest})
		return
	}
	if _, err := os.Stat(src); err != nil {
		log.Warn("copy source not found, the build will need it", "source", src)
	}
	p.active.Files = append(p.active.Files, FilePair{Source: src, Dest: dest})
}

func (p *parser) cmd(rem string, ln lineio.Line) error {
	cl := parseCommandLine(rem)
	if cl == nil {
		log.Warn("CMD without a payload, ignoring", "file", p.path, "line", ln.Num)
		return nil
	}
	p.active.Cmd = cl
	return nil
}

func (p *parser) entrypoint(rem string, ln lineio.Line) error {
	cl := parseCommandLine(rem)
	if cl == nil {
		log.Warn("ENTRYPOINT without a payload, ignoring", "file", p.path, "line", ln.Num)
		return nil
	}
	p.active.Entrypoint = cl
	return nil
}

// parseCommandLine keeps the instruction's original form: a JSON array
// stays a token list, anything else is a single shell string.
func parseCommandLine(rem string) *CommandLine {
	if rem == "" {
		return nil
	}
	var tokens []string
	if err := json.Unmarshal([]byte(rem), &tokens); err == nil {
		return &CommandLine{Tokens: tokens, IsList: true}
	}
	return &CommandLine{Raw: rem}
}

func (p *parser) label(rem string, _ lineio.Line) error {
	if rem != "" {
		p.active.Labels = append(p.active.Labels, rem)
	}
	return nil
}

func (p *parser) healthcheck(rem string, _ lineio.Line) error {
	p.active.Test = rem
	return nil
}

// Containers have no port mapping or volume lifecycle of their own, so
// EXPOSE and VOLUME are recorded as metadata and kept visible as
// comments in the install script.
func (p *parser) expose(rem string, ln lineio.Line) error {
	if rem != "" {
		p.active.Ports = append(p.active.Ports, rem)
	}
	p.active.Install = append(p.active.Install, "# "+ln.Text)
	return nil
}

func (p *parser) volume(rem string, ln lineio.Line) error {
	if rem != "" {
		p.active.Volumes = append(p.active.Volumes, rem)
	}
	p.active.Install = append(p.active.Install, "# "+ln.Text)
	return nil
}

func (p *parser) stopsignal(rem string, ln lineio.Line) error {
	if rem != "" {
		p.active.StopSignal = rem
	}
	p.active.Install = append(p.active.Install, "# "+ln.Text)
	return nil
}

func (p *parser) workdir(rem string, ln lineio.Line) error {
	if rem == "" {
		return p.grammarf(ln.Num, "WORKDIR requires a directory")
	}
	p.active.Install = append(p.active.Install, "mkdir -p "+rem, "cd "+rem)
	p.active.WorkDir = rem
	return nil
}

// argTable records ARG defaults in declaration order for substitution
// into later FROM images.
type argTable struct {
	names  []string
	values map[string]string
}

func newArgTable() *argTable {
	return &argTable{values: make(map[string]string)}
}

func (t *argTable) set(name, value string) {
	if _, ok := t.values[name]; !ok {
		t.names = append(t.names, name)
	}
	t.values[name] = value
}

// substitute replaces ${NAME} and $NAME occurrences, walking args in
// declaration order.
func (t *argTable) substitute(s string) string {
	for _, name := range t.names {
		v := t.values[name]
		s = strings.ReplaceAll(s, "${"+name+"}", v)
		s = strings.ReplaceAll(s, "$"+name, v)
	}
	return s
}

// FindDockerfile locates the Dockerfile inside a build context
// directory. The name must match exactly.
func FindDockerfile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &ReferenceError{File: dir, Err: err}
	}
	for _, e := range entries {
		if e.Name() == "Dockerfile" {
			return joinContext(dir, e.Name()), nil
		}
	}
	return "", &ReferenceError{File: dir}
}

func joinContext(dir, name string) string {
	joined := dir + "/" + name
	for strings.Contains(joined, "//") {
		joined = strings.ReplaceAll(joined, "//", "/")
	}
	return joined
}
